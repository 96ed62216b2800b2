// Package client 提供 core.Remote 的 HTTP 实现：把核心的远端操作
// 映射到服务端 /api/v1 接口，并按约定分类业务拒绝与网络故障。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"actify_engage/core"

	"github.com/google/uuid"
)

// HTTPRemote 通过 HTTP API 访问服务端的 Remote 实现。
// 用户身份由 token 决定，接口参数里的 userID 仅用于语义对齐。
type HTTPRemote struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ core.Remote = (*HTTPRemote)(nil)

func NewHTTPRemote(baseURL, token string) *HTTPRemote {
	return &HTTPRemote{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// envelope 服务端统一响应结构
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do 发送请求并解包响应。4xx 的业务拒绝转成 *core.MutationRejectedError，
// 其余错误原样返回（上层视为网络/服务端故障）。
func (r *HTTPRemote) do(ctx context.Context, op, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict:
		// 服务端明确拒绝了这次意图
		return &core.MutationRejectedError{Op: op, Reason: env.Message}
	default:
		return fmt.Errorf("%s: server returned %d: %s", op, resp.StatusCode, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// CurrentCycle 获取当期挑战；没有当期挑战时返回 (nil, nil)
func (r *HTTPRemote) CurrentCycle(ctx context.Context) (*core.Cycle, error) {
	var data struct {
		Challenge *core.Cycle `json:"challenge"`
	}
	if err := r.do(ctx, "current_cycle", http.MethodGet, "/api/v1/global-challenges/current", nil, &data); err != nil {
		return nil, err
	}
	return data.Challenge, nil
}

// HasSubmitted 用户在该期是否已投稿
func (r *HTTPRemote) HasSubmitted(ctx context.Context, userID, cycleID uuid.UUID) (bool, error) {
	var data struct {
		HasSubmitted bool `json:"has_submitted"`
	}
	path := fmt.Sprintf("/api/v1/global-challenges/%s/status", cycleID)
	if err := r.do(ctx, "has_submitted", http.MethodGet, path, nil, &data); err != nil {
		return false, err
	}
	return data.HasSubmitted, nil
}

// SubmitActivity 提交当期活动
func (r *HTTPRemote) SubmitActivity(ctx context.Context, userID, cycleID uuid.UUID, description, photoURL string) error {
	body := map[string]interface{}{
		"challenge_id": cycleID,
		"description":  description,
		"photo_url":    photoURL,
	}
	return r.do(ctx, "submit_activity", http.MethodPost, "/api/v1/global-submissions", body, nil)
}

// ListSubmissions 拉取当期投稿集合。服务端对未解锁的用户只返回
// locked 状态，此时结果为空集。
func (r *HTTPRemote) ListSubmissions(ctx context.Context, viewerID, cycleID uuid.UUID) ([]core.FeedItem, error) {
	var data struct {
		Status      string `json:"status"`
		Submissions []struct {
			ID             uuid.UUID `json:"id"`
			UserID         uuid.UUID `json:"user_id"`
			CreatedAt      time.Time `json:"created_at"`
			VoteCount      int       `json:"vote_count"`
			CommentCount   int       `json:"comment_count"`
			ViewerHasVoted bool      `json:"viewer_has_voted"`
		} `json:"submissions"`
	}
	if err := r.do(ctx, "list_submissions", http.MethodGet, "/api/v1/global-feed", nil, &data); err != nil {
		return nil, err
	}

	items := make([]core.FeedItem, 0, len(data.Submissions))
	for _, s := range data.Submissions {
		items = append(items, core.FeedItem{
			ID:             s.ID,
			AuthorID:       s.UserID,
			CreatedAt:      s.CreatedAt,
			VoteCount:      s.VoteCount,
			CommentCount:   s.CommentCount,
			ViewerHasVoted: s.ViewerHasVoted,
		})
	}
	return items, nil
}

// ToggleVote 切换投票，返回权威票数与本人投票标记
func (r *HTTPRemote) ToggleVote(ctx context.Context, userID, submissionID uuid.UUID) (*core.VoteResult, error) {
	var data core.VoteResult
	path := fmt.Sprintf("/api/v1/global-submissions/%s/vote", submissionID)
	if err := r.do(ctx, "toggle_vote", http.MethodPost, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// PostComment 发表评论，返回权威评论数
func (r *HTTPRemote) PostComment(ctx context.Context, userID, submissionID uuid.UUID, comment string) (int, error) {
	var data struct {
		CommentCount int `json:"comment_count"`
	}
	path := fmt.Sprintf("/api/v1/global-submissions/%s/comment", submissionID)
	body := map[string]string{"comment": comment}
	if err := r.do(ctx, "post_comment", http.MethodPost, path, body, &data); err != nil {
		return 0, err
	}
	return data.CommentCount, nil
}

// CheckRelation 获取一对用户关注边的权威快照
func (r *HTTPRemote) CheckRelation(ctx context.Context, selfID, otherID uuid.UUID) (*core.RelationSnapshot, error) {
	var data core.RelationSnapshot
	path := fmt.Sprintf("/api/v1/users/%s/relation", otherID)
	if err := r.do(ctx, "check_relation", http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetFollow 建立/删除关注边，返回权威的边存在性
func (r *HTTPRemote) SetFollow(ctx context.Context, followerID, followingID uuid.UUID, follow bool) (bool, error) {
	action := "follow"
	op := "follow"
	if !follow {
		action = "unfollow"
		op = "unfollow"
	}
	var data struct {
		Following bool `json:"following"`
	}
	path := fmt.Sprintf("/api/v1/users/%s/%s", followingID, action)
	if err := r.do(ctx, op, http.MethodPost, path, nil, &data); err != nil {
		return false, err
	}
	return data.Following, nil
}
