package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"actify_engage/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	code := 0
	if status != http.StatusOK {
		code = status
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

// 测试当期挑战解析：有挑战、无挑战两种形态
func TestHTTPRemoteCurrentCycle(t *testing.T) {
	cycleID := uuid.New()
	hasChallenge := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/global-challenges/current", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		if hasChallenge {
			writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{
				"challenge": map[string]interface{}{
					"id":             cycleID,
					"prompt":         "Take a photo of your workout today",
					"started_at":     time.Now().UTC(),
					"window_seconds": 86400,
				},
			})
			return
		}
		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{"challenge": nil})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "test-token")
	cycle, err := remote.CurrentCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cycle)
	assert.Equal(t, cycleID, cycle.ID)
	assert.Equal(t, 86400, cycle.WindowSeconds)

	hasChallenge = false
	cycle, err = remote.CurrentCycle(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cycle, "没有当期挑战时返回 (nil, nil)")
}

// 测试业务拒绝映射：4xx 转成 *core.MutationRejectedError
func TestHTTPRemoteRejectionMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, "cannot vote on your own submission", nil)
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "test-token")
	_, err := remote.ToggleVote(context.Background(), uuid.New(), uuid.New())

	var rej *core.MutationRejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "toggle_vote", rej.Op)
	assert.Equal(t, "cannot vote on your own submission", rej.Reason)
}

// 测试服务端故障不被当成业务拒绝
func TestHTTPRemoteServerErrorNotRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, "database down", nil)
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "test-token")
	_, err := remote.ToggleVote(context.Background(), uuid.New(), uuid.New())

	require.Error(t, err)
	var rej *core.MutationRejectedError
	assert.False(t, errors.As(err, &rej), "500 不是业务拒绝")
}

// 测试投稿快照映射到视图模型
func TestHTTPRemoteListSubmissions(t *testing.T) {
	subID := uuid.New()
	authorID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/global-feed", r.URL.Path)
		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{
			"status":             "unlocked",
			"user_has_submitted": true,
			"submissions": []map[string]interface{}{
				{
					"id":               subID,
					"user_id":          authorID,
					"created_at":       time.Now().UTC(),
					"vote_count":       3,
					"comment_count":    1,
					"viewer_has_voted": true,
				},
			},
		})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "test-token")
	items, err := remote.ListSubmissions(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, subID, items[0].ID)
	assert.Equal(t, authorID, items[0].AuthorID)
	assert.Equal(t, 3, items[0].VoteCount)
	assert.True(t, items[0].ViewerHasVoted)
}

// 测试关注方向与权威返回值
func TestHTTPRemoteSetFollow(t *testing.T) {
	targetID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/"+targetID.String()+"/unfollow", r.URL.Path)
		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{"following": false})
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL, "test-token")
	following, err := remote.SetFollow(context.Background(), uuid.New(), targetID, false)
	require.NoError(t, err)
	assert.False(t, following)
}
