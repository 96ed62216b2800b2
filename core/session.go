package core

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType 推给展示层的事件类型
type EventType string

const (
	EventGateChanged         EventType = "gate_changed"
	EventFeedUpdated         EventType = "feed_updated"
	EventRelationshipChanged EventType = "relationship_changed"
	EventError               EventType = "error"
)

// Event 核心状态变化通知（展示层订阅后按需重绘，不用轮询核心）
type Event struct {
	Type      EventType `json:"type"`
	Gate      GateState `json:"gate,omitempty"`
	Target    uuid.UUID `json:"target,omitempty"`    // 关系/错误事件涉及的对象
	Retryable bool      `json:"retryable,omitempty"` // 错误事件：意图是否仍有效、值得重试
	Err       error     `json:"-"`
}

// Session 单个用户的参与会话：闸门、关系图、投稿视图与乐观变更
// 引擎的聚合。生命周期绑定登录/登出，不依赖任何全局可变状态。
type Session struct {
	userID uuid.UUID
	remote Remote

	graph   *Graph
	votes   *VoteSet
	gate    *Gate
	feed    *Feed
	mutator *Mutator

	cycleMu sync.RWMutex
	cycle   *Cycle

	subMu sync.RWMutex
	subs  []func(Event)

	pollInterval time.Duration
	pollMu       sync.Mutex
	stopPoll     chan struct{}
}

func NewSession(userID uuid.UUID, remote Remote, pollInterval time.Duration) *Session {
	return &Session{
		userID:       userID,
		remote:       remote,
		graph:        NewGraph(),
		votes:        NewVoteSet(),
		gate:         NewGate(),
		feed:         NewFeed(),
		mutator:      NewMutator(),
		pollInterval: pollInterval,
	}
}

// Subscribe 注册状态变化回调
func (s *Session) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Session) notify(ev Event) {
	s.subMu.RLock()
	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// UserID 会话所属用户
func (s *Session) UserID() uuid.UUID {
	return s.userID
}

// GateState 当前闸门状态
func (s *Session) GateState() GateState {
	return s.gate.State()
}

// CurrentCycle 最近一次刷新看到的当期挑战（可能为 nil）
func (s *Session) CurrentCycle() *Cycle {
	s.cycleMu.RLock()
	defer s.cycleMu.RUnlock()
	return s.cycle
}

// StatusOf 当前用户与 other 的关系状态（永远从边推导）
func (s *Session) StatusOf(other uuid.UUID) RelationshipStatus {
	return s.graph.StatusOf(s.userID, other)
}

// HasVoted 当前用户是否已对该投稿投票
func (s *Session) HasVoted(submissionID uuid.UUID) bool {
	return s.votes.Has(submissionID)
}

// FeedView 按排序方式导出投稿视图（锁定期间恒为空）
func (s *Session) FeedView(order SortOrder) []FeedItem {
	if s.gate.State() != GateUnlocked {
		return []FeedItem{}
	}
	return s.feed.Snapshot(order)
}

// ---------- 刷新 ----------

// Refresh 一次刷新周期：先评估闸门，只有解锁后才拉取他人投稿。
// 锁定期间不碰投稿接口是产品层面的保密规则（先做再看），在取数
// 边界强制执行，而不是只藏个控件。
func (s *Session) Refresh(ctx context.Context) error {
	cycle, err := s.remote.CurrentCycle(ctx)
	if err != nil {
		// 获取失败：闸门保持原状，绝不悄悄翻到 Unlocked
		return s.reportFetchFailure("current_cycle", err)
	}

	var hasSubmitted bool
	if cycle != nil {
		hasSubmitted, err = s.remote.HasSubmitted(ctx, s.userID, cycle.ID)
		if err != nil {
			return s.reportFetchFailure("gate_status", err)
		}
	}

	prevCycle := s.CurrentCycle()
	prevState := s.gate.State()
	state := s.gate.Evaluate(cycle, hasSubmitted)

	s.cycleMu.Lock()
	s.cycle = cycle
	s.cycleMu.Unlock()

	// 换期：上一期的投稿和投票集合全部作废
	if cycle == nil || (prevCycle != nil && prevCycle.ID != cycle.ID) {
		s.feed.Clear()
		s.votes.Clear()
	}

	if state != prevState {
		s.notify(Event{Type: EventGateChanged, Gate: state})
	}

	if state == GateUnlocked {
		return s.refreshFeed(ctx, cycle.ID)
	}
	return nil
}

// refreshFeed 拉取投稿快照并合并，未决变更的目标不回写
func (s *Session) refreshFeed(ctx context.Context, cycleID uuid.UUID) error {
	items, err := s.remote.ListSubmissions(ctx, s.userID, cycleID)
	if err != nil {
		return s.reportFetchFailure("submissions", err)
	}

	dirty := func(id uuid.UUID) bool {
		return s.mutator.Dirty(voteKey(id)) || s.mutator.Dirty(commentKey(id))
	}
	s.feed.Merge(items, dirty)
	for _, item := range items {
		if !dirty(item.ID) {
			s.votes.Set(item.ID, item.ViewerHasVoted)
		}
	}

	s.notify(Event{Type: EventFeedUpdated, Gate: GateUnlocked})
	return nil
}

func (s *Session) reportFetchFailure(op string, err error) error {
	ferr := &TransientFetchError{Op: op, Err: err}
	s.notify(Event{Type: EventError, Err: ferr, Retryable: true})
	return ferr
}

// StartPolling 启动后台定时刷新
func (s *Session) StartPolling(ctx context.Context) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.stopPoll != nil {
		return
	}
	stop := make(chan struct{})
	s.stopPoll = stop

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					log.Printf("[ERROR] session refresh failed for user %s: %v", s.userID, err)
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// StopPolling 停止后台刷新（登出/销毁会话时调用）
func (s *Session) StopPolling() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if s.stopPoll != nil {
		close(s.stopPoll)
		s.stopPoll = nil
	}
}

// ---------- 用户操作 ----------

// Submit 提交当期活动。成功则闸门本地解锁并立刻拉取投稿；
// 失败保持锁定并上报（重复投稿等业务拒绝不重试）。
func (s *Session) Submit(ctx context.Context, description, photoURL string) error {
	cycle := s.CurrentCycle()
	if cycle == nil {
		return &MutationRejectedError{Op: "submit", Reason: "no active challenge cycle"}
	}

	if err := s.remote.SubmitActivity(ctx, s.userID, cycle.ID, description, photoURL); err != nil {
		cerr := classifyMutationErr("submit", err)
		var netErr *MutationNetworkError
		s.notify(Event{Type: EventError, Err: cerr, Retryable: errors.As(cerr, &netErr)})
		return cerr
	}

	if s.gate.Unlock(cycle.ID) {
		s.notify(Event{Type: EventGateChanged, Gate: GateUnlocked})
	}
	return s.refreshFeed(ctx, cycle.ID)
}

// ToggleVote 切换对某投稿的投票（乐观：计数立即 ±1，集合立即翻转）
func (s *Session) ToggleVote(ctx context.Context, submissionID uuid.UUID) error {
	mut := Mutation{
		Kind: "vote_toggle",
		Key:  voteKey(submissionID),
		Predict: func() (*Delta, error) {
			item, ok := s.feed.Get(submissionID)
			if !ok {
				return nil, &MutationRejectedError{Op: "vote_toggle", Reason: "submission not in feed"}
			}
			// 自己的投稿不能投：明确拒绝，不是悄悄吞掉
			if item.AuthorID == s.userID {
				return nil, &MutationRejectedError{Op: "vote_toggle", Reason: "cannot vote on your own submission"}
			}

			wasVoted := s.votes.Has(submissionID)
			delta := 1
			if wasVoted {
				delta = -1
			}
			return &Delta{
				Apply: func() {
					s.votes.Set(submissionID, !wasVoted)
					s.feed.AddVotes(submissionID, delta, !wasVoted)
					s.notify(Event{Type: EventFeedUpdated, Gate: s.gate.State()})
				},
				Invert: func() {
					s.votes.Set(submissionID, wasVoted)
					s.feed.AddVotes(submissionID, -delta, wasVoted)
					s.notify(Event{Type: EventFeedUpdated, Gate: s.gate.State()})
				},
			}, nil
		},
		Confirm: func(ctx context.Context) (func(), error) {
			res, err := s.remote.ToggleVote(ctx, s.userID, submissionID)
			if err != nil {
				return nil, err
			}
			return func() {
				// 服务端值胜过本地预测（别人可能同时在投票）
				s.votes.Set(submissionID, res.ViewerHasVoted)
				s.feed.SetVotes(submissionID, res.VoteCount, res.ViewerHasVoted)
				s.notify(Event{Type: EventFeedUpdated, Gate: s.gate.State()})
			}, nil
		},
	}
	return s.runMutation(ctx, mut, submissionID)
}

// PostComment 发表评论（乐观：评论数立即 +1）
func (s *Session) PostComment(ctx context.Context, submissionID uuid.UUID, comment string) error {
	mut := Mutation{
		Kind: "comment_post",
		Key:  commentKey(submissionID),
		Predict: func() (*Delta, error) {
			if _, ok := s.feed.Get(submissionID); !ok {
				return nil, &MutationRejectedError{Op: "comment_post", Reason: "submission not in feed"}
			}
			return &Delta{
				Apply: func() {
					s.feed.AddComments(submissionID, 1)
					s.notify(Event{Type: EventFeedUpdated, Gate: s.gate.State()})
				},
				Invert: func() {
					s.feed.AddComments(submissionID, -1)
					s.notify(Event{Type: EventFeedUpdated, Gate: s.gate.State()})
				},
			}, nil
		},
		Confirm: func(ctx context.Context) (func(), error) {
			count, err := s.remote.PostComment(ctx, s.userID, submissionID, comment)
			if err != nil {
				return nil, err
			}
			return func() {
				s.feed.SetComments(submissionID, count)
				s.notify(Event{Type: EventFeedUpdated, Gate: s.gate.State()})
			}, nil
		},
	}
	return s.runMutation(ctx, mut, submissionID)
}

// Follow 关注 target（乐观：边立即插入）
func (s *Session) Follow(ctx context.Context, target uuid.UUID) error {
	return s.setFollow(ctx, target, true)
}

// Unfollow 取关 target（乐观：边立即删除）
func (s *Session) Unfollow(ctx context.Context, target uuid.UUID) error {
	return s.setFollow(ctx, target, false)
}

func (s *Session) setFollow(ctx context.Context, target uuid.UUID, follow bool) error {
	kind := "follow"
	if !follow {
		kind = "unfollow"
	}
	mut := Mutation{
		Kind: kind,
		Key:  edgeDirtyKey(s.userID, target),
		Predict: func() (*Delta, error) {
			if target == s.userID {
				return nil, &MutationRejectedError{Op: kind, Reason: "cannot follow yourself"}
			}
			existed := s.graph.EdgeExists(s.userID, target)
			return &Delta{
				Apply: func() {
					s.graph.SetEdge(s.userID, target, follow)
					s.notify(Event{Type: EventRelationshipChanged, Target: target})
				},
				Invert: func() {
					s.graph.SetEdge(s.userID, target, existed)
					s.notify(Event{Type: EventRelationshipChanged, Target: target})
				},
			}, nil
		},
		Confirm: func(ctx context.Context) (func(), error) {
			exists, err := s.remote.SetFollow(ctx, s.userID, target, follow)
			if err != nil {
				return nil, err
			}
			return func() {
				s.graph.SetEdge(s.userID, target, exists)
				s.notify(Event{Type: EventRelationshipChanged, Target: target})
			}, nil
		},
	}
	return s.runMutation(ctx, mut, target)
}

// RefreshRelation 用服务端权威快照刷新与 other 的双向边。
// 自己发出方向上有未决变更时跳过，等它落定再收敛。
func (s *Session) RefreshRelation(ctx context.Context, other uuid.UUID) error {
	snap, err := s.remote.CheckRelation(ctx, s.userID, other)
	if err != nil {
		return s.reportFetchFailure("relation", err)
	}
	if !s.mutator.Dirty(edgeDirtyKey(s.userID, other)) {
		s.graph.SetEdge(s.userID, other, snap.SelfFollowsOther)
	}
	s.graph.SetEdge(other, s.userID, snap.OtherFollowsSelf)
	s.notify(Event{Type: EventRelationshipChanged, Target: other})
	return nil
}

// runMutation 执行并上报一次乐观变更。迟到的响应（用户已离开界面）
// 照常落到内存模型里，订阅者自行决定是否还要渲染。
func (s *Session) runMutation(ctx context.Context, mut Mutation, target uuid.UUID) error {
	err := s.mutator.Run(ctx, mut)
	if err != nil {
		var netErr *MutationNetworkError
		s.notify(Event{
			Type:      EventError,
			Target:    target,
			Err:       err,
			Retryable: errors.As(err, &netErr),
		})
	}
	return err
}

// ---------- 目标键 ----------

func voteKey(submissionID uuid.UUID) string {
	return "vote:" + submissionID.String()
}

func commentKey(submissionID uuid.UUID) string {
	return "comments:" + submissionID.String()
}

func edgeDirtyKey(from, to uuid.UUID) string {
	return "edge:" + from.String() + ">" + to.String()
}
