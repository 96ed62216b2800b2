package core

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FeedItem 单条投稿的视图模型
type FeedItem struct {
	ID             uuid.UUID `json:"id"`
	AuthorID       uuid.UUID `json:"author_id"`
	CreatedAt      time.Time `json:"created_at"`
	VoteCount      int       `json:"vote_count"`
	CommentCount   int       `json:"comment_count"`
	ViewerHasVoted bool      `json:"viewer_has_voted"`
}

// SortOrder 投稿排序方式
type SortOrder string

const (
	SortRecent   SortOrder = "recent"   // 最新优先
	SortPopular  SortOrder = "popular"  // 票数优先
	SortComments SortOrder = "comments" // 评论数优先
)

// ParseSortOrder 解析排序参数（"top" 是 "popular" 的别名，未知值回落到 recent）
func ParseSortOrder(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "popular", "top":
		return SortPopular
	case "comments":
		return SortComments
	default:
		return SortRecent
	}
}

// SortItems 纯排序变换：不改动入参，重复调用结果一致
//
// 平局规则（保证确定性）：
//   - recent:   创建时间降序，再按 id 升序
//   - popular:  票数降序，再评论数降序，再创建时间降序，再 id 升序
//   - comments: 评论数降序，再票数降序，再创建时间降序，再 id 升序
func SortItems(items []FeedItem, order SortOrder) []FeedItem {
	sorted := make([]FeedItem, len(items))
	copy(sorted, items)

	byRecency := func(a, b *FeedItem) int {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.After(b.CreatedAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		switch order {
		case SortPopular:
			if a.VoteCount != b.VoteCount {
				return a.VoteCount > b.VoteCount
			}
			if a.CommentCount != b.CommentCount {
				return a.CommentCount > b.CommentCount
			}
		case SortComments:
			if a.CommentCount != b.CommentCount {
				return a.CommentCount > b.CommentCount
			}
			if a.VoteCount != b.VoteCount {
				return a.VoteCount > b.VoteCount
			}
		}
		return byRecency(a, b) < 0
	})
	return sorted
}

// Feed 解锁后持有的投稿集合（共享可变状态，按 id 寻址）
type Feed struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*FeedItem
}

func NewFeed() *Feed {
	return &Feed{items: make(map[uuid.UUID]*FeedItem)}
}

// Get 读取一条投稿的当前快照
func (f *Feed) Get(id uuid.UUID) (FeedItem, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	item, ok := f.items[id]
	if !ok {
		return FeedItem{}, false
	}
	return *item, true
}

// Len 当前持有的投稿数
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// Merge 用服务端快照覆盖本地集合，skip 返回 true 的目标保留本地值
//
// 这是刷新与未决乐观变更并发时的合并规则：脏目标不回写，
// 等它的变更落定后由权威响应收敛。
func (f *Feed) Merge(snapshot []FeedItem, skip func(uuid.UUID) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[uuid.UUID]*FeedItem, len(snapshot))
	for i := range snapshot {
		item := snapshot[i]
		if skip != nil && skip(item.ID) {
			if local, ok := f.items[item.ID]; ok {
				next[item.ID] = local
				continue
			}
		}
		next[item.ID] = &item
	}
	// 脏目标即使没出现在快照里也保留，避免未决变更丢失宿主
	for id, local := range f.items {
		if _, ok := next[id]; !ok && skip != nil && skip(id) {
			next[id] = local
		}
	}
	f.items = next
}

// Snapshot 按排序方式导出投稿序列（副本，读者可随意持有）
func (f *Feed) Snapshot(order SortOrder) []FeedItem {
	f.mu.RLock()
	items := make([]FeedItem, 0, len(f.items))
	for _, item := range f.items {
		items = append(items, *item)
	}
	f.mu.RUnlock()
	return SortItems(items, order)
}

// AddVotes 套用一次投票增量（±1）并更新本人投票标记
func (f *Feed) AddVotes(id uuid.UUID, delta int, viewerHasVoted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		item.VoteCount += delta
		item.ViewerHasVoted = viewerHasVoted
	}
}

// SetVotes 按服务端权威值覆盖票数与本人投票标记
func (f *Feed) SetVotes(id uuid.UUID, count int, viewerHasVoted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		item.VoteCount = count
		item.ViewerHasVoted = viewerHasVoted
	}
}

// AddComments 套用一次评论数增量
func (f *Feed) AddComments(id uuid.UUID, delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		item.CommentCount += delta
	}
}

// SetComments 按服务端权威值覆盖评论数
func (f *Feed) SetComments(id uuid.UUID, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		item.CommentCount = count
	}
}

// Clear 清空（换期或降级到锁定时调用）
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = make(map[uuid.UUID]*FeedItem)
}
