package core

import (
	"context"
	"errors"
	"sync"
)

// Delta 预测出的本地状态增量。Apply 和 Invert 必须互为精确逆：
// Apply 后紧跟 Invert 要把状态逐位还原（票数用逆运算恢复，
// 不是重读可能已变化的服务端值）。
type Delta struct {
	Apply  func()
	Invert func()
}

// Mutation 一次乐观变更
type Mutation struct {
	Kind string // 变更种类（vote_toggle / follow / unfollow / comment_post）
	Key  string // 目标键：同一键上的变更串行执行

	// Predict 纯预测，产出立即套用的增量；业务拒绝（如自投）在这里
	// 返回 *MutationRejectedError，任何状态都不会被改动
	Predict func() (*Delta, error)

	// Confirm 发出权威请求；成功时返回"以服务端返回值覆盖本地预测"
	// 的收敛函数（服务端值胜过本地预测），失败时返回错误
	Confirm func(ctx context.Context) (func(), error)
}

// Mutator 乐观变更引擎：立即套用预测增量，权威确认后收敛，
// 失败则精确回滚。
//
// 关键不变量：每个目标键上至多一个未决增量。同键的新变更排队等待
// 前一个落定（确认或回滚）之后才做自己的预测，增量之间永远不会以
// 非交换的方式叠加。
type Mutator struct {
	mu       sync.Mutex
	inFlight map[string]chan struct{}
}

func NewMutator() *Mutator {
	return &Mutator{inFlight: make(map[string]chan struct{})}
}

// Dirty 目标键上是否有未决变更（刷新合并时跳过脏键）
func (m *Mutator) Dirty(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inFlight[key]
	return ok
}

// acquire 占住目标键；若已有未决变更则等它落定
func (m *Mutator) acquire(ctx context.Context, key string) error {
	for {
		m.mu.Lock()
		prev, busy := m.inFlight[key]
		if !busy {
			m.inFlight[key] = make(chan struct{})
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		select {
		case <-prev:
			// 上一个变更已落定，重新尝试占键
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// release 释放目标键并唤醒排队者
func (m *Mutator) release(key string) {
	m.mu.Lock()
	done := m.inFlight[key]
	delete(m.inFlight, key)
	m.mu.Unlock()
	if done != nil {
		close(done)
	}
}

// Run 执行一次乐观变更：同键排队 -> 预测并立即套用 -> 权威确认
// -> 成功收敛 / 失败精确回滚。
//
// 返回的错误已经是分类后的类型（MutationRejectedError 或
// MutationNetworkError），状态保证一致。
func (m *Mutator) Run(ctx context.Context, mut Mutation) error {
	if err := m.acquire(ctx, mut.Key); err != nil {
		return &MutationNetworkError{Op: mut.Kind, Err: err}
	}
	defer m.release(mut.Key)

	delta, err := mut.Predict()
	if err != nil {
		// 预测阶段拒绝：未套用任何增量，原样上抛
		return err
	}

	delta.Apply()

	reconcile, err := mut.Confirm(ctx)
	if err != nil {
		delta.Invert()
		return classifyMutationErr(mut.Kind, err)
	}

	if reconcile != nil {
		reconcile()
	}
	return nil
}

// classifyMutationErr 把 Confirm 的错误归入错误分类
func classifyMutationErr(op string, err error) error {
	var rej *MutationRejectedError
	if errors.As(err, &rej) {
		return rej
	}
	return &MutationNetworkError{Op: op, Err: err}
}
