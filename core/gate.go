package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cycle 当期全局挑战的只读快照
type Cycle struct {
	ID            uuid.UUID `json:"id"`
	Prompt        string    `json:"prompt"`
	StartedAt     time.Time `json:"started_at"`
	WindowSeconds int       `json:"window_seconds"`
}

// GateState 全局动态对当前用户是否可见
type GateState string

const (
	GateNoCycle  GateState = "none"     // 尚未获取到当期挑战
	GateLocked   GateState = "locked"   // 未投稿，动态隐藏（先做再看）
	GateUnlocked GateState = "unlocked" // 已投稿，动态可见
)

// Gate 按（用户, 挑战周期）决定动态是否公开的状态机
//
// 除了最近一期的周期 id（用于识别换期），不保留任何历史。
// 同一期内 Unlocked 永不回退；换期一律重置。
type Gate struct {
	mu          sync.Mutex
	lastCycleID uuid.UUID
	state       GateState
}

func NewGate() *Gate {
	return &Gate{state: GateNoCycle}
}

// State 当前闸门状态
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Evaluate 根据当期挑战与是否已投稿计算闸门状态
//
// cycle 为 nil 表示服务端明确告知当前没有挑战（获取失败时调用方
// 不应调用 Evaluate，闸门保持原状）。
func (g *Gate) Evaluate(cycle *Cycle, hasSubmitted bool) GateState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cycle == nil {
		g.lastCycleID = uuid.Nil
		g.state = GateNoCycle
		return g.state
	}

	if cycle.ID != g.lastCycleID {
		// 换期：一律重置（新期已有投稿则直接解锁，覆盖周期内重启的场景）
		g.lastCycleID = cycle.ID
		if hasSubmitted {
			g.state = GateUnlocked
		} else {
			g.state = GateLocked
		}
		return g.state
	}

	// 同一期内只升不降
	if hasSubmitted && g.state != GateUnlocked {
		g.state = GateUnlocked
	}
	return g.state
}

// Unlock 投稿确认成功后的本地解锁（仅对当期生效）
func (g *Gate) Unlock(cycleID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cycleID != g.lastCycleID {
		return false
	}
	g.state = GateUnlocked
	return true
}
