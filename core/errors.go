package core

import "fmt"

// 错误分类：三类都在核心内部就地恢复（状态保持一致），
// 只作为事件上抛，绝不以未处理故障的形式污染共享状态。

// TransientFetchError 读取失败（网络/服务端错误），原状态保留，可手动重试
type TransientFetchError struct {
	Op  string
	Err error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch failure on %s: %v", e.Op, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// MutationRejectedError 服务端（或预测阶段）出于业务原因拒绝变更，
// 乐观增量已回滚，不自动重试
type MutationRejectedError struct {
	Op     string
	Reason string
}

func (e *MutationRejectedError) Error() string {
	return fmt.Sprintf("mutation %s rejected: %s", e.Op, e.Reason)
}

// MutationNetworkError 变更请求没能完成，回滚方式与拒绝相同，
// 但意图仍然有效，调用方可以提供重试入口
type MutationNetworkError struct {
	Op  string
	Err error
}

func (e *MutationNetworkError) Error() string {
	return fmt.Sprintf("mutation %s failed: %v", e.Op, e.Err)
}

func (e *MutationNetworkError) Unwrap() error { return e.Err }
