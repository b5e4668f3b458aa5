package view

import (
	"context"
	"errors"
	"sync"
)

// Phase 控制器所处阶段
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailed  Phase = "failed"
)

var (
	// ErrBusy 同一控制器已有调用在进行中
	ErrBusy = errors.New("view is busy")
	// ErrDiscarded 结果到达时控制器已不再是它的使用者
	ErrDiscarded = errors.New("result discarded")
)

// Snapshot 渲染用的只读状态
type Snapshot struct {
	Phase Phase
	Err   error
}

// Runner 每个控制器共用的 Idle → Loading → Success/Failed 状态机
//
// 每次运行分配一个代数和可取消的 context；Deactivate 会取消当前运行并推进代数，
// 旧代数的结果到达后被丢弃，不会修改控制器状态。
type Runner struct {
	mu     sync.Mutex
	phase  Phase
	err    error
	gen    uint64
	cancel context.CancelFunc
}

func (r *Runner) begin(parent context.Context) (context.Context, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseLoading {
		return nil, 0, ErrBusy
	}
	r.gen++
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.phase = PhaseLoading
	r.err = nil
	return ctx, r.gen, nil
}

// finish 结束一次运行；只有当前代数的结果才会执行 apply
func (r *Runner) finish(gen uint64, err error, apply func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen {
		return ErrDiscarded
	}
	if err == nil && apply != nil {
		err = apply()
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if err != nil {
		r.phase = PhaseFailed
		r.err = err
		return err
	}
	r.phase = PhaseSuccess
	return nil
}

// reject 记录一次本地校验失败，不发起调用
func (r *Runner) reject(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseLoading {
		return ErrBusy
	}
	r.phase = PhaseFailed
	r.err = err
	return err
}

// Deactivate 放弃进行中的调用，之后到达的结果会被丢弃
func (r *Runner) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	if r.phase == PhaseLoading {
		r.phase = PhaseIdle
	}
}

// Dismiss 清除失败信息，回到 Idle
func (r *Runner) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseFailed {
		r.phase = PhaseIdle
		r.err = nil
	}
}

// Snapshot 返回当前阶段和错误
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	phase := r.phase
	if phase == "" {
		phase = PhaseIdle
	}
	return Snapshot{Phase: phase, Err: r.err}
}
