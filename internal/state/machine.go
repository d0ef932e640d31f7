package state

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/langchou/parklot/internal/fault"
)

// 票据状态常量
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// 事件常量
const (
	EventClose = "close"
)

// Session 票据生命周期状态机
// Open -> Closed 为唯一合法转换，Closed 为终态
type Session struct {
	fsm *fsm.FSM
}

// NewSession 以当前状态构造状态机
func NewSession(current string) *Session {
	return &Session{
		fsm: fsm.NewFSM(
			current,
			fsm.Events{
				{Name: EventClose, Src: []string{StateOpen}, Dst: StateClosed},
			},
			fsm.Callbacks{},
		),
	}
}

// ForTicket 根据票据是否已关闭构造状态机
func ForTicket(closed bool) *Session {
	if closed {
		return NewSession(StateClosed)
	}
	return NewSession(StateOpen)
}

// Current 当前状态
func (s *Session) Current() string {
	return s.fsm.Current()
}

// Close 触发关票转换
// 已关闭的票据再次关闭是硬错误，用于暴露重复结算缺陷
func (s *Session) Close(ctx context.Context) error {
	if err := s.fsm.Event(ctx, EventClose); err != nil {
		return fault.Wrap(fault.KindConflict, err, "ticket already closed")
	}
	return nil
}

// CanClose 检查是否允许关票
func (s *Session) CanClose() bool {
	return s.fsm.Can(EventClose)
}
