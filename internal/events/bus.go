// Package events 提供领域事件的同步广播
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind 事件类型
type Kind string

const (
	VehicleEntered    Kind = "vehicle_entered"
	VehicleExited     Kind = "vehicle_exited"
	FineGenerated     Kind = "fine_generated"
	FinePaid          Kind = "fine_paid"
	PaymentProcessed  Kind = "payment_processed"
	SpotStatusChanged Kind = "spot_status_changed"
	SpotTypeChanged   Kind = "spot_type_changed"
)

// Event 领域事件
type Event struct {
	Kind    Kind      `json:"kind"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

type subscriber struct {
	name string
	fn   func(Event)
}

// Bus 事件总线
// 按注册顺序同步投递；单个订阅者 panic 不影响其他订阅者
// 发布方必须在状态变更提交之后再调用 Publish
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	logger *zap.Logger
}

// NewBus 创建事件总线
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe 注册订阅者，name 用于注销和日志
// 同名订阅者重复注册时替换原有回调，保持原有顺序
func (b *Bus) Subscribe(name string, fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.name == name {
			b.subs[i].fn = fn
			return
		}
	}
	b.subs = append(b.subs, subscriber{name: name, fn: fn})
}

// Unsubscribe 注销订阅者
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.name == name {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish 按注册顺序同步投递事件
func (b *Bus) Publish(kind Kind, payload any) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	event := Event{Kind: kind, Payload: payload, At: time.Now()}
	for _, s := range subs {
		b.deliver(s, event)
	}
}

// deliver 投递给单个订阅者，隔离 panic
func (b *Bus) deliver(s subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event subscriber panicked",
				zap.String("subscriber", s.name),
				zap.String("kind", string(event.Kind)),
				zap.Any("panic", r))
		}
	}()
	s.fn(event)
}

// SubscriberCount 当前订阅者数量
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
