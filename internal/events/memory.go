package events

import (
	"context"
	"sync"

	xerrors "OxyGent-Console/internal/errors"
)

// MemoryBus 使用 channel 模拟事件总线，是默认驱动。
type MemoryBus struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

// NewMemoryBus 创建一个内存事件总线。
func NewMemoryBus(size int) *MemoryBus {
	if size <= 0 {
		size = 64
	}
	return &MemoryBus{ch: make(chan Event, size)}
}

// Publish 将事件投递到总线。缓冲区已满时立即返回 EVENT_FAILURE 并丢弃事件，不等待消费者。
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return xerrors.New(xerrors.CodeEventFailure, "事件总线已关闭")
	}
	select {
	case b.ch <- event:
		return nil
	default:
		return xerrors.New(xerrors.CodeEventFailure, "事件缓冲区已满",
			xerrors.WithMetadata("kind", event.Kind),
			xerrors.WithMetadata("action", string(event.Action)))
	}
}

// Consume 启动指定数量的工作协程消费事件，直到上下文取消或总线关闭。
func (b *MemoryBus) Consume(ctx context.Context, workerCount int, handler Handler) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-b.ch:
					if !ok {
						return
					}
					_ = handler(ctx, event)
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

// Close 关闭内存总线，已缓冲的事件仍会被消费完。
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		close(b.ch)
		b.closed = true
	}
	return nil
}

// Discard 丢弃所有事件，对应 driver=none。
type Discard struct{}

// Publish 实现 Publisher。
func (Discard) Publish(context.Context, Event) error { return nil }

// Consume 阻塞直到上下文取消。
func (Discard) Consume(ctx context.Context, _ int, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

// Close 实现 Publisher。
func (Discard) Close() error { return nil }

var (
	_ Bus = (*MemoryBus)(nil)
	_ Bus = Discard{}
)
