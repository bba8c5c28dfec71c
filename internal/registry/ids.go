package registry

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Sequence 是进程内单调递增的计数器，删除后不复用。
type Sequence struct {
	last atomic.Int64
}

// NewSequence 创建从 1 开始计数的 Sequence。
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next 实现 IDGenerator。
func (s *Sequence) Next(context.Context) (string, error) {
	return strconv.FormatInt(s.last.Add(1), 10), nil
}

// UUIDs 生成随机 UUID 作为标识符。
type UUIDs struct{}

// Next 实现 IDGenerator。
func (UUIDs) Next(context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ IDGenerator = (*Sequence)(nil)
	_ IDGenerator = UUIDs{}
)
