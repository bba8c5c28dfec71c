package registry

import (
	"context"
	"sync"
)

// MemoryStore 以内存方式保存记录，是默认存储。
type MemoryStore[T Resource[T]] struct {
	mu      sync.RWMutex
	records map[string]T
	names   map[string]string
	order   []string
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore[T Resource[T]]() *MemoryStore[T] {
	return &MemoryStore[T]{
		records: make(map[string]T),
		names:   make(map[string]string),
	}
}

// Insert 实现 Store 接口，名称检查与写入在同一把锁内完成。
func (m *MemoryStore[T]) Insert(_ context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.names[rec.ResourceName()]; ok {
		return ErrConflict
	}
	if _, ok := m.records[rec.ResourceID()]; ok {
		return ErrConflict
	}
	m.records[rec.ResourceID()] = rec.Clone()
	m.names[rec.ResourceName()] = rec.ResourceID()
	m.order = append(m.order, rec.ResourceID())
	return nil
}

// Get 返回记录副本。
func (m *MemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return rec.Clone(), nil
}

// FindByName 按名称查找记录。
func (m *MemoryStore[T]) FindByName(_ context.Context, name string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.names[name]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return m.records[id].Clone(), nil
}

// Replace 覆盖已有记录。更新时不检查重名，名称索引指向最近一次写入的记录。
func (m *MemoryStore[T]) Replace(_ context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.records[rec.ResourceID()]
	if !ok {
		return ErrNotFound
	}
	m.records[rec.ResourceID()] = rec.Clone()
	if prev.ResourceName() != rec.ResourceName() {
		if m.names[prev.ResourceName()] == prev.ResourceID() {
			m.reindex(prev.ResourceName())
		}
		m.names[rec.ResourceName()] = rec.ResourceID()
	}
	return nil
}

// Delete 删除记录。
func (m *MemoryStore[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	if m.names[rec.ResourceName()] == id {
		m.reindex(rec.ResourceName())
	}
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// reindex 让名称索引指向仍使用该名称的最早记录；没有则删除索引。
// 重名只可能由更新引入。
func (m *MemoryStore[T]) reindex(name string) {
	delete(m.names, name)
	for _, id := range m.order {
		if rec, ok := m.records[id]; ok && rec.ResourceName() == name {
			m.names[name] = id
			return
		}
	}
}

// List 按插入顺序返回所有记录。
func (m *MemoryStore[T]) List(_ context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id].Clone())
	}
	return out, nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore[T]) Close() error {
	return nil
}
