package registry

import "context"

// Store 抽象了单一资源类型的持久化接口。
//
// Insert 必须原子地检查名称唯一性并写入，名称冲突时返回 ErrConflict；
// Get、Replace、Delete 在记录不存在时返回 ErrNotFound。List 按插入顺序返回。
type Store[T Resource[T]] interface {
	Insert(ctx context.Context, rec T) error
	Get(ctx context.Context, id string) (T, error)
	FindByName(ctx context.Context, name string) (T, error)
	Replace(ctx context.Context, rec T) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]T, error)
	Close() error
}

// IDGenerator 为新记录分配标识符。
type IDGenerator interface {
	Next(ctx context.Context) (string, error)
}
