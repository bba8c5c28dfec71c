package registry

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"
	"sync"

	xerrors "OxyGent-Console/internal/errors"
	"OxyGent-Console/internal/events"
	"OxyGent-Console/pkg/logger"
)

// Option 调整 Registry 的依赖。
type Option func(*options)

type options struct {
	ids       IDGenerator
	publisher events.Publisher
}

// WithIDGenerator 替换默认的进程内序列。
func WithIDGenerator(ids IDGenerator) Option {
	return func(o *options) {
		if ids != nil {
			o.ids = ids
		}
	}
}

// WithPublisher 在资源变更后投递生命周期事件。
func WithPublisher(publisher events.Publisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}

// Registry 是某一资源类型的注册表：负责 ID 分配、名称唯一性、合并更新与事件投递。
type Registry[T Resource[T], C any, U any] struct {
	kind      Kind[T, C, U]
	store     Store[T]
	ids       IDGenerator
	publisher events.Publisher
	log       *slog.Logger

	// mu 串行化读-改-写操作，避免并发更新丢失。
	mu sync.Mutex
}

// New 构造注册表。store 为空时使用内存存储。
func New[T Resource[T], C any, U any](kind Kind[T, C, U], store Store[T], opts ...Option) *Registry[T, C, U] {
	o := options{ids: NewSequence()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if store == nil {
		store = NewMemoryStore[T]()
	}
	return &Registry[T, C, U]{
		kind:      kind,
		store:     store,
		ids:       o.ids,
		publisher: o.publisher,
		log:       logger.Named("registry." + kind.Key),
	}
}

// Kind 返回资源显示名称。
func (r *Registry[T, C, U]) Kind() string {
	return r.kind.Name
}

// List 返回所有记录，按插入顺序排列。
func (r *Registry[T, C, U]) List(ctx context.Context) ([]T, error) {
	recs, err := r.store.List(ctx)
	if err != nil {
		return nil, r.storageError(err, "查询资源列表失败")
	}
	return recs, nil
}

// Count 返回记录数量。
func (r *Registry[T, C, U]) Count(ctx context.Context) (int, error) {
	return r.CountWhere(ctx, nil)
}

// CountWhere 返回满足条件的记录数量，pred 为空时统计全部。
func (r *Registry[T, C, U]) CountWhere(ctx context.Context, pred func(T) bool) (int, error) {
	recs, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	if pred == nil {
		return len(recs), nil
	}
	n := 0
	for _, rec := range recs {
		if pred(rec) {
			n++
		}
	}
	return n, nil
}

// Create 校验请求并登记新记录。
func (r *Registry[T, C, U]) Create(ctx context.Context, in C) (T, error) {
	var zero T
	name := r.kind.NameOf(in)
	if strings.TrimSpace(name) == "" {
		return zero, Validation("%s name is required", r.kind.Name)
	}
	// 重名检查先于字段校验，冲突时不消耗 ID；最终以存储层的原子检查为准。
	if _, err := r.store.FindByName(ctx, name); err == nil {
		return zero, Conflict(r.kind.Name, name)
	} else if !stdErrors.Is(err, ErrNotFound) {
		return zero, r.storageError(err, "检查资源名称失败")
	}
	if r.kind.Validate != nil {
		if err := r.kind.Validate(in); err != nil {
			return zero, err
		}
	}

	id, err := r.ids.Next(ctx)
	if err != nil {
		return zero, r.storageError(err, "分配资源 ID 失败")
	}
	rec := r.kind.Build(id, in)
	if err := r.store.Insert(ctx, rec); err != nil {
		if stdErrors.Is(err, ErrConflict) {
			return zero, Conflict(r.kind.Name, name)
		}
		return zero, r.storageError(err, "写入资源失败")
	}

	r.log.Info("资源已创建", slog.String("id", id), slog.String("name", name))
	r.emit(ctx, events.ActionCreated, rec)
	return rec.Clone(), nil
}

// Get 返回指定 ID 的记录。
func (r *Registry[T, C, U]) Get(ctx context.Context, id string) (T, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, r.lookupError(err, id)
	}
	return rec, nil
}

// FindByName 按名称查找记录。
func (r *Registry[T, C, U]) FindByName(ctx context.Context, name string) (T, error) {
	rec, err := r.store.FindByName(ctx, name)
	if err != nil {
		var zero T
		if stdErrors.Is(err, ErrNotFound) {
			return zero, xerrors.Newf(xerrors.CodeNotFound, "%s with name '%s' not found", r.kind.Name, name)
		}
		return zero, r.storageError(err, "按名称查询资源失败")
	}
	return rec, nil
}

// Update 将更新请求中非空的字段合并进记录，其他字段保持不变。
//
// 更新路径不重新检查名称唯一性。
func (r *Registry[T, C, U]) Update(ctx context.Context, id string, patch U) (T, error) {
	rec, err := r.mutate(ctx, id, func(rec *T) error {
		r.kind.Patch(rec, patch)
		return nil
	})
	if err != nil {
		return rec, err
	}
	r.emit(ctx, events.ActionUpdated, rec)
	return rec, nil
}

// Mutate 在注册表锁内执行读-改-写，fn 返回错误时不写回。
// action 非空时在成功后投递对应事件。
func (r *Registry[T, C, U]) Mutate(ctx context.Context, id string, action events.Action, fn func(rec *T) error) (T, error) {
	rec, err := r.mutate(ctx, id, fn)
	if err != nil {
		return rec, err
	}
	if action != "" {
		r.emit(ctx, action, rec)
	}
	return rec, nil
}

func (r *Registry[T, C, U]) mutate(ctx context.Context, id string, fn func(rec *T) error) (T, error) {
	var zero T
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return zero, r.lookupError(err, id)
	}
	if err := fn(&rec); err != nil {
		return zero, err
	}
	if err := r.store.Replace(ctx, rec); err != nil {
		return zero, r.lookupError(err, id)
	}
	return rec.Clone(), nil
}

// Delete 删除记录。事件在释放锁之后投递。
func (r *Registry[T, C, U]) Delete(ctx context.Context, id string) error {
	rec, err := r.remove(ctx, id)
	if err != nil {
		return err
	}
	r.log.Info("资源已删除", slog.String("id", id), slog.String("name", rec.ResourceName()))
	r.emit(ctx, events.ActionDeleted, rec)
	return nil
}

func (r *Registry[T, C, U]) remove(ctx context.Context, id string) (T, error) {
	var zero T
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return zero, r.lookupError(err, id)
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return zero, r.lookupError(err, id)
	}
	return rec, nil
}

// Close 释放底层存储。
func (r *Registry[T, C, U]) Close() error {
	return r.store.Close()
}

// Emit 投递自定义的生命周期事件，例如 started、stopped。
func (r *Registry[T, C, U]) Emit(ctx context.Context, action events.Action, rec T) {
	r.emit(ctx, action, rec)
}

func (r *Registry[T, C, U]) emit(ctx context.Context, action events.Action, rec T) {
	events.PublishQuietly(ctx, r.publisher, events.New(r.kind.Key, action, rec.ResourceID(), rec.ResourceName()))
}

func (r *Registry[T, C, U]) lookupError(err error, id string) error {
	if stdErrors.Is(err, ErrNotFound) {
		return NotFound(r.kind.Name, id)
	}
	return r.storageError(err, "查询资源失败")
}

func (r *Registry[T, C, U]) storageError(err error, message string) error {
	if _, ok := xerrors.From(err); ok {
		return err
	}
	return xerrors.Wrap(xerrors.CodeStorageFailure, err, message, xerrors.WithMetadata("kind", r.kind.Key))
}
