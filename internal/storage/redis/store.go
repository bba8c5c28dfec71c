package redis

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	xerrors "OxyGent-Console/internal/errors"
	"OxyGent-Console/internal/registry"
)

// insertScript 原子地检查 ID 与名称并写入记录。返回 1 表示成功，0 表示 ID 已存在，-1 表示名称已被占用。
var insertScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then return 0 end
if redis.call('HSETNX', KEYS[2], ARGV[2], ARGV[1]) == 0 then return -1 end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
redis.call('RPUSH', KEYS[3], ARGV[1])
return 1
`)

// replaceScript 覆盖记录并在改名时迁移名称索引。返回 0 表示记录不存在。
var replaceScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then return 0 end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
if ARGV[3] ~= ARGV[4] then
  if redis.call('HGET', KEYS[2], ARGV[3]) == ARGV[1] then redis.call('HDEL', KEYS[2], ARGV[3]) end
  redis.call('HSET', KEYS[2], ARGV[4], ARGV[1])
end
return 1
`)

// deleteScript 删除记录、顺序列表中的 ID，以及仍指向该记录的名称索引。
var deleteScript = redis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then return 0 end
redis.call('LREM', KEYS[3], 0, ARGV[1])
if redis.call('HGET', KEYS[2], ARGV[2]) == ARGV[1] then redis.call('HDEL', KEYS[2], ARGV[2]) end
return 1
`)

// Store 把某一资源类型保存在 Redis 中。客户端由调用方关闭。
type Store[T registry.Resource[T]] struct {
	client redis.UniversalClient
	keys   keys
	kind   string
}

// NewStore 创建指定资源类型的 Store。
func NewStore[T registry.Resource[T]](client redis.UniversalClient, prefix, kind string) *Store[T] {
	return &Store[T]{client: client, keys: keysFor(prefix, kind), kind: kind}
}

// Insert 实现 registry.Store。
func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "序列化资源失败")
	}
	res, err := insertScript.Run(ctx, s.client,
		[]string{s.keys.records, s.keys.names, s.keys.order},
		rec.ResourceID(), rec.ResourceName(), body).Int()
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入资源失败")
	}
	if res != 1 {
		return registry.ErrConflict
	}
	return nil
}

// Get 实现 registry.Store。
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	raw, err := s.client.HGet(ctx, s.keys.records, id).Bytes()
	if err != nil {
		if stdErrors.Is(err, redis.Nil) {
			return zero, registry.ErrNotFound
		}
		return zero, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询资源失败")
	}
	return s.decode(raw)
}

// FindByName 实现 registry.Store。
func (s *Store[T]) FindByName(ctx context.Context, name string) (T, error) {
	var zero T
	id, err := s.client.HGet(ctx, s.keys.names, name).Result()
	if err != nil {
		if stdErrors.Is(err, redis.Nil) {
			return zero, registry.ErrNotFound
		}
		return zero, xerrors.Wrap(xerrors.CodeStorageFailure, err, "按名称查询资源失败")
	}
	return s.Get(ctx, id)
}

// Replace 实现 registry.Store。
func (s *Store[T]) Replace(ctx context.Context, rec T) error {
	prev, err := s.Get(ctx, rec.ResourceID())
	if err != nil {
		return err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "序列化资源失败")
	}
	res, err := replaceScript.Run(ctx, s.client,
		[]string{s.keys.records, s.keys.names},
		rec.ResourceID(), body, prev.ResourceName(), rec.ResourceName()).Int()
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "更新资源失败")
	}
	if res == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// Delete 实现 registry.Store。
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	prev, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	res, err := deleteScript.Run(ctx, s.client,
		[]string{s.keys.records, s.keys.names, s.keys.order},
		id, prev.ResourceName()).Int()
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "删除资源失败")
	}
	if res == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// List 实现 registry.Store，按插入顺序返回。
func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	ids, err := s.client.LRange(ctx, s.keys.order, 0, -1).Result()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询资源列表失败")
	}
	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	values, err := s.client.HMGet(ctx, s.keys.records, ids...).Result()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询资源列表失败")
	}
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		rec, err := s.decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close 不关闭共享客户端。
func (s *Store[T]) Close() error {
	return nil
}

func (s *Store[T]) decode(raw []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("解析 %s 资源失败", s.kind))
	}
	return rec, nil
}

// Sequence 使用 INCR 为资源分配递增序号。
type Sequence struct {
	client redis.UniversalClient
	key    string
}

// NewSequence 创建指定资源类型的序列。
func NewSequence(client redis.UniversalClient, prefix, kind string) *Sequence {
	return &Sequence{client: client, key: keysFor(prefix, kind).seq}
}

// Next 实现 registry.IDGenerator。
func (s *Sequence) Next(ctx context.Context) (string, error) {
	value, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "递增序列失败")
	}
	return strconv.FormatInt(value, 10), nil
}

var _ registry.IDGenerator = (*Sequence)(nil)
