package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	xerrors "OxyGent-Console/internal/errors"
	"OxyGent-Console/internal/registry"
)

const (
	selectByNameSQL = `SELECT id FROM registry_resources WHERE kind = ? AND name = ? LIMIT 1 FOR UPDATE`
	insertSQL       = `INSERT INTO registry_resources (kind, id, name, body, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?)`
	getSQL        = `SELECT body FROM registry_resources WHERE kind = ? AND id = ?`
	findByNameSQL = `SELECT body FROM registry_resources WHERE kind = ? AND name = ? ORDER BY position LIMIT 1`
	replaceSQL    = `UPDATE registry_resources SET name = ?, body = ?, updated_at = ? WHERE kind = ? AND id = ?`
	deleteSQL     = `DELETE FROM registry_resources WHERE kind = ? AND id = ?`
	listSQL       = `SELECT body FROM registry_resources WHERE kind = ? ORDER BY position`
)

// Store 把某一资源类型保存在 registry_resources 表中。多个 Store 共享同一个连接池，
// 连接池由调用方关闭。
type Store[T registry.Resource[T]] struct {
	db   *sql.DB
	kind string
	now  func() time.Time
}

// NewStore 创建指定资源类型的 Store。
func NewStore[T registry.Resource[T]](db *sql.DB, kind string) *Store[T] {
	return &Store[T]{db: db, kind: kind, now: time.Now}
}

// insertAttempts 是插入事务遇到死锁时的最大尝试次数。
const insertAttempts = 3

// Insert 在事务内锁定名称索引区间后写入，保证并发创建同名记录时只有一个成功。
// 并发插入在间隙锁上死锁时整体重试，重试时同名记录已提交则返回 ErrConflict。
func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "序列化资源失败")
	}
	for attempt := 1; ; attempt++ {
		err = s.insert(ctx, rec, body)
		if !isDeadlock(err) {
			return err
		}
		if attempt == insertAttempts {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入资源时反复发生死锁")
		}
	}
}

func (s *Store[T]) insert(ctx context.Context, rec T, body []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "开启事务失败")
	}

	var existing string
	err = tx.QueryRowContext(ctx, selectByNameSQL, s.kind, rec.ResourceName()).Scan(&existing)
	switch {
	case err == nil:
		tx.Rollback()
		return registry.ErrConflict
	case !stdErrors.Is(err, sql.ErrNoRows):
		tx.Rollback()
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "检查资源名称失败")
	}

	now := s.now().UnixMilli()
	if _, err := tx.ExecContext(ctx, insertSQL, s.kind, rec.ResourceID(), rec.ResourceName(), body, now, now); err != nil {
		tx.Rollback()
		if isDuplicate(err) {
			return registry.ErrConflict
		}
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入资源失败")
	}
	if err := tx.Commit(); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "提交事务失败")
	}
	return nil
}

// Get 返回指定 ID 的记录。
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	return s.queryOne(ctx, getSQL, s.kind, id)
}

// FindByName 返回使用该名称的最早记录。
func (s *Store[T]) FindByName(ctx context.Context, name string) (T, error) {
	return s.queryOne(ctx, findByNameSQL, s.kind, name)
}

func (s *Store[T]) queryOne(ctx context.Context, query string, args ...any) (T, error) {
	var (
		zero T
		body []byte
	)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&body); err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return zero, registry.ErrNotFound
		}
		return zero, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询资源失败")
	}
	return s.decode(body)
}

// Replace 覆盖已有记录。
func (s *Store[T]) Replace(ctx context.Context, rec T) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "序列化资源失败")
	}
	res, err := s.db.ExecContext(ctx, replaceSQL, rec.ResourceName(), body, s.now().UnixMilli(), s.kind, rec.ResourceID())
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "更新资源失败")
	}
	return expectAffected(res)
}

// Delete 删除记录。
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, deleteSQL, s.kind, id)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "删除资源失败")
	}
	return expectAffected(res)
}

// List 按写入顺序返回全部记录。
func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, listSQL, s.kind)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询资源列表失败")
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析资源失败")
		}
		rec, err := s.decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历资源失败")
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Close 不关闭共享连接池。
func (s *Store[T]) Close() error {
	return nil
}

func (s *Store[T]) decode(body []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(body, &rec); err != nil {
		return rec, xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("解析 %s 资源失败", s.kind))
	}
	return rec, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取影响行数失败")
	}
	if n == 0 {
		return registry.ErrNotFound
	}
	return nil
}

func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func isDeadlock(err error) bool {
	var mysqlErr *mysql.MySQLError
	return stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1213
}
