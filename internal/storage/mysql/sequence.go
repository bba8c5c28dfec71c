package mysql

import (
	"context"
	"database/sql"
	"strconv"

	xerrors "OxyGent-Console/internal/errors"
	"OxyGent-Console/internal/registry"
)

const (
	bumpSequenceSQL = `INSERT INTO registry_sequences (kind, value) VALUES (?, 1)
    ON DUPLICATE KEY UPDATE value = value + 1`
	readSequenceSQL = `SELECT value FROM registry_sequences WHERE kind = ?`
)

// Sequence 在 registry_sequences 表中为每种资源维护递增序号，删除记录后序号不回退。
type Sequence struct {
	db   *sql.DB
	kind string
}

// NewSequence 创建指定资源类型的序列。
func NewSequence(db *sql.DB, kind string) *Sequence {
	return &Sequence{db: db, kind: kind}
}

// Next 实现 registry.IDGenerator。递增与读取在同一事务内完成。
func (s *Sequence) Next(ctx context.Context) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "开启事务失败")
	}
	if _, err := tx.ExecContext(ctx, bumpSequenceSQL, s.kind); err != nil {
		tx.Rollback()
		return "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "递增序列失败")
	}
	var value int64
	if err := tx.QueryRowContext(ctx, readSequenceSQL, s.kind).Scan(&value); err != nil {
		tx.Rollback()
		return "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取序列失败")
	}
	if err := tx.Commit(); err != nil {
		return "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "提交事务失败")
	}
	return strconv.FormatInt(value, 10), nil
}

var _ registry.IDGenerator = (*Sequence)(nil)
