package registry

import (
	"fmt"

	xerrors "OxyGent-Console/internal/errors"
)

// 存储层与注册表共用的哨兵错误，errors.Is 按错误码匹配。
var (
	ErrNotFound     = xerrors.New(xerrors.CodeNotFound, "")
	ErrConflict     = xerrors.New(xerrors.CodeConflict, "")
	ErrValidation   = xerrors.New(xerrors.CodeInvalidArgument, "")
	ErrPrecondition = xerrors.New(xerrors.CodeFailedPrecondition, "")
)

// NotFound 返回指明资源 ID 的未找到错误。
func NotFound(kind, id string) error {
	return xerrors.New(xerrors.CodeNotFound,
		fmt.Sprintf("%s with ID '%s' not found", kind, id),
		xerrors.WithMetadata("id", id))
}

// Conflict 返回指明重复名称的冲突错误。
func Conflict(kind, name string) error {
	return xerrors.New(xerrors.CodeConflict,
		fmt.Sprintf("%s with name '%s' already exists", kind, name),
		xerrors.WithMetadata("name", name))
}

// Validation 返回校验失败错误。
func Validation(format string, args ...any) error {
	return xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf(format, args...))
}

// Precondition 返回资源状态不满足要求的错误。
func Precondition(format string, args ...any) error {
	return xerrors.New(xerrors.CodeFailedPrecondition, fmt.Sprintf(format, args...))
}
