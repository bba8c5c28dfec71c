package migrations

import "embed"

// Files 暴露注册表存储使用的 SQL 迁移文件。
//
//go:embed *.sql
var Files embed.FS
