// Package mysql 提供基于 MySQL 的注册表存储：每条资源以 JSON 文档保存在
// registry_resources 表中，序列号保存在 registry_sequences 表中，表结构由内置迁移维护。
package mysql
