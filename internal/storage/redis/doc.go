// Package redis 提供基于 Redis 的注册表存储。每种资源使用一个记录哈希、一个名称索引哈希、
// 一个保持插入顺序的列表，以及一个 INCR 序列键。
package redis
