// Package api 提供 OxyGent 管理控制台的 REST 接口：智能体、工具、工作流、MAS 实例
// 的增删改查与动作调用，以及系统配置、状态与重启。所有路由挂载在 /api/v1 下，
// 另有 /healthz 与 /metrics。
package api
