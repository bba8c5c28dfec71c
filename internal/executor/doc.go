// Package executor 定义注册表把 test、run、query 等动作路由到的执行能力，
// 并提供返回占位结果的默认实现 Mock。真实的智能体、工具与工作流执行由其他实现接入。
package executor
