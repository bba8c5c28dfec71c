// Package agent 管理智能体定义：记录模型、创建与合并更新规则，以及通过执行器进行的测试调用。
package agent
