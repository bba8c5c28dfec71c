// Package workflow 管理工作流定义，并提供运行与静态校验动作。
package workflow
