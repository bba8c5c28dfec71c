package executor

import (
	"context"
	stdErrors "errors"
	"time"

	xerrors "OxyGent-Console/internal/errors"
)

// Target 描述被执行的注册表记录。
type Target struct {
	ID     string
	Name   string
	Type   string
	Config map[string]any
}

// Output 是一次执行的结果与耗时。
type Output struct {
	Value   any
	Elapsed time.Duration
}

// Seconds 以秒为单位返回耗时，对应响应中的 execution_time。
func (o Output) Seconds() float64 {
	return o.Elapsed.Seconds()
}

// AgentExecutor 使用样例输入测试智能体。
type AgentExecutor interface {
	TestAgent(ctx context.Context, target Target, input map[string]any) (Output, error)
}

// ToolExecutor 使用样例输入测试工具。
type ToolExecutor interface {
	TestTool(ctx context.Context, target Target, input map[string]any) (Output, error)
}

// WorkflowExecutor 运行工作流。
type WorkflowExecutor interface {
	RunWorkflow(ctx context.Context, target Target, input map[string]any) (Output, error)
}

// MASExecutor 管理多智能体系统实例的生命周期并处理查询。
type MASExecutor interface {
	StartMAS(ctx context.Context, target Target) error
	StopMAS(ctx context.Context, target Target) error
	QueryMAS(ctx context.Context, target Target, query string) (Output, error)
}

// Executor 聚合全部执行能力。
type Executor interface {
	AgentExecutor
	ToolExecutor
	WorkflowExecutor
	MASExecutor
}

// Call 在 timeout 约束下执行 fn。超时返回 TIMEOUT，其他未编码的错误包装为 EXECUTOR_FAILURE。
func Call[R any](ctx context.Context, timeout time.Duration, what string, fn func(ctx context.Context) (R, error)) (R, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	out, err := fn(ctx)
	if err == nil {
		return out, nil
	}
	var zero R
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return zero, xerrors.Wrap(xerrors.CodeTimeout, err, what+" timed out",
			xerrors.WithMetadata("timeout", timeout.String()))
	}
	if _, ok := xerrors.From(err); ok {
		return zero, err
	}
	return zero, xerrors.Wrap(xerrors.CodeExecutorFailure, err, what+" failed")
}
