package executor

import (
	"context"
	"log/slog"
	"time"

	"OxyGent-Console/pkg/logger"
)

const (
	agentMockOutput    = "This is a mock test response. In a real implementation, this would be the agent's response to the test input."
	toolMockOutput     = "This is a mock test response. In a real implementation, this would be the tool's response to the test input."
	workflowMockOutput = "This is a mock run response. In a real implementation, this would be the workflow's response to the input."
	masMockOutput      = "This is a mock query response. In a real implementation, this would be the MAS instance's response to the query."
)

// Mock 返回固定占位结果，并记录真实耗时。Delay 用于模拟较慢的执行。
type Mock struct {
	Delay time.Duration
	log   *slog.Logger
}

// NewMock 创建 Mock 执行器。
func NewMock() *Mock {
	return &Mock{log: logger.Named("executor.mock")}
}

func (m *Mock) run(ctx context.Context, value any) (Output, error) {
	start := time.Now()
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	return Output{Value: value, Elapsed: time.Since(start)}, nil
}

// TestAgent 实现 AgentExecutor。
func (m *Mock) TestAgent(ctx context.Context, target Target, _ map[string]any) (Output, error) {
	return m.run(ctx, agentMockOutput)
}

// TestTool 实现 ToolExecutor。
func (m *Mock) TestTool(ctx context.Context, target Target, _ map[string]any) (Output, error) {
	return m.run(ctx, toolMockOutput)
}

// RunWorkflow 实现 WorkflowExecutor。
func (m *Mock) RunWorkflow(ctx context.Context, target Target, _ map[string]any) (Output, error) {
	return m.run(ctx, workflowMockOutput)
}

// StartMAS 实现 MASExecutor。
func (m *Mock) StartMAS(ctx context.Context, target Target) error {
	m.logger().Info("启动 MAS 实例", slog.String("id", target.ID), slog.String("name", target.Name))
	return ctx.Err()
}

// StopMAS 实现 MASExecutor。
func (m *Mock) StopMAS(ctx context.Context, target Target) error {
	m.logger().Info("停止 MAS 实例", slog.String("id", target.ID), slog.String("name", target.Name))
	return ctx.Err()
}

// QueryMAS 实现 MASExecutor。
func (m *Mock) QueryMAS(ctx context.Context, target Target, _ string) (Output, error) {
	return m.run(ctx, masMockOutput)
}

func (m *Mock) logger() *slog.Logger {
	if m.log == nil {
		return logger.L()
	}
	return m.log
}

var _ Executor = (*Mock)(nil)
