package agent

import (
	"context"
	"log/slog"
	"time"

	"OxyGent-Console/internal/executor"
	"OxyGent-Console/internal/registry"
	"OxyGent-Console/pkg/logger"
)

// Registry 是智能体注册表的具体类型。
type Registry = registry.Registry[Agent, CreateRequest, UpdateRequest]

// TestResult 是测试调用的返回结构。
type TestResult struct {
	AgentID       string         `json:"agent_id"`
	Status        string         `json:"status"`
	Input         map[string]any `json:"input"`
	Output        any            `json:"output"`
	ExecutionTime float64        `json:"execution_time"`
}

// Service 在注册表之上提供测试等动作。
type Service struct {
	*Registry
	exec    executor.AgentExecutor
	timeout time.Duration
	log     *slog.Logger
}

// NewService 创建智能体服务。store 为空时使用内存存储。
func NewService(store registry.Store[Agent], exec executor.AgentExecutor, timeout time.Duration, opts ...registry.Option) *Service {
	if exec == nil {
		exec = executor.NewMock()
	}
	return &Service{
		Registry: registry.New(Kind(), store, opts...),
		exec:     exec,
		timeout:  timeout,
		log:      logger.Named("agent"),
	}
}

// Test 使用样例输入调用执行器测试智能体。
func (s *Service) Test(ctx context.Context, id string, input map[string]any) (TestResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return TestResult{}, err
	}
	if input == nil {
		input = map[string]any{}
	}
	target := executor.Target{ID: rec.ID, Name: rec.Name, Type: rec.AgentType, Config: rec.Config}
	out, err := executor.Call(ctx, s.timeout, "agent test", func(ctx context.Context) (executor.Output, error) {
		return s.exec.TestAgent(ctx, target, input)
	})
	if err != nil {
		s.log.Warn("智能体测试失败", slog.String("id", id), slog.Any("error", err))
		return TestResult{}, err
	}
	return TestResult{
		AgentID:       rec.ID,
		Status:        "success",
		Input:         input,
		Output:        out.Value,
		ExecutionTime: out.Seconds(),
	}, nil
}
