package workflow

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"OxyGent-Console/internal/agent"
	"OxyGent-Console/internal/executor"
	"OxyGent-Console/internal/registry"
	"OxyGent-Console/pkg/logger"
)

// Registry 是工作流注册表的具体类型。
type Registry = registry.Registry[Workflow, CreateRequest, UpdateRequest]

// AgentCatalog 用于校验工作流引用的智能体是否已登记。
type AgentCatalog interface {
	FindByName(ctx context.Context, name string) (agent.Agent, error)
}

// RunResult 是工作流运行的返回结构。
type RunResult struct {
	WorkflowID    string         `json:"workflow_id"`
	Status        string         `json:"status"`
	Input         map[string]any `json:"input"`
	Output        any            `json:"output"`
	ExecutionTime float64        `json:"execution_time"`
}

// ValidationResult 是静态校验的返回结构。
type ValidationResult struct {
	WorkflowID string   `json:"workflow_id"`
	IsValid    bool     `json:"is_valid"`
	Messages   []string `json:"messages"`
}

// Service 在注册表之上提供运行与校验动作。
type Service struct {
	*Registry
	agents  AgentCatalog
	exec    executor.WorkflowExecutor
	timeout time.Duration
	log     *slog.Logger
}

// NewService 创建工作流服务。agents 为空时跳过智能体存在性检查。
func NewService(store registry.Store[Workflow], agents AgentCatalog, exec executor.WorkflowExecutor, timeout time.Duration, opts ...registry.Option) *Service {
	if exec == nil {
		exec = executor.NewMock()
	}
	return &Service{
		Registry: registry.New(Kind(), store, opts...),
		agents:   agents,
		exec:     exec,
		timeout:  timeout,
		log:      logger.Named("workflow"),
	}
}

// Run 使用 input_data 运行工作流。
func (s *Service) Run(ctx context.Context, id string, input map[string]any) (RunResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return RunResult{}, err
	}
	if input == nil {
		input = map[string]any{}
	}
	target := executor.Target{ID: rec.ID, Name: rec.Name, Type: "workflow", Config: rec.Config}
	out, err := executor.Call(ctx, s.timeout, "workflow run", func(ctx context.Context) (executor.Output, error) {
		return s.exec.RunWorkflow(ctx, target, input)
	})
	if err != nil {
		s.log.Warn("工作流运行失败", slog.String("id", id), slog.Any("error", err))
		return RunResult{}, err
	}
	return RunResult{
		WorkflowID:    rec.ID,
		Status:        "success",
		Input:         input,
		Output:        out.Value,
		ExecutionTime: out.Seconds(),
	}, nil
}

// Validate 检查工作流的静态结构，不修改任何状态。
func (s *Service) Validate(ctx context.Context, id string) (ValidationResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return ValidationResult{}, err
	}

	messages := []string{}
	listed := make(map[string]bool, len(rec.Agents))
	for _, name := range rec.Agents {
		if listed[name] {
			messages = append(messages, fmt.Sprintf("Agent '%s' is listed more than once", name))
			continue
		}
		listed[name] = true
		if s.agents == nil {
			continue
		}
		if _, err := s.agents.FindByName(ctx, name); err != nil {
			if !stdErrors.Is(err, registry.ErrNotFound) {
				return ValidationResult{}, err
			}
			messages = append(messages, fmt.Sprintf("Agent '%s' is not registered", name))
		}
	}

	for i, conn := range rec.Connections {
		for _, end := range [][2]string{{"from", "source"}, {"to", "target"}} {
			name, ok := endpoint(conn, end[0], end[1])
			if !ok {
				messages = append(messages, fmt.Sprintf("Connection %d is missing '%s'", i, end[0]))
				continue
			}
			if !listed[name] {
				messages = append(messages, fmt.Sprintf("Connection %d references unknown agent '%s'", i, name))
			}
		}
	}

	return ValidationResult{
		WorkflowID: rec.ID,
		IsValid:    len(messages) == 0,
		Messages:   messages,
	}, nil
}

func endpoint(conn map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := conn[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
