package mas

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"OxyGent-Console/internal/events"
	"OxyGent-Console/internal/executor"
	"OxyGent-Console/internal/registry"
	"OxyGent-Console/pkg/logger"
)

// Registry 是 MAS 注册表的具体类型。
type Registry = registry.Registry[Instance, CreateRequest, UpdateRequest]

// QueryResult 是查询的返回结构。
type QueryResult struct {
	MASID         string  `json:"mas_id"`
	Query         string  `json:"query"`
	Response      string  `json:"response"`
	ExecutionTime float64 `json:"execution_time"`
}

// Service 在注册表之上实现启动、停止与查询。
type Service struct {
	*Registry
	exec    executor.MASExecutor
	timeout time.Duration
	log     *slog.Logger
}

// NewService 创建 MAS 服务。
func NewService(store registry.Store[Instance], exec executor.MASExecutor, timeout time.Duration, opts ...registry.Option) *Service {
	if exec == nil {
		exec = executor.NewMock()
	}
	return &Service{
		Registry: registry.New(Kind(), store, opts...),
		exec:     exec,
		timeout:  timeout,
		log:      logger.Named("mas"),
	}
}

// Start 将实例切换为 active。对已运行的实例重复调用直接返回当前记录。
func (s *Service) Start(ctx context.Context, id string) (Instance, error) {
	return s.transition(ctx, id, StatusActive, events.ActionStarted, s.exec.StartMAS)
}

// Stop 将实例切换为 inactive，幂等。
func (s *Service) Stop(ctx context.Context, id string) (Instance, error) {
	return s.transition(ctx, id, StatusInactive, events.ActionStopped, s.exec.StopMAS)
}

// transition 在注册表锁外调用执行器钩子，钩子成功后再写回状态。
// 慢速的启动或停止不会阻塞其他实例的更新与删除。
func (s *Service) transition(ctx context.Context, id, to string, action events.Action, hook func(context.Context, executor.Target) error) (Instance, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Instance{}, err
	}
	if rec.Status == to {
		return rec, nil
	}

	target := executor.Target{ID: rec.ID, Name: rec.Name, Type: "mas", Config: rec.Config}
	if _, err := executor.Call(ctx, s.timeout, "mas "+string(action), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, hook(ctx, target)
	}); err != nil {
		return Instance{}, err
	}

	changed := false
	rec, err = s.Mutate(ctx, id, "", func(rec *Instance) error {
		if rec.Status != to {
			rec.Status = to
			changed = true
		}
		return nil
	})
	if err != nil {
		return Instance{}, err
	}
	if changed {
		s.log.Info("MAS 实例状态变更", slog.String("id", id), slog.String("status", to))
		s.Emit(ctx, action, rec)
	}
	return rec, nil
}

// Query 向运行中的实例发送查询。
func (s *Service) Query(ctx context.Context, id, query string) (QueryResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return QueryResult{}, err
	}
	if !rec.Active() {
		return QueryResult{}, registry.Precondition("MAS instance with ID '%s' is not active", id)
	}
	if strings.TrimSpace(query) == "" {
		return QueryResult{}, registry.Validation("query is required")
	}
	target := executor.Target{ID: rec.ID, Name: rec.Name, Type: "mas", Config: rec.Config}
	out, err := executor.Call(ctx, s.timeout, "mas query", func(ctx context.Context) (executor.Output, error) {
		return s.exec.QueryMAS(ctx, target, query)
	})
	if err != nil {
		return QueryResult{}, err
	}
	response, _ := out.Value.(string)
	return QueryResult{
		MASID:         rec.ID,
		Query:         query,
		Response:      response,
		ExecutionTime: out.Seconds(),
	}, nil
}

// Delete 删除实例，运行中的实例会先停止。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Stop(ctx, id); err != nil {
		return err
	}
	return s.Registry.Delete(ctx, id)
}

// ActiveCount 返回运行中的实例数量。
func (s *Service) ActiveCount(ctx context.Context) (int, error) {
	return s.CountWhere(ctx, Instance.Active)
}
