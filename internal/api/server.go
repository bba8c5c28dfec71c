package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"OxyGent-Console/internal/agent"
	"OxyGent-Console/internal/mas"
	"OxyGent-Console/internal/observability/alerting"
	"OxyGent-Console/internal/observability/metrics"
	"OxyGent-Console/internal/system"
	"OxyGent-Console/internal/tool"
	"OxyGent-Console/internal/workflow"
	"OxyGent-Console/pkg/logger"
)

const prefix = "/api/v1"

// Services 汇总 API 依赖的业务服务。
type Services struct {
	Agents    *agent.Service
	Tools     *tool.Service
	Workflows *workflow.Service
	MAS       *mas.Service
	System    *system.Service
}

// Options 控制 HTTP 服务行为。
type Options struct {
	Address           string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	MaxUploadBytes    int64
	MaxBodyBytes      int64
	Metrics           *metrics.Collector
	Alerts            alerting.Dispatcher
}

// Server 负责暴露管理控制台的 REST 接口。
type Server struct {
	opts    Options
	svc     Services
	metrics *metrics.Collector
	alerts  alerting.Dispatcher
	log     *slog.Logger
}

// NewServer 构造 API 服务实例。
func NewServer(opts Options, svc Services) *Server {
	if opts.Address == "" {
		opts.Address = ":8000"
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &Server{
		opts:    opts,
		svc:     svc,
		metrics: opts.Metrics,
		alerts:  opts.Alerts,
		log:     logger.Named("api"),
	}
}

// Handler 返回挂载全部路由与中间件的 http.Handler，根上下文取消后拒绝新请求。
func (s *Server) Handler(ctx context.Context) http.Handler {
	var h http.Handler = s.routes()
	if s.metrics != nil {
		h = s.metrics.Middleware(h)
	}
	h = withBodyLimit(s.opts.MaxBodyBytes, s.opts.MaxUploadBytes, h)
	h = withAccessLog(s.log, h)
	h = withRequestID(h)
	return withContext(ctx, h)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mountCRUD[agent.Agent, agent.CreateRequest, agent.UpdateRequest](mux, prefix+"/agents", s, s.svc.Agents)
	mux.HandleFunc("POST "+prefix+"/agents/{id}/test", s.handleAgentTest)

	mux.HandleFunc("POST "+prefix+"/tools/upload-mcp-server", s.handleToolUpload)
	mountCRUD[tool.Tool, tool.CreateRequest, tool.UpdateRequest](mux, prefix+"/tools", s, s.svc.Tools)
	mux.HandleFunc("POST "+prefix+"/tools/{id}/test", s.handleToolTest)

	mountCRUD[workflow.Workflow, workflow.CreateRequest, workflow.UpdateRequest](mux, prefix+"/workflows", s, s.svc.Workflows)
	mux.HandleFunc("POST "+prefix+"/workflows/{id}/run", s.handleWorkflowRun)
	mux.HandleFunc("POST "+prefix+"/workflows/{id}/validate", s.handleWorkflowValidate)

	mountCRUD[mas.Instance, mas.CreateRequest, mas.UpdateRequest](mux, prefix+"/mas", s, s.svc.MAS)
	mux.HandleFunc("POST "+prefix+"/mas/{id}/start", s.handleMASStart)
	mux.HandleFunc("POST "+prefix+"/mas/{id}/stop", s.handleMASStop)
	mux.HandleFunc("POST "+prefix+"/mas/{id}/query", s.handleMASQuery)

	mux.HandleFunc("GET "+prefix+"/system/config", s.handleGetConfig)
	mux.HandleFunc("PUT "+prefix+"/system/config", s.handleUpdateConfig)
	mux.HandleFunc("GET "+prefix+"/system/status", s.handleStatus)
	mux.HandleFunc("POST "+prefix+"/system/import", s.handleImport)
	mux.HandleFunc("GET "+prefix+"/system/export", s.handleExport)
	mux.HandleFunc("GET "+prefix+"/system/download-config", s.handleDownload)
	mux.HandleFunc("POST "+prefix+"/system/restart", s.handleRestart)
	return mux
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("管理 API 已启动", slog.String("addr", s.opts.Address))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
