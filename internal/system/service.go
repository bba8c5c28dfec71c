package system

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	xerrors "OxyGent-Console/internal/errors"
	"OxyGent-Console/internal/registry"
	"OxyGent-Console/pkg/logger"
)

// DownloadPath 是导出配置的下载地址。
const DownloadPath = "/api/v1/system/download-config"

// Counter 统计某类资源的数量。
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// ActiveCounter 统计运行中的 MAS 实例数量。
type ActiveCounter interface {
	ActiveCount(ctx context.Context) (int, error)
}

// Sources 汇总状态接口读取的注册表。
type Sources struct {
	Agents    Counter
	Tools     Counter
	Workflows Counter
	MAS       ActiveCounter
}

// Status 是系统运行状态。
type Status struct {
	Version                  string  `json:"version"`
	Status                   string  `json:"status"`
	Uptime                   float64 `json:"uptime"`
	ActiveMASCount           int     `json:"active_mas_count"`
	RegisteredAgentsCount    int     `json:"registered_agents_count"`
	RegisteredToolsCount     int     `json:"registered_tools_count"`
	RegisteredWorkflowsCount int     `json:"registered_workflows_count"`
}

// ImportResult 描述一次配置导入。
type ImportResult struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	AppliedFields []string `json:"applied_fields"`
}

// ExportResult 描述一次配置导出。
type ExportResult struct {
	Status      string `json:"status"`
	DownloadURL string `json:"download_url"`
	Message     string `json:"message"`
}

// RestartResult 描述一次重启请求。
type RestartResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Option 调整 Service。
type Option func(*Service)

// WithClock 替换时间源，用于测试。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithInitialConfig 替换默认的系统配置。
func WithInitialConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg.Clone()
	}
}

// Service 保存系统配置并汇总运行状态。
type Service struct {
	mu      sync.RWMutex
	cfg     Config
	version *semver.Version
	sources Sources
	started time.Time
	now     func() time.Time
	restart chan struct{}
	log     *slog.Logger
}

// NewService 创建系统服务。version 必须是合法的语义化版本。
func NewService(version string, sources Sources, opts ...Option) (*Service, error) {
	v, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, fmt.Sprintf("无效的版本号: %s", version))
	}
	s := &Service{
		cfg:     DefaultConfig(),
		version: v,
		sources: sources,
		now:     time.Now,
		restart: make(chan struct{}, 1),
		log:     logger.Named("system"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.started = s.now()
	return s, nil
}

// Version 返回运行版本。
func (s *Service) Version() string {
	return s.version.String()
}

// GetConfig 返回隐藏密钥后的配置。
func (s *Service) GetConfig(context.Context) Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Masked()
}

// Snapshot 返回未隐藏密钥的配置副本，用于重启时保留当前配置。
func (s *Service) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig 合并 patch 中非 nil 的字段，返回合并后的配置。
func (s *Service) UpdateConfig(ctx context.Context, patch Config) (Config, error) {
	cfg, _, err := s.apply(ctx, patch)
	return cfg, err
}

func (s *Service) apply(_ context.Context, patch Config) (Config, []string, error) {
	if patch.LogLevel != nil && !logger.ValidLevel(*patch.LogLevel) {
		return Config{}, nil, registry.Validation("Invalid log level '%s'", *patch.LogLevel)
	}
	for i, l := range patch.LLMConfigs {
		if strings.TrimSpace(l.Name) == "" {
			return Config{}, nil, registry.Validation("llm_configs[%d].name is required", i)
		}
	}
	for i, d := range patch.DatabaseConfigs {
		if strings.TrimSpace(d.Type) == "" {
			return Config{}, nil, registry.Validation("database_configs[%d].type is required", i)
		}
	}

	s.mu.Lock()
	applied := s.cfg.merge(patch)
	out := s.cfg.Masked()
	s.mu.Unlock()

	if patch.LogLevel != nil {
		logger.SetLevel(*patch.LogLevel)
	}
	if len(applied) > 0 {
		s.log.Info("系统配置已更新", slog.Any("fields", applied))
	}
	return out, applied, nil
}

// Status 根据注册表实时计算运行状态。
func (s *Service) Status(ctx context.Context) (Status, error) {
	st := Status{
		Version: s.version.String(),
		Status:  "running",
		Uptime:  s.now().Sub(s.started).Seconds(),
	}
	var err error
	if st.RegisteredAgentsCount, err = count(ctx, s.sources.Agents); err != nil {
		return Status{}, err
	}
	if st.RegisteredToolsCount, err = count(ctx, s.sources.Tools); err != nil {
		return Status{}, err
	}
	if st.RegisteredWorkflowsCount, err = count(ctx, s.sources.Workflows); err != nil {
		return Status{}, err
	}
	if s.sources.MAS != nil {
		if st.ActiveMASCount, err = s.sources.MAS.ActiveCount(ctx); err != nil {
			return Status{}, err
		}
	}
	return st, nil
}

func count(ctx context.Context, c Counter) (int, error) {
	if c == nil {
		return 0, nil
	}
	return c.Count(ctx)
}

type importDocument struct {
	Version *string `json:"version"`
	Config
}

// Import 读取 JSON 或 YAML 配置文档，校验 schema 与版本兼容性后合并到当前配置。
func (s *Service) Import(ctx context.Context, filename string, src io.Reader) (ImportResult, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return ImportResult{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "读取配置文件失败")
	}

	var parsed any
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return ImportResult{}, registry.Validation("Invalid configuration file %s: %v", filename, err)
	}
	if parsed == nil {
		return ImportResult{}, registry.Validation("Configuration file %s is empty", filename)
	}
	jsonData, err := json.Marshal(normalize(parsed))
	if err != nil {
		return ImportResult{}, registry.Validation("Invalid configuration file %s: %v", filename, err)
	}

	issues, err := validateDocument(jsonData)
	if err != nil {
		return ImportResult{}, xerrors.Wrap(xerrors.CodeUnknown, err, "配置 schema 校验失败")
	}
	if len(issues) > 0 {
		return ImportResult{}, registry.Validation("Invalid configuration: %s", strings.Join(issues, "; "))
	}

	var doc importDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return ImportResult{}, registry.Validation("Invalid configuration: %v", err)
	}
	if doc.Version != nil {
		if err := s.checkCompatible(*doc.Version); err != nil {
			return ImportResult{}, err
		}
	}

	_, applied, err := s.apply(ctx, doc.Config)
	if err != nil {
		return ImportResult{}, err
	}
	if applied == nil {
		applied = []string{}
	}
	sort.Strings(applied)
	return ImportResult{
		Status:        "success",
		Message:       fmt.Sprintf("Configuration imported successfully from %s", filename),
		AppliedFields: applied,
	}, nil
}

func (s *Service) checkCompatible(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return registry.Validation("Invalid configuration version '%s'", version)
	}
	if v.Major() != s.version.Major() {
		return registry.Validation("Configuration version %s is not compatible with running version %s", v, s.version)
	}
	return nil
}

// Export 返回下载地址。
func (s *Service) Export(context.Context) ExportResult {
	return ExportResult{
		Status:      "success",
		DownloadURL: DownloadPath,
		Message:     "Configuration exported successfully",
	}
}

// Download 返回 YAML 格式的配置文档，包含版本号，可直接用于 Import。
func (s *Service) Download(ctx context.Context) ([]byte, error) {
	cfg := s.GetConfig(ctx)
	doc := struct {
		Version string `yaml:"version"`
		Config  `yaml:",inline"`
	}{Version: s.version.String(), Config: cfg}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeUnknown, err, "序列化配置失败")
	}
	return out, nil
}

// Restart 通知守护进程重建服务。已有未处理的重启请求时不会重复排队。
func (s *Service) Restart(context.Context) RestartResult {
	select {
	case s.restart <- struct{}{}:
		s.log.Warn("收到重启请求")
	default:
	}
	return RestartResult{
		Status:  "success",
		Message: "System restart initiated",
	}
}

// Restarts 返回重启信号通道。
func (s *Service) Restarts() <-chan struct{} {
	return s.restart
}

// normalize 把 YAML 解出的 map[any]any 转换为 JSON 可编码的结构。
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}
