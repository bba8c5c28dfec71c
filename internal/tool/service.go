package tool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	xerrors "OxyGent-Console/internal/errors"
	"OxyGent-Console/internal/executor"
	"OxyGent-Console/internal/registry"
	"OxyGent-Console/pkg/logger"
)

// Registry 是工具注册表的具体类型。
type Registry = registry.Registry[Tool, CreateRequest, UpdateRequest]

// TestResult 是工具测试的返回结构。
type TestResult struct {
	ToolID        string         `json:"tool_id"`
	Status        string         `json:"status"`
	Input         map[string]any `json:"input"`
	Output        any            `json:"output"`
	ExecutionTime float64        `json:"execution_time"`
}

// UploadResult 描述一次 MCP 服务上传。Path 是相对数据目录的路径。
type UploadResult struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Message  string `json:"message"`
}

// uploadSubdir 是上传文件在数据目录下的子目录。
const uploadSubdir = "mcp_servers"

// Service 在注册表之上提供测试与上传动作。
type Service struct {
	*Registry
	exec      executor.ToolExecutor
	timeout   time.Duration
	uploadDir string
	log       *slog.Logger
}

// NewService 创建工具服务，上传文件保存在 dataDir/mcp_servers 下。
func NewService(store registry.Store[Tool], exec executor.ToolExecutor, timeout time.Duration, dataDir string, opts ...registry.Option) *Service {
	if exec == nil {
		exec = executor.NewMock()
	}
	return &Service{
		Registry:  registry.New(Kind(), store, opts...),
		exec:      exec,
		timeout:   timeout,
		uploadDir: filepath.Join(dataDir, uploadSubdir),
		log:       logger.Named("tool"),
	}
}

// Test 使用 input_data 调用执行器测试工具。
func (s *Service) Test(ctx context.Context, id string, input map[string]any) (TestResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return TestResult{}, err
	}
	if input == nil {
		input = map[string]any{}
	}
	target := executor.Target{ID: rec.ID, Name: rec.Name, Type: rec.ToolType, Config: rec.Config}
	out, err := executor.Call(ctx, s.timeout, "tool test", func(ctx context.Context) (executor.Output, error) {
		return s.exec.TestTool(ctx, target, input)
	})
	if err != nil {
		return TestResult{}, err
	}
	return TestResult{
		ToolID:        rec.ID,
		Status:        "success",
		Input:         input,
		Output:        out.Value,
		ExecutionTime: out.Seconds(),
	}, nil
}

// UploadMCPServer 保存上传的 MCP 服务实现。只保留文件名部分，同名文件会被覆盖。
func (s *Service) UploadMCPServer(ctx context.Context, filename string, src io.Reader) (UploadResult, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if base == "" || base == "." || base == "/" || base == ".." {
		return UploadResult{}, registry.Validation("filename is required")
	}
	if err := ctx.Err(); err != nil {
		return UploadResult{}, err
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return UploadResult{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "创建上传目录失败")
	}

	dst := filepath.Join(s.uploadDir, base)
	tmp, err := os.CreateTemp(s.uploadDir, "."+base+".*")
	if err != nil {
		return UploadResult{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "创建临时文件失败")
	}
	size, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(tmp.Name())
		return UploadResult{}, xerrors.Wrap(xerrors.CodeStorageFailure, copyErr, "写入上传文件失败")
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return UploadResult{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "保存上传文件失败")
	}

	s.log.Info("MCP 服务已上传", slog.String("filename", base), slog.Int64("size", size))
	return UploadResult{
		Status:   "success",
		Filename: base,
		Path:     path.Join(uploadSubdir, base),
		Size:     size,
		Message:  fmt.Sprintf("MCP server %s uploaded successfully", base),
	}, nil
}
