package tool

import (
	"context"
	stdErrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"OxyGent-Console/internal/registry"
)

func TestCreateToolValidatesType(t *testing.T) {
	svc := NewService(nil, nil, time.Second, t.TempDir())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateRequest{Name: "search", ToolType: "grpc"}); !stdErrors.Is(err, registry.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	created, err := svc.Create(ctx, CreateRequest{Name: "search", ToolType: "MCP"})
	if err != nil {
		t.Fatalf("create tool: %v", err)
	}
	if created.ID != "1" || created.Status != StatusActive {
		t.Fatalf("unexpected record: %+v", created)
	}
	if _, err := svc.Create(ctx, CreateRequest{Name: "search", ToolType: "api"}); !stdErrors.Is(err, registry.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateToolMergesMaps(t *testing.T) {
	svc := NewService(nil, nil, time.Second, t.TempDir())
	ctx := context.Background()
	created, err := svc.Create(ctx, CreateRequest{Name: "fetch", ToolType: "api", APISpec: map[string]any{"url": "a"}})
	if err != nil {
		t.Fatalf("create tool: %v", err)
	}
	code := "print(1)"
	updated, err := svc.Update(ctx, created.ID, UpdateRequest{Code: &code})
	if err != nil {
		t.Fatalf("update tool: %v", err)
	}
	if updated.Code == nil || *updated.Code != code || updated.APISpec["url"] != "a" {
		t.Fatalf("unexpected merge result: %+v", updated)
	}
}

func TestToolTest(t *testing.T) {
	svc := NewService(nil, nil, time.Second, t.TempDir())
	ctx := context.Background()
	created, err := svc.Create(ctx, CreateRequest{Name: "calc", ToolType: "function"})
	if err != nil {
		t.Fatalf("create tool: %v", err)
	}
	res, err := svc.Test(ctx, created.ID, map[string]any{"x": 1.0})
	if err != nil {
		t.Fatalf("test tool: %v", err)
	}
	if res.ToolID != created.ID || res.Status != "success" || res.Input["x"] != 1.0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := svc.Test(ctx, "99", nil); !stdErrors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUploadMCPServer(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(nil, nil, time.Second, dir)

	res, err := svc.UploadMCPServer(context.Background(), "../../evil/server.py", strings.NewReader("print('mcp')"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	want := filepath.Join(dir, "mcp_servers", "server.py")
	if res.Filename != "server.py" || res.Path != "mcp_servers/server.py" || res.Size != int64(len("print('mcp')")) {
		t.Fatalf("unexpected result: %+v", res)
	}
	content, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read uploaded file: %v", err)
	}
	if string(content) != "print('mcp')" {
		t.Fatalf("unexpected content: %q", content)
	}
	if strings.Contains(res.Path, dir) {
		t.Fatalf("result leaks the data directory: %q", res.Path)
	}

	if _, err := svc.UploadMCPServer(context.Background(), "  ", strings.NewReader("x")); !stdErrors.Is(err, registry.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
