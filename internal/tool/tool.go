package tool

import (
	"strings"

	"OxyGent-Console/internal/registry"
)

// Types 列出允许的 tool_type。
var Types = registry.Enum{"function", "mcp", "api"}

// StatusActive 是新建工具的默认状态。
const StatusActive = "active"

// Tool 是注册表中保存的工具定义。
type Tool struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ToolType    string         `json:"tool_type"`
	Description *string        `json:"description"`
	Config      map[string]any `json:"config"`
	Code        *string        `json:"code"`
	APISpec     map[string]any `json:"api_spec"`
	MCPConfig   map[string]any `json:"mcp_config"`
	Status      string         `json:"status"`
}

// ResourceID 实现 registry.Resource。
func (t Tool) ResourceID() string { return t.ID }

// ResourceName 实现 registry.Resource。
func (t Tool) ResourceName() string { return t.Name }

// Clone 实现 registry.Resource。
func (t Tool) Clone() Tool {
	t.Config = registry.CloneMap(t.Config)
	t.APISpec = registry.CloneMap(t.APISpec)
	t.MCPConfig = registry.CloneMap(t.MCPConfig)
	t.Description = cloneString(t.Description)
	t.Code = cloneString(t.Code)
	return t
}

// CreateRequest 是创建工具的请求体。
type CreateRequest struct {
	Name        string         `json:"name"`
	ToolType    string         `json:"tool_type"`
	Description *string        `json:"description"`
	Config      map[string]any `json:"config"`
	Code        *string        `json:"code"`
	APISpec     map[string]any `json:"api_spec"`
	MCPConfig   map[string]any `json:"mcp_config"`
}

// UpdateRequest 是合并更新的请求体，tool_type 不可修改。
type UpdateRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Config      map[string]any `json:"config"`
	Code        *string        `json:"code"`
	APISpec     map[string]any `json:"api_spec"`
	MCPConfig   map[string]any `json:"mcp_config"`
}

// Kind 描述工具在注册表中的行为。
func Kind() registry.Kind[Tool, CreateRequest, UpdateRequest] {
	return registry.Kind[Tool, CreateRequest, UpdateRequest]{
		Name:   "Tool",
		Key:    "tools",
		NameOf: func(in CreateRequest) string { return in.Name },
		Validate: func(in CreateRequest) error {
			if strings.TrimSpace(in.ToolType) == "" || !Types.Contains(in.ToolType) {
				return registry.Validation("Invalid tool type. Must be one of: %s", Types)
			}
			return nil
		},
		Build: func(id string, in CreateRequest) Tool {
			return Tool{
				ID:          id,
				Name:        in.Name,
				ToolType:    in.ToolType,
				Description: cloneString(in.Description),
				Config:      registry.CloneMap(in.Config),
				Code:        cloneString(in.Code),
				APISpec:     registry.CloneMap(in.APISpec),
				MCPConfig:   registry.CloneMap(in.MCPConfig),
				Status:      StatusActive,
			}
		},
		Patch: func(rec *Tool, in UpdateRequest) {
			if in.Name != nil {
				rec.Name = *in.Name
			}
			if in.Description != nil {
				rec.Description = cloneString(in.Description)
			}
			if in.Config != nil {
				rec.Config = registry.CloneMap(in.Config)
			}
			if in.Code != nil {
				rec.Code = cloneString(in.Code)
			}
			if in.APISpec != nil {
				rec.APISpec = registry.CloneMap(in.APISpec)
			}
			if in.MCPConfig != nil {
				rec.MCPConfig = registry.CloneMap(in.MCPConfig)
			}
		},
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
