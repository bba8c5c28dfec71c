package agent

import (
	"strings"

	"OxyGent-Console/internal/registry"
)

// Types 列出允许的 agent_type，校验时忽略大小写。
var Types = registry.Enum{"react", "chat", "workflow", "local", "parallel", "remote", "sse"}

// StatusActive 是新建智能体的默认状态。
const StatusActive = "active"

// Agent 是注册表中保存的智能体定义。
type Agent struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	AgentType        string         `json:"agent_type"`
	Description      *string        `json:"description"`
	IsMaster         bool           `json:"is_master"`
	Tools            []string       `json:"tools"`
	SubAgents        []string       `json:"sub_agents"`
	LLMModel         *string        `json:"llm_model"`
	AdditionalPrompt *string        `json:"additional_prompt"`
	Timeout          *int           `json:"timeout"`
	TrustMode        *bool          `json:"trust_mode"`
	Config           map[string]any `json:"config"`
	Status           string         `json:"status"`
}

// ResourceID 实现 registry.Resource。
func (a Agent) ResourceID() string { return a.ID }

// ResourceName 实现 registry.Resource。
func (a Agent) ResourceName() string { return a.Name }

// Clone 实现 registry.Resource。
func (a Agent) Clone() Agent {
	a.Tools = registry.CloneStrings(a.Tools)
	a.SubAgents = registry.CloneStrings(a.SubAgents)
	a.Config = registry.CloneMap(a.Config)
	a.Description = clonePtr(a.Description)
	a.LLMModel = clonePtr(a.LLMModel)
	a.AdditionalPrompt = clonePtr(a.AdditionalPrompt)
	a.Timeout = clonePtr(a.Timeout)
	a.TrustMode = clonePtr(a.TrustMode)
	return a
}

// CreateRequest 是创建智能体的请求体。
type CreateRequest struct {
	Name             string         `json:"name"`
	AgentType        string         `json:"agent_type"`
	Description      *string        `json:"description"`
	IsMaster         bool           `json:"is_master"`
	Tools            []string       `json:"tools"`
	SubAgents        []string       `json:"sub_agents"`
	LLMModel         *string        `json:"llm_model"`
	AdditionalPrompt *string        `json:"additional_prompt"`
	Timeout          *int           `json:"timeout"`
	TrustMode        *bool          `json:"trust_mode"`
	Config           map[string]any `json:"config"`
}

// UpdateRequest 是合并更新的请求体，nil 字段保持原值。agent_type 不可修改。
type UpdateRequest struct {
	Name             *string        `json:"name"`
	Description      *string        `json:"description"`
	IsMaster         *bool          `json:"is_master"`
	Tools            []string       `json:"tools"`
	SubAgents        []string       `json:"sub_agents"`
	LLMModel         *string        `json:"llm_model"`
	AdditionalPrompt *string        `json:"additional_prompt"`
	Timeout          *int           `json:"timeout"`
	TrustMode        *bool          `json:"trust_mode"`
	Config           map[string]any `json:"config"`
}

// Kind 描述智能体在注册表中的行为。
func Kind() registry.Kind[Agent, CreateRequest, UpdateRequest] {
	return registry.Kind[Agent, CreateRequest, UpdateRequest]{
		Name:     "Agent",
		Key:      "agents",
		NameOf:   func(in CreateRequest) string { return in.Name },
		Validate: validate,
		Build:    build,
		Patch:    patch,
	}
}

func validate(in CreateRequest) error {
	if strings.TrimSpace(in.AgentType) == "" || !Types.Contains(in.AgentType) {
		return registry.Validation("Invalid agent type. Must be one of: %s", Types)
	}
	if in.Timeout != nil && *in.Timeout < 0 {
		return registry.Validation("timeout must not be negative")
	}
	return nil
}

func build(id string, in CreateRequest) Agent {
	return Agent{
		ID:               id,
		Name:             in.Name,
		AgentType:        in.AgentType,
		Description:      clonePtr(in.Description),
		IsMaster:         in.IsMaster,
		Tools:            registry.CloneStrings(in.Tools),
		SubAgents:        registry.CloneStrings(in.SubAgents),
		LLMModel:         clonePtr(in.LLMModel),
		AdditionalPrompt: clonePtr(in.AdditionalPrompt),
		Timeout:          clonePtr(in.Timeout),
		TrustMode:        clonePtr(in.TrustMode),
		Config:           registry.CloneMap(in.Config),
		Status:           StatusActive,
	}
}

func patch(rec *Agent, in UpdateRequest) {
	if in.Name != nil {
		rec.Name = *in.Name
	}
	if in.Description != nil {
		rec.Description = clonePtr(in.Description)
	}
	if in.IsMaster != nil {
		rec.IsMaster = *in.IsMaster
	}
	if in.Tools != nil {
		rec.Tools = registry.CloneStrings(in.Tools)
	}
	if in.SubAgents != nil {
		rec.SubAgents = registry.CloneStrings(in.SubAgents)
	}
	if in.LLMModel != nil {
		rec.LLMModel = clonePtr(in.LLMModel)
	}
	if in.AdditionalPrompt != nil {
		rec.AdditionalPrompt = clonePtr(in.AdditionalPrompt)
	}
	if in.Timeout != nil {
		rec.Timeout = clonePtr(in.Timeout)
	}
	if in.TrustMode != nil {
		rec.TrustMode = clonePtr(in.TrustMode)
	}
	if in.Config != nil {
		rec.Config = registry.CloneMap(in.Config)
	}
}

func clonePtr[V any](p *V) *V {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
