package workflow

import "OxyGent-Console/internal/registry"

// StatusActive 是新建工作流的默认状态。
const StatusActive = "active"

// Workflow 描述一组智能体以及它们之间的连接。
type Workflow struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Agents      []string         `json:"agents"`
	Connections []map[string]any `json:"connections"`
	Config      map[string]any   `json:"config"`
	Status      string           `json:"status"`
}

// ResourceID 实现 registry.Resource。
func (w Workflow) ResourceID() string { return w.ID }

// ResourceName 实现 registry.Resource。
func (w Workflow) ResourceName() string { return w.Name }

// Clone 实现 registry.Resource。
func (w Workflow) Clone() Workflow {
	w.Agents = registry.CloneStrings(w.Agents)
	w.Connections = registry.CloneMaps(w.Connections)
	w.Config = registry.CloneMap(w.Config)
	if w.Description != nil {
		d := *w.Description
		w.Description = &d
	}
	return w
}

// CreateRequest 是创建工作流的请求体，agents 与 connections 必须出现，可以为空列表。
type CreateRequest struct {
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Agents      []string         `json:"agents"`
	Connections []map[string]any `json:"connections"`
	Config      map[string]any   `json:"config"`
}

// UpdateRequest 是合并更新的请求体。
type UpdateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Agents      []string         `json:"agents"`
	Connections []map[string]any `json:"connections"`
	Config      map[string]any   `json:"config"`
}

// Kind 描述工作流在注册表中的行为。
func Kind() registry.Kind[Workflow, CreateRequest, UpdateRequest] {
	return registry.Kind[Workflow, CreateRequest, UpdateRequest]{
		Name:   "Workflow",
		Key:    "workflows",
		NameOf: func(in CreateRequest) string { return in.Name },
		Validate: func(in CreateRequest) error {
			if in.Agents == nil {
				return registry.Validation("agents is required")
			}
			if in.Connections == nil {
				return registry.Validation("connections is required")
			}
			return nil
		},
		Build: func(id string, in CreateRequest) Workflow {
			return Workflow{
				ID:          id,
				Name:        in.Name,
				Description: in.Description,
				Agents:      in.Agents,
				Connections: in.Connections,
				Config:      in.Config,
				Status:      StatusActive,
			}.Clone()
		},
		Patch: func(rec *Workflow, in UpdateRequest) {
			if in.Name != nil {
				rec.Name = *in.Name
			}
			if in.Description != nil {
				d := *in.Description
				rec.Description = &d
			}
			if in.Agents != nil {
				rec.Agents = registry.CloneStrings(in.Agents)
			}
			if in.Connections != nil {
				rec.Connections = registry.CloneMaps(in.Connections)
			}
			if in.Config != nil {
				rec.Config = registry.CloneMap(in.Config)
			}
		},
	}
}
