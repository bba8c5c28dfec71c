package mas

import "OxyGent-Console/internal/registry"

// 实例状态。
const (
	StatusInactive = "inactive"
	StatusActive   = "active"
)

// Instance 是注册表中保存的 MAS 实例定义。
type Instance struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Description    *string          `json:"description"`
	OxySpace       []map[string]any `json:"oxy_space"`
	WelcomeMessage *string          `json:"welcome_message"`
	Config         map[string]any   `json:"config"`
	Status         string           `json:"status"`
}

// ResourceID 实现 registry.Resource。
func (m Instance) ResourceID() string { return m.ID }

// ResourceName 实现 registry.Resource。
func (m Instance) ResourceName() string { return m.Name }

// Clone 实现 registry.Resource。
func (m Instance) Clone() Instance {
	m.OxySpace = registry.CloneMaps(m.OxySpace)
	m.Config = registry.CloneMap(m.Config)
	m.Description = cloneString(m.Description)
	m.WelcomeMessage = cloneString(m.WelcomeMessage)
	return m
}

// Active 判断实例是否处于运行状态。
func (m Instance) Active() bool {
	return m.Status == StatusActive
}

// CreateRequest 是创建实例的请求体，oxy_space 必须出现。
type CreateRequest struct {
	Name           string           `json:"name"`
	Description    *string          `json:"description"`
	OxySpace       []map[string]any `json:"oxy_space"`
	WelcomeMessage *string          `json:"welcome_message"`
	Config         map[string]any   `json:"config"`
}

// UpdateRequest 是合并更新的请求体。状态只能通过 start/stop 修改。
type UpdateRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	OxySpace       []map[string]any `json:"oxy_space"`
	WelcomeMessage *string          `json:"welcome_message"`
	Config         map[string]any   `json:"config"`
}

// Kind 描述 MAS 实例在注册表中的行为。
func Kind() registry.Kind[Instance, CreateRequest, UpdateRequest] {
	return registry.Kind[Instance, CreateRequest, UpdateRequest]{
		Name:   "MAS instance",
		Key:    "mas",
		NameOf: func(in CreateRequest) string { return in.Name },
		Validate: func(in CreateRequest) error {
			if in.OxySpace == nil {
				return registry.Validation("oxy_space is required")
			}
			return nil
		},
		Build: func(id string, in CreateRequest) Instance {
			return Instance{
				ID:             id,
				Name:           in.Name,
				Description:    cloneString(in.Description),
				OxySpace:       registry.CloneMaps(in.OxySpace),
				WelcomeMessage: cloneString(in.WelcomeMessage),
				Config:         registry.CloneMap(in.Config),
				Status:         StatusInactive,
			}
		},
		Patch: func(rec *Instance, in UpdateRequest) {
			if in.Name != nil {
				rec.Name = *in.Name
			}
			if in.Description != nil {
				rec.Description = cloneString(in.Description)
			}
			if in.OxySpace != nil {
				rec.OxySpace = registry.CloneMaps(in.OxySpace)
			}
			if in.WelcomeMessage != nil {
				rec.WelcomeMessage = cloneString(in.WelcomeMessage)
			}
			if in.Config != nil {
				rec.Config = registry.CloneMap(in.Config)
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
