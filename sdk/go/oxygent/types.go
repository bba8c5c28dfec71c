package oxygent

// Agent is a registered agent definition.
type Agent struct {
	ID               string         `json:"id,omitempty"`
	Name             string         `json:"name"`
	AgentType        string         `json:"agent_type"`
	Description      *string        `json:"description,omitempty"`
	IsMaster         bool           `json:"is_master"`
	Tools            []string       `json:"tools,omitempty"`
	SubAgents        []string       `json:"sub_agents,omitempty"`
	LLMModel         *string        `json:"llm_model,omitempty"`
	AdditionalPrompt *string        `json:"additional_prompt,omitempty"`
	Timeout          *int           `json:"timeout,omitempty"`
	TrustMode        *bool          `json:"trust_mode,omitempty"`
	Config           map[string]any `json:"config,omitempty"`
	Status           string         `json:"status,omitempty"`
}

// Tool is a registered tool definition.
type Tool struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	ToolType    string         `json:"tool_type"`
	Description *string        `json:"description,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	Code        *string        `json:"code,omitempty"`
	APISpec     map[string]any `json:"api_spec,omitempty"`
	MCPConfig   map[string]any `json:"mcp_config,omitempty"`
	Status      string         `json:"status,omitempty"`
}

// Workflow is a registered workflow definition. Agents and Connections are
// always sent, an empty list is valid.
type Workflow struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Agents      []string         `json:"agents"`
	Connections []map[string]any `json:"connections"`
	Config      map[string]any   `json:"config,omitempty"`
	Status      string           `json:"status,omitempty"`
}

// MASInstance is a registered multi-agent system instance.
type MASInstance struct {
	ID             string           `json:"id,omitempty"`
	Name           string           `json:"name"`
	Description    *string          `json:"description,omitempty"`
	OxySpace       []map[string]any `json:"oxy_space"`
	WelcomeMessage *string          `json:"welcome_message,omitempty"`
	Config         map[string]any   `json:"config,omitempty"`
	Status         string           `json:"status,omitempty"`
}

// ActionResult is returned by the agent test, tool test and workflow run
// endpoints. Only the identifier matching the resource kind is set.
type ActionResult struct {
	AgentID       string         `json:"agent_id,omitempty"`
	ToolID        string         `json:"tool_id,omitempty"`
	WorkflowID    string         `json:"workflow_id,omitempty"`
	Status        string         `json:"status"`
	Input         map[string]any `json:"input"`
	Output        any            `json:"output"`
	ExecutionTime float64        `json:"execution_time"`
}

// ValidationResult is returned by the workflow validation endpoint.
type ValidationResult struct {
	WorkflowID string   `json:"workflow_id"`
	IsValid    bool     `json:"is_valid"`
	Messages   []string `json:"messages"`
}

// QueryResult is returned by the MAS query endpoint.
type QueryResult struct {
	MASID         string  `json:"mas_id"`
	Query         string  `json:"query"`
	Response      string  `json:"response"`
	ExecutionTime float64 `json:"execution_time"`
}

// UploadResult describes an uploaded MCP server file.
type UploadResult struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Message  string `json:"message"`
}

// LLMConfig describes one model connection in the system configuration.
type LLMConfig struct {
	Name          string         `json:"name"`
	APIKey        *string        `json:"api_key,omitempty"`
	BaseURL       *string        `json:"base_url,omitempty"`
	ModelName     *string        `json:"model_name,omitempty"`
	DefaultParams map[string]any `json:"default_params,omitempty"`
}

// DatabaseConfig describes one external data source.
type DatabaseConfig struct {
	Type             string         `json:"type"`
	ConnectionString *string        `json:"connection_string,omitempty"`
	Config           map[string]any `json:"config,omitempty"`
}

// SystemConfig is the system configuration. When used as an update, nil
// fields are left unchanged.
type SystemConfig struct {
	LLMConfigs       []LLMConfig      `json:"llm_configs,omitempty"`
	DatabaseConfigs  []DatabaseConfig `json:"database_configs,omitempty"`
	LogLevel         *string          `json:"log_level,omitempty"`
	CacheDir         *string          `json:"cache_dir,omitempty"`
	AdditionalConfig map[string]any   `json:"additional_config,omitempty"`
}

// SystemStatus reports uptime and registry counts.
type SystemStatus struct {
	Version                  string  `json:"version"`
	Status                   string  `json:"status"`
	Uptime                   float64 `json:"uptime"`
	ActiveMASCount           int     `json:"active_mas_count"`
	RegisteredAgentsCount    int     `json:"registered_agents_count"`
	RegisteredToolsCount     int     `json:"registered_tools_count"`
	RegisteredWorkflowsCount int     `json:"registered_workflows_count"`
}

// ImportResult describes an applied configuration import.
type ImportResult struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	AppliedFields []string `json:"applied_fields"`
}

// StatusMessage is the generic {status, message} acknowledgement.
type StatusMessage struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	DownloadURL string `json:"download_url,omitempty"`
}
