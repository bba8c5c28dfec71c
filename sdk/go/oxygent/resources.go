package oxygent

import (
	"context"
	"io"
	"net/http"
)

// ListAgents returns all agents in registration order.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var out []Agent
	err := c.send(ctx, http.MethodGet, "/api/v1/agents/", nil, &out)
	return out, err
}

// CreateAgent registers a new agent.
func (c *Client) CreateAgent(ctx context.Context, in Agent) (Agent, error) {
	var out Agent
	err := c.send(ctx, http.MethodPost, "/api/v1/agents/", in, &out)
	return out, err
}

// GetAgent fetches an agent by id.
func (c *Client) GetAgent(ctx context.Context, id string) (Agent, error) {
	var out Agent
	err := c.send(ctx, http.MethodGet, resourcePath("agents", id), nil, &out)
	return out, err
}

// UpdateAgent merges the provided fields into an agent.
func (c *Client) UpdateAgent(ctx context.Context, id string, patch map[string]any) (Agent, error) {
	var out Agent
	err := c.send(ctx, http.MethodPut, resourcePath("agents", id), patch, &out)
	return out, err
}

// DeleteAgent removes an agent.
func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, resourcePath("agents", id), nil, nil)
}

// TestAgent runs an agent against sample input.
func (c *Client) TestAgent(ctx context.Context, id string, input map[string]any) (ActionResult, error) {
	if input == nil {
		input = map[string]any{}
	}
	var out ActionResult
	err := c.send(ctx, http.MethodPost, resourcePath("agents", id, "test"), input, &out)
	return out, err
}

// ListTools returns all tools in registration order.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var out []Tool
	err := c.send(ctx, http.MethodGet, "/api/v1/tools/", nil, &out)
	return out, err
}

// CreateTool registers a new tool.
func (c *Client) CreateTool(ctx context.Context, in Tool) (Tool, error) {
	var out Tool
	err := c.send(ctx, http.MethodPost, "/api/v1/tools/", in, &out)
	return out, err
}

// GetTool fetches a tool by id.
func (c *Client) GetTool(ctx context.Context, id string) (Tool, error) {
	var out Tool
	err := c.send(ctx, http.MethodGet, resourcePath("tools", id), nil, &out)
	return out, err
}

// UpdateTool merges the provided fields into a tool.
func (c *Client) UpdateTool(ctx context.Context, id string, patch map[string]any) (Tool, error) {
	var out Tool
	err := c.send(ctx, http.MethodPut, resourcePath("tools", id), patch, &out)
	return out, err
}

// DeleteTool removes a tool.
func (c *Client) DeleteTool(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, resourcePath("tools", id), nil, nil)
}

// TestTool runs a tool against sample input.
func (c *Client) TestTool(ctx context.Context, id string, input map[string]any) (ActionResult, error) {
	var out ActionResult
	err := c.send(ctx, http.MethodPost, resourcePath("tools", id, "test"), map[string]any{"input_data": input}, &out)
	return out, err
}

// UploadMCPServer uploads an MCP server implementation file.
func (c *Client) UploadMCPServer(ctx context.Context, filename string, content io.Reader) (UploadResult, error) {
	var out UploadResult
	err := c.upload(ctx, "/api/v1/tools/upload-mcp-server", filename, content, &out)
	return out, err
}

// ListWorkflows returns all workflows in registration order.
func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var out []Workflow
	err := c.send(ctx, http.MethodGet, "/api/v1/workflows/", nil, &out)
	return out, err
}

// CreateWorkflow registers a new workflow.
func (c *Client) CreateWorkflow(ctx context.Context, in Workflow) (Workflow, error) {
	var out Workflow
	err := c.send(ctx, http.MethodPost, "/api/v1/workflows/", in, &out)
	return out, err
}

// GetWorkflow fetches a workflow by id.
func (c *Client) GetWorkflow(ctx context.Context, id string) (Workflow, error) {
	var out Workflow
	err := c.send(ctx, http.MethodGet, resourcePath("workflows", id), nil, &out)
	return out, err
}

// UpdateWorkflow merges the provided fields into a workflow.
func (c *Client) UpdateWorkflow(ctx context.Context, id string, patch map[string]any) (Workflow, error) {
	var out Workflow
	err := c.send(ctx, http.MethodPut, resourcePath("workflows", id), patch, &out)
	return out, err
}

// DeleteWorkflow removes a workflow.
func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, resourcePath("workflows", id), nil, nil)
}

// RunWorkflow executes a workflow with the given input.
func (c *Client) RunWorkflow(ctx context.Context, id string, input map[string]any) (ActionResult, error) {
	var out ActionResult
	err := c.send(ctx, http.MethodPost, resourcePath("workflows", id, "run"), map[string]any{"input_data": input}, &out)
	return out, err
}

// ValidateWorkflow checks a workflow's agents and connections.
func (c *Client) ValidateWorkflow(ctx context.Context, id string) (ValidationResult, error) {
	var out ValidationResult
	err := c.send(ctx, http.MethodPost, resourcePath("workflows", id, "validate"), nil, &out)
	return out, err
}

// ListMAS returns all MAS instances in registration order.
func (c *Client) ListMAS(ctx context.Context) ([]MASInstance, error) {
	var out []MASInstance
	err := c.send(ctx, http.MethodGet, "/api/v1/mas/", nil, &out)
	return out, err
}

// CreateMAS registers a new MAS instance. New instances start inactive.
func (c *Client) CreateMAS(ctx context.Context, in MASInstance) (MASInstance, error) {
	var out MASInstance
	err := c.send(ctx, http.MethodPost, "/api/v1/mas/", in, &out)
	return out, err
}

// GetMAS fetches a MAS instance by id.
func (c *Client) GetMAS(ctx context.Context, id string) (MASInstance, error) {
	var out MASInstance
	err := c.send(ctx, http.MethodGet, resourcePath("mas", id), nil, &out)
	return out, err
}

// UpdateMAS merges the provided fields into a MAS instance.
func (c *Client) UpdateMAS(ctx context.Context, id string, patch map[string]any) (MASInstance, error) {
	var out MASInstance
	err := c.send(ctx, http.MethodPut, resourcePath("mas", id), patch, &out)
	return out, err
}

// DeleteMAS removes a MAS instance, stopping it first when active.
func (c *Client) DeleteMAS(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, resourcePath("mas", id), nil, nil)
}

// StartMAS activates a MAS instance.
func (c *Client) StartMAS(ctx context.Context, id string) (MASInstance, error) {
	var out MASInstance
	err := c.send(ctx, http.MethodPost, resourcePath("mas", id, "start"), nil, &out)
	return out, err
}

// StopMAS deactivates a MAS instance.
func (c *Client) StopMAS(ctx context.Context, id string) (MASInstance, error) {
	var out MASInstance
	err := c.send(ctx, http.MethodPost, resourcePath("mas", id, "stop"), nil, &out)
	return out, err
}

// QueryMAS sends a query to an active MAS instance.
func (c *Client) QueryMAS(ctx context.Context, id, query string) (QueryResult, error) {
	var out QueryResult
	err := c.send(ctx, http.MethodPost, resourcePath("mas", id, "query"), map[string]string{"query": query}, &out)
	return out, err
}

// SystemStatus reports uptime and registry counts.
func (c *Client) SystemStatus(ctx context.Context) (SystemStatus, error) {
	var out SystemStatus
	err := c.send(ctx, http.MethodGet, "/api/v1/system/status", nil, &out)
	return out, err
}

// SystemConfig returns the system configuration with api keys masked.
func (c *Client) SystemConfig(ctx context.Context) (SystemConfig, error) {
	var out SystemConfig
	err := c.send(ctx, http.MethodGet, "/api/v1/system/config", nil, &out)
	return out, err
}

// UpdateSystemConfig merges the non-nil fields of patch into the configuration.
func (c *Client) UpdateSystemConfig(ctx context.Context, patch SystemConfig) (SystemConfig, error) {
	var out SystemConfig
	err := c.send(ctx, http.MethodPut, "/api/v1/system/config", patch, &out)
	return out, err
}

// ImportConfig uploads a JSON or YAML configuration document.
func (c *Client) ImportConfig(ctx context.Context, filename string, content io.Reader) (ImportResult, error) {
	var out ImportResult
	err := c.upload(ctx, "/api/v1/system/import", filename, content, &out)
	return out, err
}

// ExportConfig returns the download location of the configuration document.
func (c *Client) ExportConfig(ctx context.Context) (StatusMessage, error) {
	var out StatusMessage
	err := c.send(ctx, http.MethodGet, "/api/v1/system/export", nil, &out)
	return out, err
}

// DownloadConfig returns the YAML configuration document.
func (c *Client) DownloadConfig(ctx context.Context) ([]byte, error) {
	var out []byte
	err := c.send(ctx, http.MethodGet, "/api/v1/system/download-config", nil, &out)
	return out, err
}

// Restart asks the daemon to rebuild its services.
func (c *Client) Restart(ctx context.Context) (StatusMessage, error) {
	var out StatusMessage
	err := c.send(ctx, http.MethodPost, "/api/v1/system/restart", nil, &out)
	return out, err
}
