// Package tool 管理工具定义（function、mcp、api 三类），并负责保存上传的 MCP 服务实现。
package tool
