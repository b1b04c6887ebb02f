// Package tools exposes the CallHub API and the agent activation workflow
// as MCP tools. Handlers return structured outputs; failures come back as
// tool-level error results carrying endpoint and account context, never as
// protocol errors.
package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/callhubmcp/callhubmcp/internal/account"
	"github.com/callhubmcp/callhubmcp/internal/activation"
	"github.com/callhubmcp/callhubmcp/internal/callhub"
)

// Registry bundles everything the tool handlers need.
type Registry struct {
	Resolver *account.Resolver
	Env      *account.EnvFile
	Service  *callhub.Service
	Store    *activation.Store
	Runner   *activation.Runner
	Exporter *activation.Exporter
}

// Register adds every tool to the server.
func Register(server *mcp.Server, reg *Registry) {
	registerAccountTools(server, reg)
	registerEndpointTools(server, reg)
	registerActivationTools(server, reg)
}

// errorResult converts an error into a tool-level error result. API
// errors already carry endpoint, account and attempt context in their
// message.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// ResultOutput is the generic structured output for endpoint tools: the
// decoded CallHub response plus the account it came from.
type ResultOutput struct {
	Account string         `json:"account"`
	Result  callhub.Result `json:"result"`
}

func output(acct string, res callhub.Result) ResultOutput {
	return ResultOutput{Account: acct, Result: res}
}
