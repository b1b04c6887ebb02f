package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/callhubmcp/callhubmcp/internal/account"
)

type ListAccountsInput struct{}

type ListAccountsOutput struct {
	Accounts []account.Info `json:"accounts"`
}

type ConfigureAccountInput struct {
	AccountName string `json:"accountName"`
	Username    string `json:"username"`
	ApiKey      string `json:"apiKey"`
	BaseUrl     string `json:"baseUrl,omitempty"`
}

type DeleteAccountInput struct {
	AccountName string `json:"accountName"`
}

// AccountActionOutput reports the outcome of a credential change.
type AccountActionOutput struct {
	Account string `json:"account"`
	Message string `json:"message"`
}

func registerAccountTools(server *mcp.Server, reg *Registry) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "listAccounts",
		Description: "List configured CallHub accounts. API keys are masked.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ ListAccountsInput) (*mcp.CallToolResult, ListAccountsOutput, error) {
		return nil, ListAccountsOutput{Accounts: reg.Resolver.List()}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "configureAccount",
		Description: "Add or update a CallHub account. Credentials are written to the .env file; baseUrl defaults to the standard CallHub API endpoint.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in ConfigureAccountInput) (*mcp.CallToolResult, AccountActionOutput, error) {
		updated, err := reg.Env.Save(account.Account{
			Name:     in.AccountName,
			Username: in.Username,
			APIKey:   in.ApiKey,
			BaseURL:  in.BaseUrl,
		})
		if err != nil {
			return errorResult(err), AccountActionOutput{}, nil
		}
		reg.Resolver.Reload()

		name := strings.ToLower(in.AccountName)
		verb := "added"
		if updated {
			verb = "updated"
		}
		return nil, AccountActionOutput{
			Account: name,
			Message: fmt.Sprintf("Account '%s' %s successfully.", name, verb),
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deleteAccount",
		Description: "Delete a CallHub account. This removes its credentials from the .env file.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in DeleteAccountInput) (*mcp.CallToolResult, AccountActionOutput, error) {
		name := strings.ToLower(in.AccountName)
		if err := reg.Env.Remove(name); err != nil {
			return errorResult(err), AccountActionOutput{}, nil
		}
		reg.Resolver.Reload()
		return nil, AccountActionOutput{
			Account: name,
			Message: fmt.Sprintf("Account '%s' deleted successfully.", name),
		}, nil
	})
}
