package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/callhubmcp/callhubmcp/internal/activation"
)

// ─── Inputs / outputs ──────────────────────────────────────────────────────

type ProcessCsvInput struct {
	AccountArg
	Content string `json:"content,omitempty" jsonschema:"raw CSV content"`
	Path    string `json:"path,omitempty" jsonschema:"path to a CSV file on disk, used when content is empty"`
}

type ProcessCsvOutput struct {
	Count   int                 `json:"count"`
	Records []activation.Record `json:"records"`
}

type ExportUrlsInput struct {
	AccountArg
}

type ActivateAgentsInput struct {
	AccountArg
	Content   string `json:"content,omitempty" jsonschema:"raw CSV content with activation URLs"`
	Path      string `json:"path,omitempty" jsonschema:"path to a CSV file, used when content is empty"`
	Password  string `json:"password" jsonschema:"password to set for every agent, at least 8 characters"`
	BatchSize int    `json:"batchSize,omitempty" jsonschema:"agents per batch, defaults to 10"`
}

type ActivateAgentsOutput struct {
	Account string                 `json:"account"`
	Result  activation.BatchResult `json:"result"`
}

type ProgressInput struct {
	AccountArg
}

type ProgressOutput struct {
	Account        string `json:"account"`
	Exists         bool   `json:"exists"`
	InProgress     bool   `json:"inProgress"`
	CompletedCount int    `json:"completedCount"`
	TotalCount     int    `json:"totalCount"`
	LogFile        string `json:"logFile,omitempty"`
	LastUpdated    string `json:"lastUpdated,omitempty"`
	Message        string `json:"message,omitempty"`
}

type ResetOutput struct {
	Account string `json:"account"`
	Message string `json:"message"`
}

// ─── Registration ──────────────────────────────────────────────────────────

func registerActivationTools(server *mcp.Server, reg *Registry) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "processActivationCsv",
		Description: "Parse a CSV of agent activation URLs (from content or a file path) " +
			"and return the extracted records.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in ProcessCsvInput) (*mcp.CallToolResult, ProcessCsvOutput, error) {
		records, err := loadRecords(in.Content, in.Path)
		if err != nil {
			return errorResult(err), ProcessCsvOutput{}, nil
		}
		return nil, ProcessCsvOutput{Count: len(records), Records: records}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "exportActivationUrls",
		Description: "Export pending agent activation URLs from CallHub and return the parsed records. " +
			"Runs the export job remotely and polls until the file is ready.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ExportUrlsInput) (*mcp.CallToolResult, ProcessCsvOutput, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return errorResult(err), ProcessCsvOutput{}, nil
		}
		records, err := reg.Exporter.Export(ctx, acct)
		if err != nil {
			return errorResult(err), ProcessCsvOutput{}, nil
		}
		return nil, ProcessCsvOutput{Count: len(records), Records: records}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "activateAgents",
		Description: "Activate agents by setting their password via each activation URL, in batches " +
			"with resumable progress. Agents already activated on a previous run are skipped.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ActivateAgentsInput) (*mcp.CallToolResult, ActivateAgentsOutput, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return errorResult(err), ActivateAgentsOutput{}, nil
		}
		records, err := loadRecords(in.Content, in.Path)
		if err != nil {
			return errorResult(err), ActivateAgentsOutput{}, nil
		}
		result, err := reg.Runner.RunBatch(ctx, acct, records, in.Password, in.BatchSize)
		if err != nil {
			return errorResult(err), ActivateAgentsOutput{}, nil
		}
		return nil, ActivateAgentsOutput{Account: acct, Result: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "getActivationProgress",
		Description: "Report the progress of the account's activation job.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in ProgressInput) (*mcp.CallToolResult, ProgressOutput, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return errorResult(err), ProgressOutput{}, nil
		}
		job, err := reg.Store.Load(acct)
		if err != nil {
			return errorResult(err), ProgressOutput{}, nil
		}

		out := ProgressOutput{Account: acct}
		if len(job.Records) == 0 && !job.InProgress {
			out.Message = "No activation job in progress for this account"
			return nil, out, nil
		}
		out.Exists = true
		out.InProgress = job.InProgress
		out.CompletedCount = job.CompletedCount
		out.TotalCount = job.TotalCount
		out.LogFile = job.LogFilePath
		if !job.UpdatedAt.IsZero() {
			out.LastUpdated = job.UpdatedAt.Format("2006-01-02 15:04:05")
		}
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resetActivationProgress",
		Description: "Discard the account's saved activation progress so the next run starts fresh.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in ProgressInput) (*mcp.CallToolResult, ResetOutput, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return errorResult(err), ResetOutput{}, nil
		}
		if err := reg.Store.Reset(acct); err != nil {
			return errorResult(fmt.Errorf("resetting activation progress: %w", err)), ResetOutput{}, nil
		}
		return nil, ResetOutput{Account: acct, Message: "Activation progress has been reset"}, nil
	})
}

// loadRecords parses activation records from inline content or a file.
func loadRecords(content, path string) ([]activation.Record, error) {
	switch {
	case content != "":
		return activation.ParseCSV(strings.NewReader(content))
	case path != "":
		records, err := activation.ParseCSVFile(path)
		if os.IsNotExist(err) {
			return nil, &activation.ValidationError{Reason: "could not find file: " + path}
		}
		return records, err
	default:
		return nil, &activation.ValidationError{Reason: "either content or path is required"}
	}
}
