package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/callhubmcp/callhubmcp/internal/callhub"
)

// AccountArg is embedded by every endpoint tool input.
type AccountArg struct {
	Account string `json:"account,omitempty" jsonschema:"CallHub account name, defaults to the default account"`
}

// PageArgs is embedded by list tool inputs.
type PageArgs struct {
	Page     int `json:"page,omitempty" jsonschema:"page number, 1-based"`
	PageSize int `json:"pageSize,omitempty" jsonschema:"results per page"`
}

func (p PageArgs) page() callhub.Page {
	return callhub.Page{Page: p.Page, PageSize: p.PageSize}
}

// wrap adapts an endpoint call into an MCP handler. Errors become
// tool-level error results, never protocol errors.
func wrap[In any](fn func(ctx context.Context, in In) (string, callhub.Result, error)) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, ResultOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, ResultOutput, error) {
		acct, res, err := fn(ctx, in)
		if err != nil {
			return errorResult(err), ResultOutput{}, nil
		}
		return nil, output(acct, res), nil
	}
}

// accountName canonicalizes the requested account so outputs echo the
// resolved name, and bad account names fail before any request is made.
func (r *Registry) accountName(requested string) (string, error) {
	acct, err := r.Resolver.Resolve(requested)
	if err != nil {
		return "", err
	}
	return acct.Name, nil
}

// ─── Input types ───────────────────────────────────────────────────────────

type ListInput struct {
	AccountArg
	PageArgs
}

type IDInput struct {
	AccountArg
	ID string `json:"id" jsonschema:"resource ID"`
}

type CreatePhonebookInput struct {
	AccountArg
	Name        string `json:"name" jsonschema:"phonebook name"`
	Description string `json:"description,omitempty"`
}

type UpdatePhonebookInput struct {
	AccountArg
	ID          string `json:"id" jsonschema:"phonebook ID"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type CreateContactInput struct {
	AccountArg
	Fields map[string]string `json:"fields" jsonschema:"contact fields, the phone number goes in the contact field"`
}

type UpdateContactInput struct {
	AccountArg
	ID     string            `json:"id" jsonschema:"contact ID"`
	Fields map[string]string `json:"fields"`
}

type BulkCreateContactsInput struct {
	AccountArg
	PhonebookID string           `json:"phonebookId"`
	Contacts    []map[string]any `json:"contacts"`
}

type CreateAgentInput struct {
	AccountArg
	Email    string `json:"email"`
	Username string `json:"username"`
	Team     string `json:"team,omitempty"`
}

type CreateTagInput struct {
	AccountArg
	Name string `json:"name"`
}

type CreateTeamInput struct {
	AccountArg
	Name string `json:"name"`
}

type AddAgentToTeamInput struct {
	AccountArg
	TeamID  string `json:"teamId"`
	AgentID string `json:"agentId"`
}

type RentNumberInput struct {
	AccountArg
	CountryISO string `json:"countryIso" jsonschema:"two-letter country code"`
	AreaCode   string `json:"areaCode,omitempty"`
	Prefix     string `json:"prefix,omitempty"`
	SetupFee   bool   `json:"setupFee,omitempty"`
}

type CreateDncContactInput struct {
	AccountArg
	DncListID   string `json:"dncListId"`
	PhoneNumber string `json:"phoneNumber"`
}

type CreateWebhookInput struct {
	AccountArg
	Event  string `json:"event" jsonschema:"event name, e.g. cc.notes"`
	Target string `json:"target" jsonschema:"callback URL"`
}

type CampaignStatusInput struct {
	AccountArg
	ID     string `json:"id" jsonschema:"campaign ID"`
	Status string `json:"status" jsonschema:"one of start, pause, abort, end"`
}

// ─── Registration ──────────────────────────────────────────────────────────

func registerEndpointTools(server *mcp.Server, reg *Registry) {
	svc := reg.Service

	// Phonebooks
	mcp.AddTool(server, &mcp.Tool{
		Name:        "listPhonebooks",
		Description: "List phonebooks for a CallHub account.",
	}, wrap(func(ctx context.Context, in ListInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListPhonebooks(ctx, acct, in.page())
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "getPhonebook",
		Description: "Get a phonebook by ID.",
	}, wrap(func(ctx context.Context, in IDInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.GetPhonebook(ctx, acct, in.ID)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "createPhonebook",
		Description: "Create a phonebook.",
	}, wrap(func(ctx context.Context, in CreatePhonebookInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.CreatePhonebook(ctx, acct, in.Name, in.Description)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "updatePhonebook",
		Description: "Update a phonebook's name and/or description.",
	}, wrap(func(ctx context.Context, in UpdatePhonebookInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.UpdatePhonebook(ctx, acct, in.ID, in.Name, in.Description)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deletePhonebook",
		Description: "Delete a phonebook by ID.",
	}, wrap(func(ctx context.Context, in IDInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.DeletePhonebook(ctx, acct, in.ID)
		return acct, res, err
	}))

	// Contacts
	mcp.AddTool(server, &mcp.Tool{
		Name:        "listContacts",
		Description: "List contacts for a CallHub account.",
	}, wrap(func(ctx context.Context, in ListInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListContacts(ctx, acct, in.page())
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "getContact",
		Description: "Get a contact by ID.",
	}, wrap(func(ctx context.Context, in IDInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.GetContact(ctx, acct, in.ID)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "createContact",
		Description: "Create a single contact. The phone number goes in the contact field.",
	}, wrap(func(ctx context.Context, in CreateContactInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.CreateContact(ctx, acct, in.Fields)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bulkCreateContacts",
		Description: "Upload many contacts into a phonebook at once. CallHub allows one bulk upload per minute per account.",
	}, wrap(func(ctx context.Context, in BulkCreateContactsInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.BulkCreateContacts(ctx, acct, in.PhonebookID, in.Contacts)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "updateContact",
		Description: "Update contact fields by ID.",
	}, wrap(func(ctx context.Context, in UpdateContactInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.UpdateContact(ctx, acct, in.ID, in.Fields)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deleteContact",
		Description: "Delete a contact by ID.",
	}, wrap(func(ctx context.Context, in IDInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.DeleteContact(ctx, acct, in.ID)
		return acct, res, err
	}))

	// Agents
	mcp.AddTool(server, &mcp.Tool{
		Name:        "listAgents",
		Description: "List agents for a CallHub account.",
	}, wrap(func(ctx context.Context, in ListInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListAgents(ctx, acct, in.page())
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "getAgent",
		Description: "Get an agent by ID.",
	}, wrap(func(ctx context.Context, in IDInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.GetAgent(ctx, acct, in.ID)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "createAgent",
		Description: "Invite an agent by email and username. The agent finishes signup through the activation workflow.",
	}, wrap(func(ctx context.Context, in CreateAgentInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.CreateAgent(ctx, acct, in.Email, in.Username, in.Team)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deleteAgent",
		Description: "Delete an agent by ID.",
	}, wrap(func(ctx context.Context, in IDInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.DeleteAgent(ctx, acct, in.ID)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "listPendingAgents",
		Description: "List agents that have not completed activation yet.",
	}, wrap(func(ctx context.Context, in ListInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListPendingAgents(ctx, acct, in.page())
		return acct, res, err
	}))

	// Tags and teams
	mcp.AddTool(server, &mcp.Tool{
		Name:        "listTags",
		Description: "List contact tags.",
	}, wrap(func(ctx context.Context, in ListInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListTags(ctx, acct, in.page())
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "createTag",
		Description: "Create a contact tag.",
	}, wrap(func(ctx context.Context, in CreateTagInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.CreateTag(ctx, acct, in.Name)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deleteTag",
		Description: "Delete a tag by ID.",
	}, wrap(func(ctx context.Context, in IDInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.DeleteTag(ctx, acct, in.ID)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "listTeams",
		Description: "List agent teams.",
	}, wrap(func(ctx context.Context, in ListInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListTeams(ctx, acct, in.page())
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "createTeam",
		Description: "Create an agent team.",
	}, wrap(func(ctx context.Context, in CreateTeamInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.CreateTeam(ctx, acct, in.Name)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "addAgentToTeam",
		Description: "Assign an agent to a team.",
	}, wrap(func(ctx context.Context, in AddAgentToTeamInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.AddAgentToTeam(ctx, acct, in.TeamID, in.AgentID)
		return acct, res, err
	}))

	// Numbers
	mcp.AddTool(server, &mcp.Tool{
		Name:        "listRentedNumbers",
		Description: "List rented calling numbers (caller IDs).",
	}, wrap(func(ctx context.Context, in AccountArg) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListRentedNumbers(ctx, acct)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "listValidatedNumbers",
		Description: "List validated personal numbers usable as caller IDs.",
	}, wrap(func(ctx context.Context, in AccountArg) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListValidatedNumbers(ctx, acct)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rentNumber",
		Description: "Rent a phone number. CallHub allows one rental per minute per account.",
	}, wrap(func(ctx context.Context, in RentNumberInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.RentNumber(ctx, acct, in.CountryISO, in.AreaCode, in.Prefix, in.SetupFee)
		return acct, res, err
	}))

	// DNC
	mcp.AddTool(server, &mcp.Tool{
		Name:        "listDncLists",
		Description: "List Do-Not-Call lists.",
	}, wrap(func(ctx context.Context, in ListInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListDncLists(ctx, acct, in.page())
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "createDncContact",
		Description: "Add a phone number to a DNC list.",
	}, wrap(func(ctx context.Context, in CreateDncContactInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.CreateDncContact(ctx, acct, in.DncListID, in.PhoneNumber)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deleteDncContact",
		Description: "Remove an entry from a DNC list.",
	}, wrap(func(ctx context.Context, in IDInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.DeleteDncContact(ctx, acct, in.ID)
		return acct, res, err
	}))

	// Webhooks
	mcp.AddTool(server, &mcp.Tool{
		Name:        "listWebhooks",
		Description: "List registered webhooks.",
	}, wrap(func(ctx context.Context, in AccountArg) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListWebhooks(ctx, acct)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "createWebhook",
		Description: "Register a webhook for an event.",
	}, wrap(func(ctx context.Context, in CreateWebhookInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.CreateWebhook(ctx, acct, in.Event, in.Target)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deleteWebhook",
		Description: "Delete a webhook by ID.",
	}, wrap(func(ctx context.Context, in IDInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.DeleteWebhook(ctx, acct, in.ID)
		return acct, res, err
	}))

	// Users and campaigns
	mcp.AddTool(server, &mcp.Tool{
		Name:        "getCurrentUser",
		Description: "Get the authenticated user's profile.",
	}, wrap(func(ctx context.Context, in AccountArg) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.GetCurrentUser(ctx, acct)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "listCallCampaigns",
		Description: "List call-center campaigns.",
	}, wrap(func(ctx context.Context, in ListInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListCallCampaigns(ctx, acct, in.page())
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "updateCampaignStatus",
		Description: "Start, pause, abort or end a call-center campaign.",
	}, wrap(func(ctx context.Context, in CampaignStatusInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.UpdateCampaignStatus(ctx, acct, in.ID, in.Status)
		return acct, res, err
	}))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "listSmsCampaigns",
		Description: "List SMS campaigns.",
	}, wrap(func(ctx context.Context, in ListInput) (string, callhub.Result, error) {
		acct, err := reg.accountName(in.Account)
		if err != nil {
			return "", nil, err
		}
		res, err := svc.ListSmsCampaigns(ctx, acct, in.page())
		return acct, res, err
	}))
}
