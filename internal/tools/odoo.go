package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"

	"toolgate/internal/domain"
	"toolgate/internal/upstream"
)

// OdooService talks to an Odoo instance over its JSON-RPC endpoint.
// Authentication happens lazily on first use and the uid is cached for
// the lifetime of the process.
type OdooService struct {
	client   *retryablehttp.Client
	url      string
	database string
	login    string
	password string

	mu  sync.Mutex
	uid int64
}

func NewOdooService(client *retryablehttp.Client, url, database, login, password string) *OdooService {
	return &OdooService{
		client:   client,
		url:      strings.TrimRight(url, "/"),
		database: database,
		login:    login,
		password: password,
	}
}

type odooRPCRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
	ID      int            `json:"id"`
}

type odooRPCResponse struct {
	Result any `json:"result"`
	Error  *struct {
		Message string `json:"message"`
		Data    struct {
			Message string `json:"message"`
		} `json:"data"`
	} `json:"error"`
}

func (o *OdooService) rpc(ctx context.Context, service, method string, args []any) (any, error) {
	if o.url == "" {
		return nil, fmt.Errorf("Odoo connection not configured")
	}
	req := odooRPCRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params: map[string]any{
			"service": service,
			"method":  method,
			"args":    args,
		},
		ID: 1,
	}
	var resp odooRPCResponse
	if err := upstream.PostJSON(ctx, o.client, o.url+"/jsonrpc", req, nil, &resp); err != nil {
		return nil, fmt.Errorf("Odoo request failed: %w", err)
	}
	if resp.Error != nil {
		msg := resp.Error.Data.Message
		if msg == "" {
			msg = resp.Error.Message
		}
		return nil, fmt.Errorf("Odoo error: %s", msg)
	}
	return resp.Result, nil
}

// authenticate resolves and caches the numeric uid for the configured login.
func (o *OdooService) authenticate(ctx context.Context) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.uid != 0 {
		return o.uid, nil
	}
	result, err := o.rpc(ctx, "common", "authenticate", []any{o.database, o.login, o.password, map[string]any{}})
	if err != nil {
		return 0, err
	}
	uid, ok := result.(float64)
	if !ok || uid == 0 {
		return 0, fmt.Errorf("Odoo authentication failed for %q", o.login)
	}
	o.uid = int64(uid)
	return o.uid, nil
}

// execute runs execute_kw against a model.
func (o *OdooService) execute(ctx context.Context, model, method string, args []any, kw map[string]any) (any, error) {
	uid, err := o.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if kw == nil {
		kw = map[string]any{}
	}
	return o.rpc(ctx, "object", "execute_kw", []any{o.database, uid, o.password, model, method, args, kw})
}

func (o *OdooService) Tools() []Tool {
	externalModel := domain.ParameterSpec{Name: "external_model", Kind: domain.KindString, Description: "Technical name of the Odoo model, e.g. res.partner", Required: true}
	modelName := domain.ParameterSpec{Name: "model_name", Kind: domain.KindString, Description: "Technical name of the Odoo model, e.g. account.move", Required: true}
	recordParam := domain.ParameterSpec{Name: "record_id", Kind: domain.KindInteger, Description: "Numeric ID of the record", Required: true}

	return []Tool{
		{
			Def: domain.ToolDefinition{
				Name:        "odoo_get_mapped_models",
				Description: "List Odoo models accessible to the account, optionally with their field definitions",
				Params: []domain.ParameterSpec{
					{Name: "include_fields", Kind: domain.KindBoolean, Description: "Include field definitions for each model", Default: true},
					{Name: "model_name", Kind: domain.KindString, Description: "Restrict to a single model"},
				},
			},
			Handler: domain.HandlerFunc(o.mappedModels),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "odoo_fetch_records",
				Description: "Fetch records from an Odoo model with optional domain filters",
				Params: []domain.ParameterSpec{
					externalModel,
					{Name: "filters", Kind: domain.KindList, Description: "Odoo domain filter triplets, e.g. [[\"name\",\"ilike\",\"acme\"]]"},
					{Name: "fields", Kind: domain.KindList, ItemKind: domain.KindString, Description: "Fields to return; all fields when omitted"},
					{Name: "limit", Kind: domain.KindInteger, Description: "Maximum number of records", Default: 100},
				},
			},
			Handler: domain.HandlerFunc(o.fetchRecords),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "odoo_create_record",
				Description: "Create a record in an Odoo model",
				Params: []domain.ParameterSpec{
					externalModel,
					{Name: "record_data", Kind: domain.KindObject, Description: "Field values for the new record", Required: true},
				},
			},
			Handler: domain.HandlerFunc(o.createRecord),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "odoo_update_record",
				Description: "Update fields on an existing Odoo record",
				Params: []domain.ParameterSpec{
					externalModel,
					recordParam,
					{Name: "record_data", Kind: domain.KindObject, Description: "Field values to write", Required: true},
				},
			},
			Handler: domain.HandlerFunc(o.updateRecord),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "odoo_delete_record",
				Description: "Delete an Odoo record",
				Params:      []domain.ParameterSpec{externalModel, recordParam},
			},
			Handler: domain.HandlerFunc(o.deleteRecord),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "odoo_print_record",
				Description: "Render the default PDF report for a record and return its download URL",
				Params:      []domain.ParameterSpec{modelName, recordParam},
			},
			Handler: domain.HandlerFunc(o.printRecord),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "odoo_post_record",
				Description: "Post a draft document such as an invoice or journal entry",
				Params:      []domain.ParameterSpec{modelName, recordParam},
			},
			Handler: domain.HandlerFunc(o.postRecord),
		},
	}
}

func (o *OdooService) mappedModels(ctx context.Context, args domain.Args) (any, error) {
	filters := []any{[]any{"transient", "=", false}}
	if name := argString(args, "model_name"); name != "" {
		filters = append(filters, []any{"model", "=", name})
	}
	models, err := o.execute(ctx, "ir.model", "search_read", []any{filters}, map[string]any{
		"fields": []string{"model", "name"},
	})
	if err != nil {
		return nil, err
	}
	list, _ := models.([]any)

	if !argBool(args, "include_fields") {
		return map[string]any{"models": list, "count": len(list)}, nil
	}

	enriched := make([]any, 0, len(list))
	for _, m := range list {
		entry, ok := m.(map[string]any)
		if !ok {
			continue
		}
		model, _ := entry["model"].(string)
		fields, err := o.execute(ctx, model, "fields_get", []any{}, map[string]any{
			"attributes": []string{"string", "type", "required", "relation"},
		})
		if err != nil {
			// Models the account cannot introspect are listed without fields.
			enriched = append(enriched, entry)
			continue
		}
		entry["fields"] = fields
		enriched = append(enriched, entry)
	}
	return map[string]any{"models": enriched, "count": len(enriched)}, nil
}

func (o *OdooService) fetchRecords(ctx context.Context, args domain.Args) (any, error) {
	filters := []any{}
	if raw := argList(args, "filters"); raw != nil {
		filters = raw
	}
	kw := map[string]any{"limit": argInt(args, "limit")}
	if fields := argList(args, "fields"); len(fields) > 0 {
		kw["fields"] = fields
	}
	records, err := o.execute(ctx, argString(args, "external_model"), "search_read", []any{filters}, kw)
	if err != nil {
		return nil, err
	}
	list, _ := records.([]any)
	return map[string]any{"records": list, "count": len(list)}, nil
}

func (o *OdooService) createRecord(ctx context.Context, args domain.Args) (any, error) {
	id, err := o.execute(ctx, argString(args, "external_model"), "create", []any{argObject(args, "record_data")}, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"record_id": id, "model": argString(args, "external_model")}, nil
}

func (o *OdooService) updateRecord(ctx context.Context, args domain.Args) (any, error) {
	id := argInt(args, "record_id")
	_, err := o.execute(ctx, argString(args, "external_model"), "write", []any{[]any{id}, argObject(args, "record_data")}, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"record_id": id, "updated": true}, nil
}

func (o *OdooService) deleteRecord(ctx context.Context, args domain.Args) (any, error) {
	id := argInt(args, "record_id")
	_, err := o.execute(ctx, argString(args, "external_model"), "unlink", []any{[]any{id}}, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"record_id": id, "deleted": true}, nil
}

func (o *OdooService) printRecord(ctx context.Context, args domain.Args) (any, error) {
	model := argString(args, "model_name")
	id := argInt(args, "record_id")

	reports, err := o.execute(ctx, "ir.actions.report", "search_read",
		[]any{[]any{[]any{"model", "=", model}, []any{"report_type", "=", "qweb-pdf"}}},
		map[string]any{"fields": []string{"report_name", "name"}, "limit": 1})
	if err != nil {
		return nil, err
	}
	list, _ := reports.([]any)
	if len(list) == 0 {
		return nil, fmt.Errorf("no PDF report defined for model %q", model)
	}
	report, _ := list[0].(map[string]any)
	reportName, _ := report["report_name"].(string)

	return map[string]any{
		"record_id":    id,
		"report":       report["name"],
		"download_url": fmt.Sprintf("%s/report/pdf/%s/%d", o.url, reportName, id),
	}, nil
}

func (o *OdooService) postRecord(ctx context.Context, args domain.Args) (any, error) {
	id := argInt(args, "record_id")
	_, err := o.execute(ctx, argString(args, "model_name"), "action_post", []any{[]any{id}}, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"record_id": id, "posted": true}, nil
}
