package crm

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/pkg/salesforce"
)

// SalesforceProvider performs CRM actions against Salesforce.
type SalesforceProvider struct {
	client salesforce.Client
}

// NewSalesforceProvider wraps a Salesforce client as a CRM provider.
func NewSalesforceProvider(client salesforce.Client) *SalesforceProvider {
	return &SalesforceProvider{client: client}
}

func (p *SalesforceProvider) Name() string { return "salesforce" }

// Perform maps the generic action tags onto Salesforce objects: tasks,
// cases, and contact updates.
func (p *SalesforceProvider) Perform(ctx context.Context, action string, data map[string]any) (*Result, error) {
	switch action {
	case ActionCreateTask:
		fields := map[string]any{
			"Subject":     data["subject"],
			"Description": data["description"],
			"Priority":    priorityOrDefault(data, "Normal"),
			"Status":      "Open",
		}
		if whoID, ok := data["contact_id"].(string); ok && whoID != "" {
			fields["WhoId"] = whoID
		}
		id, err := salesforce.CreateTask(ctx, p.client, fields)
		if err != nil {
			return nil, err
		}
		return &Result{Data: map[string]any{"id": id}}, nil

	case ActionCreateCase:
		fields := map[string]any{
			"Subject":     data["subject"],
			"Description": data["description"],
			"Priority":    priorityOrDefault(data, "Medium"),
			"Origin":      "Web",
		}
		id, err := salesforce.CreateCase(ctx, p.client, fields)
		if err != nil {
			return nil, err
		}
		return &Result{Data: map[string]any{"id": id}}, nil

	case ActionUpdateContact:
		contactID, _ := data["contact_id"].(string)
		fields, _ := data["fields"].(map[string]any)
		if err := salesforce.UpdateContact(ctx, p.client, contactID, fields); err != nil {
			return nil, err
		}
		return &Result{Data: map[string]any{"id": contactID}}, nil

	default:
		return nil, eris.New(fmt.Sprintf("crm: salesforce does not support action %q", action))
	}
}

func priorityOrDefault(data map[string]any, def string) string {
	if p, ok := data["priority"].(string); ok && p != "" {
		return p
	}
	return def
}
