package crm

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/pkg/hubspot"
)

// HubspotProvider performs CRM actions against HubSpot.
type HubspotProvider struct {
	client hubspot.Client
}

// NewHubspotProvider wraps a HubSpot client as a CRM provider.
func NewHubspotProvider(client hubspot.Client) *HubspotProvider {
	return &HubspotProvider{client: client}
}

func (p *HubspotProvider) Name() string { return "hubspot" }

// Perform maps the generic action tags onto HubSpot objects. Cases have
// no direct HubSpot equivalent, so create_case opens a ticket.
func (p *HubspotProvider) Perform(ctx context.Context, action string, data map[string]any) (*Result, error) {
	switch action {
	case ActionCreateTask:
		resp, err := p.client.CreateTask(ctx, hubspot.TaskInput{
			Subject:  str(data, "subject"),
			Body:     str(data, "description"),
			Status:   "NOT_STARTED",
			Priority: asHubspotPriority(str(data, "priority")),
		})
		if err != nil {
			return nil, err
		}
		return &Result{Data: map[string]any{"id": resp.ID}}, nil

	case ActionCreateCase:
		resp, err := p.client.CreateTicket(ctx, hubspot.TicketInput{
			Subject: str(data, "subject"),
			Content: str(data, "description"),
		})
		if err != nil {
			return nil, err
		}
		return &Result{Data: map[string]any{"id": resp.ID}}, nil

	case ActionUpdateContact:
		contactID := str(data, "contact_id")
		props := make(map[string]string)
		if fields, ok := data["fields"].(map[string]any); ok {
			for k, v := range fields {
				props[k] = fmt.Sprint(v)
			}
		}
		resp, err := p.client.UpdateContact(ctx, contactID, props)
		if err != nil {
			return nil, err
		}
		return &Result{Data: map[string]any{"id": resp.ID}}, nil

	default:
		return nil, eris.New(fmt.Sprintf("crm: hubspot does not support action %q", action))
	}
}

func str(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func asHubspotPriority(p string) string {
	switch p {
	case "High", "HIGH", "Urgent":
		return "HIGH"
	case "Low", "LOW":
		return "LOW"
	default:
		return "MEDIUM"
	}
}
