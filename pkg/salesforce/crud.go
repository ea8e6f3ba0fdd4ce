package salesforce

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// CreateTask creates a follow-up Task record and returns the new
// Salesforce ID.
func CreateTask(ctx context.Context, c Client, fields map[string]any) (string, error) {
	if fields["Subject"] == nil || fields["Subject"] == "" {
		return "", eris.New("sf: task Subject is required")
	}
	id, err := c.InsertOne(ctx, "Task", fields)
	if err != nil {
		return "", eris.Wrap(err, "sf: create task")
	}
	return id, nil
}

// CreateCase opens a Case record and returns the new Salesforce ID.
func CreateCase(ctx context.Context, c Client, fields map[string]any) (string, error) {
	if fields["Subject"] == nil || fields["Subject"] == "" {
		return "", eris.New("sf: case Subject is required")
	}
	id, err := c.InsertOne(ctx, "Case", fields)
	if err != nil {
		return "", eris.Wrap(err, "sf: create case")
	}
	return id, nil
}

// UpdateContact updates a Contact record with the given fields.
func UpdateContact(ctx context.Context, c Client, contactID string, fields map[string]any) error {
	if contactID == "" {
		return eris.New("sf: contact id is required")
	}
	if len(fields) == 0 {
		return eris.New("sf: no fields to update")
	}
	if err := c.UpdateOne(ctx, "Contact", contactID, fields); err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: update contact %s", contactID))
	}
	return nil
}
