package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSFClient struct {
	inserted []struct {
		object string
		record map[string]any
	}
	updated []struct {
		object string
		id     string
		fields map[string]any
	}
}

func (f *fakeSFClient) InsertOne(_ context.Context, object string, record map[string]any) (string, error) {
	f.inserted = append(f.inserted, struct {
		object string
		record map[string]any
	}{object, record})
	return "003XYZ", nil
}

func (f *fakeSFClient) UpdateOne(_ context.Context, object, id string, fields map[string]any) error {
	f.updated = append(f.updated, struct {
		object string
		id     string
		fields map[string]any
	}{object, id, fields})
	return nil
}

func TestSalesforceCreateTask(t *testing.T) {
	fake := &fakeSFClient{}
	p := NewSalesforceProvider(fake)

	result, err := p.Perform(context.Background(), ActionCreateTask, map[string]any{
		"subject":     "Follow up on negative feedback",
		"description": "Customer reported billing issue",
		"contact_id":  "003ABC",
	})
	require.NoError(t, err)

	require.Len(t, fake.inserted, 1)
	assert.Equal(t, "Task", fake.inserted[0].object)
	assert.Equal(t, "Follow up on negative feedback", fake.inserted[0].record["Subject"])
	assert.Equal(t, "003ABC", fake.inserted[0].record["WhoId"])
	assert.Equal(t, "Normal", fake.inserted[0].record["Priority"])
	assert.Equal(t, "003XYZ", result.Data["id"])
}

func TestSalesforceCreateCase(t *testing.T) {
	fake := &fakeSFClient{}
	p := NewSalesforceProvider(fake)

	_, err := p.Perform(context.Background(), ActionCreateCase, map[string]any{
		"subject":  "Escalation",
		"priority": "High",
	})
	require.NoError(t, err)

	require.Len(t, fake.inserted, 1)
	assert.Equal(t, "Case", fake.inserted[0].object)
	assert.Equal(t, "High", fake.inserted[0].record["Priority"])
}

func TestSalesforceUpdateContact(t *testing.T) {
	fake := &fakeSFClient{}
	p := NewSalesforceProvider(fake)

	result, err := p.Perform(context.Background(), ActionUpdateContact, map[string]any{
		"contact_id": "003ABC",
		"fields":     map[string]any{"Sentiment_Flag__c": "negative"},
	})
	require.NoError(t, err)

	require.Len(t, fake.updated, 1)
	assert.Equal(t, "Contact", fake.updated[0].object)
	assert.Equal(t, "003ABC", fake.updated[0].id)
	assert.Equal(t, "003ABC", result.Data["id"])
}

func TestSalesforceUnknownAction(t *testing.T) {
	p := NewSalesforceProvider(&fakeSFClient{})
	_, err := p.Perform(context.Background(), "send_gift_basket", nil)
	assert.Error(t, err)
}
