package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTask(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v3/objects/tasks", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"901","properties":{"hs_task_subject":"Follow up"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	resp, err := client.CreateTask(context.Background(), TaskInput{
		Subject:  "Follow up",
		Priority: "HIGH",
	})
	require.NoError(t, err)

	assert.Equal(t, "901", resp.ID)
	assert.Equal(t, "Bearer test-token", gotAuth)
	props := gotBody["properties"].(map[string]any)
	assert.Equal(t, "Follow up", props["hs_task_subject"])
	assert.Equal(t, "HIGH", props["hs_task_priority"])
}

func TestCreateTaskRequiresSubject(t *testing.T) {
	client := NewClient("test-token")
	_, err := client.CreateTask(context.Background(), TaskInput{Body: "no subject"})
	assert.Error(t, err)
}

func TestCreateTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v3/objects/tickets", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"55"}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL))
	resp, err := client.CreateTicket(context.Background(), TicketInput{Subject: "Escalation"})
	require.NoError(t, err)
	assert.Equal(t, "55", resp.ID)
}

func TestUpdateContact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/crm/v3/objects/contacts/301", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"301","properties":{"sentiment_flag":"negative"}}`))
	}))
	defer srv.Close()

	client := NewClient("tok", WithBaseURL(srv.URL))
	resp, err := client.UpdateContact(context.Background(), "301", map[string]string{"sentiment_flag": "negative"})
	require.NoError(t, err)
	assert.Equal(t, "negative", resp.Properties["sentiment_flag"])
}

func TestUpdateContactRequiresID(t *testing.T) {
	client := NewClient("tok")
	_, err := client.UpdateContact(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid token"}`))
	}))
	defer srv.Close()

	client := NewClient("bad", WithBaseURL(srv.URL))
	_, err := client.CreateTask(context.Background(), TaskInput{Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
}
