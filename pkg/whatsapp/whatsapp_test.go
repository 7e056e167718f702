package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNumber(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"+919876543210", true},
		{"14155552671", true},
		{"+12", true},
		{"+0123456789", false},
		{"+1", false},
		{"+1234567890123456", false},
		{"+91 98765 43210", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateNumber(tt.number))
		})
	}
}

func TestCloudClientSendsTextMessage(t *testing.T) {
	var got textMessage
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewCloudClient(srv.URL+"/", "12345", "token", "Student Portal")
	require.NoError(t, c.SendVerificationMessage(context.Background(), "Asha", "+919876543210", "http://localhost/verify-email?token=x"))

	assert.Equal(t, "Bearer token", auth)
	assert.Equal(t, "/12345/messages", path)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "919876543210", got.To)
	assert.Contains(t, got.Text.Body, "http://localhost/verify-email?token=x")
}

func TestCloudClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","code":190}}`))
	}))
	defer srv.Close()

	c := NewCloudClient(srv.URL, "12345", "bad", "Student Portal")

	err := c.SendWelcomeMessage(context.Background(), "Asha", "+919876543210")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid OAuth access token.")

	assert.Error(t, c.SendWelcomeMessage(context.Background(), "Asha", "not-a-number"))
}

func TestLogMessenger(t *testing.T) {
	m := LogMessenger{AppName: "Student Portal"}
	assert.NoError(t, m.SendWelcomeMessage(context.Background(), "Asha", "+919876543210"))
	assert.NoError(t, m.SendVerificationMessage(context.Background(), "Asha", "+919876543210", "link"))
}
