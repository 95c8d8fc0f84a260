package chatwork

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/opsrelay/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "https://chat.example.com/v2", Room: "1"})
	require.Error(t, err)
}

func TestSendPostsFormWithTokenHeader(t *testing.T) {
	var (
		gotPath   string
		gotToken  string
		gotBody   string
		gotMethod string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-ChatWorkToken")
		require.NoError(t, r.ParseForm())
		gotBody = r.PostForm.Get("body")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL + "/v2/", Room: "42", Token: "secret"})
	require.NoError(t, err)

	err = client.Send(context.Background(), notify.Message{
		Title: "Deploy finished",
		Text:  "Prod deployment succeeded",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v2/rooms/42/messages", gotPath)
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "Deploy finished\nProd deployment succeeded", gotBody)
}

func TestSendMakesOneAttemptOnError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, Room: "1", Token: "t", TokenHeader: "X-Custom"})
	require.NoError(t, err)

	err = client.Send(context.Background(), notify.Message{Text: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendSkipsEmptyBody(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://127.0.0.1:1", Room: "1", Token: "t"})
	require.NoError(t, err)
	assert.NoError(t, client.Send(context.Background(), notify.Message{}))
}
