package brevo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parker-electrical/internal/domain"
)

func testEmail() domain.Email {
	return domain.Email{
		Sender:   domain.Address{Name: "Parker Electrical Solutions", Email: "pesolutions.ltd@hotmail.com"},
		To:       []domain.Address{{Email: "joe@example.com"}},
		ReplyTo:  &domain.Address{Email: "alice@example.com"},
		Subject:  "New Quote Request",
		HTMLBody: "<p>hi</p>",
		TextBody: "hi",
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("xkeysib-test", WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
	require.NoError(t, err)
	return c
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_EmptyKey(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("k", WithBaseURL(" "))
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, c.baseURL)
	require.Equal(t, "https://api.brevo.com/v3/smtp/email", sendURL(c.baseURL))
}

// ---------------------------------------------------------------------------
// Client.Send
// ---------------------------------------------------------------------------

func TestSend_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/smtp/email", r.URL.Path)
		require.Equal(t, "xkeysib-test", r.Header.Get("api-key"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		require.Equal(t, "New Quote Request", got["subject"])
		require.Equal(t, "<p>hi</p>", got["htmlContent"])
		require.Equal(t, "hi", got["textContent"])
		require.Equal(t, map[string]any{"name": "Parker Electrical Solutions", "email": "pesolutions.ltd@hotmail.com"}, got["sender"])
		require.Equal(t, []any{map[string]any{"email": "joe@example.com"}}, got["to"])
		require.Equal(t, map[string]any{"email": "alice@example.com"}, got["replyTo"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<201@smtp-relay.mailin.fr>"}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(t, srv).Send(context.Background(), testEmail()))
}

func TestSend_OmitsEmptyReplyTo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		_, ok := got["replyTo"]
		require.False(t, ok)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	email := testEmail()
	email.ReplyTo = nil
	require.NoError(t, newTestClient(t, srv).Send(context.Background(), email))
}

func TestSend_NoRecipients(t *testing.T) {
	c, err := NewClient("k")
	require.NoError(t, err)
	email := testEmail()
	email.To = nil
	require.ErrorContains(t, c.Send(context.Background(), email), "recipient")
}

func TestSend_Non2xx(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"code":"unauthorized","message":"Key not found"}`))
		}))

		err := newTestClient(t, srv).Send(context.Background(), testEmail())
		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, status, statusErr.HTTPStatusCode())
		require.Contains(t, err.Error(), "Key not found")
		srv.Close()
	}
}

func TestSend_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	err := newTestClient(t, srv).Send(context.Background(), testEmail())
	require.ErrorContains(t, err, "decode response")
}

func TestSend_NetworkError(t *testing.T) {
	c, err := NewClient("k", WithBaseURL("http://127.0.0.1:1"), WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}))
	require.NoError(t, err)

	err = c.Send(context.Background(), testEmail())
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
}
