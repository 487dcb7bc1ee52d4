package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lassoai/lasso-cli/internal/message"
)

func TestChatStreamSendsAuthAndReturnsBody(t *testing.T) {
	var gotAuth, gotAccept string
	var gotBody struct {
		Messages []message.Message `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode chat body: %v", err)
		}
		io.WriteString(w, "0:\"Hello\"\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	body, err := client.ChatStream(context.Background(), "tok-123", []message.Message{
		message.UserMessage("find engineers"),
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	defer body.Close()

	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("Accept = %q, want text/event-stream", gotAccept)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Text() != "find engineers" {
		t.Errorf("unexpected chat payload: %+v", gotBody.Messages)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("failed to read stream body: %v", err)
	}
	if string(data) != "0:\"Hello\"\n" {
		t.Errorf("stream body = %q", data)
	}
}

func TestChatStreamNon200ReturnsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":"rate limit exceeded"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	_, err := client.ChatStream(context.Background(), "tok", nil)
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if err.Error() != "rate limit exceeded" {
		t.Errorf("error = %q, want the backend message verbatim", err.Error())
	}
}

func TestErrorEnvelopeFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>gateway error</html>")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	_, err := client.FetchSession(context.Background(), "tok", "s1")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "request failed with status 502" {
		t.Errorf("error = %q, want status fallback", err.Error())
	}
}

func TestProfileDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profile/p42/detail" {
			t.Errorf("path = %s, want /profile/p42/detail", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer header")
		}
		io.WriteString(w, `{"profile":{"id":"p42","name":"Dana","about":"builds things"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	profile, err := client.ProfileDetail(context.Background(), "tok", "p42")
	if err != nil {
		t.Fatalf("ProfileDetail failed: %v", err)
	}
	if profile.ID != "p42" || profile.Name != "Dana" || profile.About != "builds things" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestAppendMessagesNeverSurfacesErrors(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Fire-and-forget: a failing backend must not panic or block.
	client := NewClient(srv.URL, 0)
	client.AppendMessages(context.Background(), "tok", "s1", []message.Message{
		message.UserMessage("hello"),
	})

	if gotPath != "/sessions/s1/messages/bulk" {
		t.Errorf("path = %s, want /sessions/s1/messages/bulk", gotPath)
	}
}

func TestCreateSessionRejectsEmptyID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":""}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	if _, err := client.CreateSession(context.Background(), "tok"); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestListSessionsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("per_page") != "10" {
			t.Errorf("query = %s, want page=2&per_page=10", r.URL.RawQuery)
		}
		io.WriteString(w, `{"sessions":[{"id":"s1","message_count":4}]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	infos, err := client.ListSessions(context.Background(), "tok", 2, 10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != "s1" || infos[0].MessageCount != 4 {
		t.Errorf("unexpected sessions: %+v", infos)
	}
}

func TestRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer old-token" {
			t.Errorf("refresh must send the expired token as bearer")
		}
		io.WriteString(w, `{"auth":{"token":"new-token","expires_at":1900000000}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	token, expiresAt, err := client.RefreshToken(context.Background(), "old-token")
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if token != "new-token" || expiresAt != 1900000000 {
		t.Errorf("got (%q, %d), want (new-token, 1900000000)", token, expiresAt)
	}
}

func TestRefreshTokenRejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"auth":{"token":"","expires_at":0}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	if _, _, err := client.RefreshToken(context.Background(), "old"); err == nil {
		t.Fatal("expected error for empty refreshed token")
	}
}

func TestVerifyEmailCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/email/verify" {
			t.Errorf("path = %s, want /auth/email/verify", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "a@b.c" || body["code"] != "123456" {
			t.Errorf("unexpected verify payload: %v", body)
		}
		io.WriteString(w, `{"auth":{"token":"tok","expires_at":1900000000}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	resp, err := client.VerifyEmailCode(context.Background(), "a@b.c", "123456")
	if err != nil {
		t.Fatalf("VerifyEmailCode failed: %v", err)
	}
	if resp.Auth.Token != "tok" {
		t.Errorf("token = %q, want tok", resp.Auth.Token)
	}
}

func TestWalletNonceRejectsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"nonce":""}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	if _, err := client.WalletNonce(context.Background(), "0xabc"); err == nil {
		t.Fatal("expected error for empty nonce")
	}
}
