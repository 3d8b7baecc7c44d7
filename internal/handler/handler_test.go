package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/ekaraca/hazirlik/internal/content"
	"github.com/ekaraca/hazirlik/internal/i18n"
	"github.com/ekaraca/hazirlik/internal/model"
	"github.com/ekaraca/hazirlik/internal/progress"
	"github.com/ekaraca/hazirlik/internal/session"
	"github.com/ekaraca/hazirlik/internal/store"
)

// fakeCompleter scripts the generation endpoint.
type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestServer(t *testing.T, completer content.Completer) *httptest.Server {
	t.Helper()
	if err := i18n.Init("tr"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	adapter := content.NewAdapter(completer)
	registry := session.NewRegistry(adapter, progress.NewSQLiteStore(s))
	h := New(s, completer, registry, nil, Config{})

	r := chi.NewRouter()
	r.Use(i18n.Middleware("tr"))
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// client wraps cookie-carrying requests against the test server. It
// keeps every cookie the server sets, like a browser would.
type client struct {
	t       *testing.T
	srv     *httptest.Server
	cookies map[string]*http.Cookie
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.srv.URL+path, &buf)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		if c.cookies == nil {
			c.cookies = make(map[string]*http.Cookie)
		}
		c.cookies[ck.Name] = ck
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func register(t *testing.T, c *client, email string) {
	t.Helper()
	resp := c.do("POST", "/api/auth/register", map[string]string{
		"email":    email,
		"password": "gizli123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{})
	c := &client{t: t, srv: srv}

	resp := c.do("POST", "/api/auth/register", map[string]string{
		"email":    "not-an-email",
		"password": "kisa",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]map[string]string](t, resp)
	if body["fields"]["email"] == "" || body["fields"]["password"] == "" {
		t.Errorf("expected field-level errors, got %v", body)
	}
	// The password message carries the configured minimum.
	if !strings.Contains(body["fields"]["password"], "6") {
		t.Errorf("password error lacks the minimum length: %q", body["fields"]["password"])
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{})
	c := &client{t: t, srv: srv}
	register(t, c, "ali@example.com")

	resp := c.do("GET", "/api/auth/me", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d", resp.StatusCode)
	}
	me := decodeBody[model.User](t, resp)
	if me.Email != "ali@example.com" {
		t.Errorf("unexpected user: %+v", me)
	}

	// Duplicate registration is rejected on the email field.
	c2 := &client{t: t, srv: srv}
	resp = c2.do("POST", "/api/auth/register", map[string]string{
		"email":    "ali@example.com",
		"password": "gizli123",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Wrong password rejected.
	resp = c2.do("POST", "/api/auth/login", map[string]string{
		"email":    "ali@example.com",
		"password": "yanlis",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Logout invalidates the cookie.
	resp = c.do("POST", "/api/auth/logout", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = c.do("GET", "/api/auth/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPracticeFlowWithFallback(t *testing.T) {
	// The generation endpoint is down; the attempt still runs end to
	// end on the offline bank.
	upstream := &fakeCompleter{err: &content.UpstreamError{Class: content.FailNetwork, Err: errors.New("down")}}
	srv := newTestServer(t, upstream)
	c := &client{t: t, srv: srv}
	register(t, c, "ayse@example.com")

	resp := c.do("POST", "/api/practice/start", map[string]any{
		"exam_type":      "TYT",
		"subject":        "Türkçe",
		"question_count": 10,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	view := decodeBody[attemptView](t, resp)
	if view.Notice == "" {
		t.Error("expected substitute content notice")
	}
	if len(view.State.Questions["Türkçe"]) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(view.State.Questions["Türkçe"]))
	}
	if view.RemainingSeconds <= 0 {
		t.Errorf("expected a running countdown, got %d", view.RemainingSeconds)
	}

	// Answer everything with the fallback's fixed correct label.
	for i := 0; i < 10; i++ {
		resp = c.do("POST", "/api/practice/answer", map[string]any{
			"section_index":  0,
			"question_index": i,
			"label":          "A",
		})
		resp.Body.Close()
	}

	resp = c.do("POST", "/api/practice/advance", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance: status %d", resp.StatusCode)
	}
	adv := decodeBody[advanceResponse](t, resp)
	if adv.Result == nil {
		t.Fatal("expected a final result")
	}
	if adv.Result.Score != 100 || adv.Result.CorrectAnswers != 10 {
		t.Errorf("expected a perfect score, got %+v", adv.Result)
	}

	// The result reached the stats view.
	resp = c.do("GET", "/api/stats/results", nil)
	results := decodeBody[map[string][]model.StoredResult](t, resp)
	if len(results["tests"]) != 1 || results["tests"][0].Score != 100 {
		t.Errorf("unexpected stored results: %+v", results)
	}
}

func TestAttemptResumeAcrossManagers(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{err: &content.UpstreamError{Class: content.FailNetwork, Err: errors.New("down")}})
	c := &client{t: t, srv: srv}
	register(t, c, "can@example.com")

	resp := c.do("POST", "/api/practice/start", map[string]any{
		"exam_type":      "TYT",
		"subject":        "Matematik",
		"question_count": 5,
	})
	started := decodeBody[attemptView](t, resp)

	resp = c.do("POST", "/api/practice/answer", map[string]any{
		"section_index":  0,
		"question_index": 2,
		"label":          "B",
	})
	resp.Body.Close()

	// Abandon only the live manager; the checkpoint stays.
	resp = c.do("GET", "/api/practice/resume", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resume: status %d", resp.StatusCode)
	}
	resumed := decodeBody[attemptView](t, resp)
	if resumed.State.AttemptID != started.State.AttemptID {
		t.Error("resume produced a different attempt")
	}
	if resumed.State.Answers["Matematik"][2] != "B" {
		t.Errorf("answer lost across resume: %+v", resumed.State.Answers)
	}
}

func TestAnonymousAttemptDoesNotResume(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{err: &content.UpstreamError{Class: content.FailNetwork, Err: errors.New("down")}})
	c := &client{t: t, srv: srv}

	// Anonymous users can take an exam.
	resp := c.do("POST", "/api/practice/start", map[string]any{
		"exam_type":      "LGS",
		"subject":        "Matematik",
		"question_count": 5,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("anonymous start: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// But nothing was checkpointed: a fresh server-side manager for the
	// anonymous user finds no session to resume once the live one is
	// dropped.
	resp = c.do("POST", "/api/practice/abandon", nil)
	resp.Body.Close()
	resp = c.do("GET", "/api/practice/resume", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("anonymous resume: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAnonymousAttemptsIsolatedPerClient(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{err: &content.UpstreamError{Class: content.FailNetwork, Err: errors.New("down")}})
	first := &client{t: t, srv: srv}
	second := &client{t: t, srv: srv}

	resp := first.do("POST", "/api/practice/start", map[string]any{
		"exam_type":      "TYT",
		"subject":        "Matematik",
		"question_count": 5,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	started := decodeBody[attemptView](t, resp)

	// A different anonymous visitor must not see that attempt.
	resp = second.do("GET", "/api/practice/state", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stranger state: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Nor does starting their own attempt disturb the first one.
	resp = second.do("POST", "/api/practice/start", map[string]any{
		"exam_type":      "TYT",
		"subject":        "Fizik",
		"question_count": 5,
	})
	other := decodeBody[attemptView](t, resp)
	if other.State.AttemptID == started.State.AttemptID {
		t.Fatal("two anonymous clients share an attempt")
	}

	resp = first.do("GET", "/api/practice/state", nil)
	mine := decodeBody[attemptView](t, resp)
	if mine.State.AttemptID != started.State.AttemptID || mine.State.Subject != "Matematik" {
		t.Errorf("attempt overwritten by a stranger: %+v", mine.State)
	}
}

func TestResumeAfterCompletionNotFound(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{err: &content.UpstreamError{Class: content.FailNetwork, Err: errors.New("down")}})
	c := &client{t: t, srv: srv}
	register(t, c, "mert@example.com")

	resp := c.do("POST", "/api/practice/start", map[string]any{
		"exam_type":      "TYT",
		"subject":        "Matematik",
		"question_count": 5,
	})
	resp.Body.Close()
	resp = c.do("POST", "/api/practice/advance", nil)
	adv := decodeBody[advanceResponse](t, resp)
	if adv.Result == nil {
		t.Fatal("expected the attempt to complete")
	}

	// The finished attempt still sits in the live manager, but it is not
	// resumable.
	resp = c.do("GET", "/api/practice/resume", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("resume after completion: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestConversationTitleRuneBoundary(t *testing.T) {
	long := strings.Repeat("öğrenci çalışkandır ", 5) // 100 runes
	title := conversationTitle(long)
	if !utf8.ValidString(title) {
		t.Fatalf("title is not valid UTF-8: %q", title)
	}
	if got := utf8.RuneCountInString(title); got != chatTitleLimit {
		t.Errorf("expected %d runes, got %d", chatTitleLimit, got)
	}

	if got := conversationTitle("  kısa  "); got != "kısa" {
		t.Errorf("short titles are trimmed only, got %q", got)
	}
}

func TestChatConversation(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{response: "Türev, anlık değişim oranıdır."})
	c := &client{t: t, srv: srv}
	register(t, c, "elif@example.com")

	resp := c.do("POST", "/api/chat/", map[string]any{"message": "Türev nedir?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat: status %d", resp.StatusCode)
	}
	conv := decodeBody[model.ChatConversation](t, resp)
	if conv.ID == 0 || len(conv.Messages) != 2 {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
	if conv.Messages[1].Role != "assistant" {
		t.Errorf("expected assistant reply, got %+v", conv.Messages[1])
	}

	// Follow-up lands in the same conversation.
	resp = c.do("POST", "/api/chat/", map[string]any{
		"conversation_id": conv.ID,
		"message":         "Bir örnek verir misin?",
	})
	followUp := decodeBody[model.ChatConversation](t, resp)
	if followUp.ID != conv.ID || len(followUp.Messages) != 4 {
		t.Errorf("unexpected follow-up: %+v", followUp)
	}

	resp = c.do("GET", "/api/chat/", nil)
	list := decodeBody[[]model.ChatConversation](t, resp)
	if len(list) != 1 {
		t.Errorf("expected 1 conversation, got %d", len(list))
	}
}

func TestStatsRequireAuth(t *testing.T) {
	srv := newTestServer(t, &fakeCompleter{})
	c := &client{t: t, srv: srv}

	resp := c.do("GET", "/api/stats/results", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
