package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/store"
)

func TestApiKeyRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{}"))

	if _, ok := apiKey(c); ok {
		t.Fatal("missing credential accepted")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "invalid_api_key" || body.Error.Message == "" {
		t.Fatalf("unexpected error shape: %+v", body)
	}
}

func TestApiKeyPassthrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	c.Request.Header.Set("X-Api-Key", "sk-test")

	key, ok := apiKey(c)
	if !ok || key != "sk-test" {
		t.Fatalf("key = %q ok = %t", key, ok)
	}
}

func TestVideoParams(t *testing.T) {
	h := &Handler{Cfg: config.Config{
		DefaultVideoModel: "sora-2",
		DefaultVideoSize:  "1280x720",
		DefaultVideoSecs:  "8",
	}}

	model, size, seconds, msg := h.videoParams("", "", "")
	if msg != "" {
		t.Fatalf("defaults rejected: %s", msg)
	}
	if model != "sora-2" || size != "1280x720" || seconds != "8" {
		t.Fatalf("defaults not applied: %s %s %s", model, size, seconds)
	}

	if _, _, _, msg := h.videoParams("sora-3", "", ""); msg == "" {
		t.Fatal("unknown model accepted")
	}
	if _, _, _, msg := h.videoParams("sora-2", "1792x1024", ""); msg == "" {
		t.Fatal("pro-only size accepted for base model")
	}
	if _, _, _, msg := h.videoParams("sora-2-pro", "1792x1024", "12"); msg != "" {
		t.Fatalf("valid pro combination rejected: %s", msg)
	}
	if _, _, _, msg := h.videoParams("", "", "7"); msg == "" {
		t.Fatal("unsupported duration accepted")
	}
}

func TestConversationTitle(t *testing.T) {
	if got := conversationTitle(nil); got != "New Conversation" {
		t.Fatalf("empty thread title = %q", got)
	}

	long := strings.Repeat("video idea ", 10) // 110 chars
	msgs := messagesFixture("assistant", "welcome", "user", long)
	got := conversationTitle(msgs)
	if len([]rune(got)) != conversationTitleLimit+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long title not truncated: %q", got)
	}

	msgs = messagesFixture("user", "  a fox in the snow  ")
	if got := conversationTitle(msgs); got != "a fox in the snow" {
		t.Fatalf("title = %q", got)
	}
}

func TestFlattenTranscriptSkipsTimelineEntries(t *testing.T) {
	msgs := messagesFixture(
		"assistant", "welcome",
		"user", "a fox",
		"info", `Creating "Fox".`,
		"assistant", "nice",
	)
	got := flattenTranscript(msgs)
	want := "Assistant: welcome\nUser: a fox\nAssistant: nice"
	if got != want {
		t.Fatalf("transcript = %q, want %q", got, want)
	}
}

func messagesFixture(pairs ...string) []store.Message {
	var msgs []store.Message
	for i := 0; i+1 < len(pairs); i += 2 {
		msgs = append(msgs, store.Message{Role: pairs[i], Content: pairs[i+1]})
	}
	return msgs
}
