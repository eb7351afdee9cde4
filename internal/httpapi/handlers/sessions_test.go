package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/httpapi/middleware"
	"github.com/clipforge/clipforge/internal/provider"
	"github.com/clipforge/clipforge/internal/store"
	"github.com/clipforge/clipforge/internal/studio"
)

// scriptedGateway feeds canned replies to the session endpoints and records
// video submissions.
type scriptedGateway struct {
	mu      sync.Mutex
	replies []string
	title   string
	created []provider.CreateVideoRequest
}

func (g *scriptedGateway) CreateTextReply(ctx context.Context, cred string, turns []provider.Turn, guidance string, remix *provider.RemixContext) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.replies) == 0 {
		return "ok", nil
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}

func (g *scriptedGateway) CreateShortTitle(ctx context.Context, cred, description string) (string, error) {
	return g.title, nil
}

func (g *scriptedGateway) GenerateImage(ctx context.Context, cred, prompt string) (string, error) {
	return "", errors.New("not scripted")
}

func (g *scriptedGateway) CreateVideoJob(ctx context.Context, cred string, req provider.CreateVideoRequest) (*provider.VideoJob, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, req)
	return &provider.VideoJob{ID: "video_t1", Phase: provider.PhaseQueued}, nil
}

func (g *scriptedGateway) CreateRemixJob(ctx context.Context, cred, sourceJobID string, req provider.RemixRequest) (*provider.VideoJob, error) {
	return &provider.VideoJob{ID: "video_t2", Phase: provider.PhaseQueued, RemixedFromID: sourceJobID}, nil
}

func (g *scriptedGateway) GetVideoJob(ctx context.Context, cred, jobID string) (*provider.VideoJob, error) {
	return &provider.VideoJob{ID: jobID, Phase: provider.PhaseQueued}, nil
}

func (g *scriptedGateway) ListVideoJobs(ctx context.Context, cred string) ([]provider.VideoJob, error) {
	return nil, nil
}

func (g *scriptedGateway) DownloadVideoArtifact(ctx context.Context, cred, jobID string) (io.ReadCloser, error) {
	return nil, errors.New("not scripted")
}

func openHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&store.Conversation{}, &store.Message{}, &store.SavedVideo{}, &store.RemixReference{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newSessionHandler wires a handler over sqlite with a live session, the way
// cmd/api does, minus the network.
func newSessionHandler(t *testing.T, gw provider.Gateway, sid, convID string) (*Handler, *studio.Session) {
	t.Helper()
	repo := store.NewRepo(openHandlerTestDB(t))
	if err := repo.SaveConversation(context.Background(), &store.Conversation{
		ID:        convID,
		SessionID: sid,
		Title:     "New Conversation",
	}); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	repoStore := &studio.RepoStore{Repo: repo}
	sessions := studio.NewManager(studio.CoordinatorDeps{
		Store:   repoStore,
		Gateway: gw,
		Crop:    func(b []byte) ([]byte, error) { return b, nil },
		Defaults: studio.VideoConfig{
			Model:   "sora-2",
			Size:    "1280x720",
			Seconds: "8",
		},
	})
	s := sessions.Create(sid, convID)

	h := NewHandler(config.Config{
		DefaultVideoModel: "sora-2",
		DefaultVideoSize:  "1280x720",
		DefaultVideoSecs:  "8",
	}, repo, gw, sessions, studio.NewTurnHandler(gw, repoStore))
	return h, s
}

func sessionRequest(sid, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("X-Api-Key", "sk-test")
	c.Set(middleware.SessionIDKey, sid)
	return c, w
}

func TestSendMessageReadyFlagIsSticky(t *testing.T) {
	gw := &scriptedGateway{replies: []string{
		`{"readyToGenerate": true, "message": "Sweet! Hit generate."}`,
		"just chatting",
	}}
	h, s := newSessionHandler(t, gw, "01SESSREADY00000000000000A", "01CONVREADY00000000000000A")

	c, w := sessionRequest(s.ID, `{"message": "let's do it"}`)
	h.SendMessage(c)
	if w.Code != http.StatusOK {
		t.Fatalf("first turn status = %d, body %s", w.Code, w.Body.String())
	}
	if !s.Ready() {
		t.Fatal("sentinel reply must set the ready flag")
	}

	c, w = sessionRequest(s.ID, `{"message": "actually, one question"}`)
	h.SendMessage(c)
	if w.Code != http.StatusOK {
		t.Fatalf("second turn status = %d, body %s", w.Code, w.Body.String())
	}
	if !s.Ready() {
		t.Fatal("a plain-text follow-up reply must leave the ready flag untouched")
	}

	var body struct {
		Data struct {
			Ready bool `json:"ready_to_generate"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Ready {
		t.Fatal("per-turn response must still report this turn's signal")
	}
}

func TestStartGenerationAttachesReferenceImage(t *testing.T) {
	gw := &scriptedGateway{title: "Sunset"}
	h, s := newSessionHandler(t, gw, "01SESSIMAGE00000000000000A", "01CONVIMAGE00000000000000A")

	if err := h.Repo.AppendMessage(context.Background(), &store.Message{
		ConversationID: "01CONVIMAGE00000000000000A",
		Role:           "user",
		Content:        "a sunset over a city",
	}); err != nil {
		t.Fatalf("seed turn: %v", err)
	}

	image := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	c, w := sessionRequest(s.ID, `{"input_image_base64": "`+image+`"}`)
	h.StartGeneration(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	gw.mu.Lock()
	defer gw.mu.Unlock()
	if len(gw.created) != 1 {
		t.Fatalf("expected one submission, got %d", len(gw.created))
	}
	if string(gw.created[0].ReferenceImage) != "png-bytes" {
		t.Fatalf("reference image not forwarded: %q", gw.created[0].ReferenceImage)
	}
}

func TestStartGenerationRejectsBadImageEncoding(t *testing.T) {
	gw := &scriptedGateway{title: "Sunset"}
	h, s := newSessionHandler(t, gw, "01SESSBADB640000000000000A", "01CONVBADB640000000000000A")

	c, w := sessionRequest(s.ID, `{"input_image_base64": "not base64!"}`)
	h.StartGeneration(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSendMessageRecordsBaseImage(t *testing.T) {
	gw := &scriptedGateway{}
	h, s := newSessionHandler(t, gw, "01SESSBASEIMG000000000000A", "01CONVBASEIMG000000000000A")

	c, w := sessionRequest(s.ID, `{"message": "use this", "image_url": "data:image/png;base64,AAAA"}`)
	h.SendMessage(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	conv, err := h.Repo.GetConversation(context.Background(), "01CONVBASEIMG000000000000A")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conv.BaseImageURL == nil || *conv.BaseImageURL != "data:image/png;base64,AAAA" {
		t.Fatalf("base image not recorded: %v", conv.BaseImageURL)
	}
}

func TestTitleFallsBackWhenProviderReturnsEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{Gateway: &scriptedGateway{title: ""}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/videos/title",
		strings.NewReader(`{"description": "a sunset over a city skyline in autumn rain tonight"}`))
	c.Request.Header.Set("X-Api-Key", "sk-test")

	h.Title(c)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var body struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Title != "a sunset over a city skyline" {
		t.Fatalf("title = %q, want the first-six-token fallback", body.Title)
	}
}
