package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(srv.URL, "gpt-5", "gpt-5", "gpt-image-1")
	c.HTTP = srv.Client()
	return c
}

func TestCreateVideoJobJSON(t *testing.T) {
	var gotAuth, gotPath, gotContentType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(VideoJob{ID: "video_1", Phase: PhaseQueued})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	job, err := c.CreateVideoJob(context.Background(), "sk-test", CreateVideoRequest{
		Prompt:  "a sunset",
		Model:   "sora-2",
		Size:    "1280x720",
		Seconds: "8",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID != "video_1" || job.Phase != PhaseQueued {
		t.Fatalf("unexpected job: %+v", job)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotPath != "/videos" || gotContentType != "application/json" {
		t.Fatalf("request shape: path=%q type=%q", gotPath, gotContentType)
	}
	if gotBody["prompt"] != "a sunset" || gotBody["seconds"] != "8" {
		t.Fatalf("body: %v", gotBody)
	}
}

func TestCreateVideoJobMultipartWithReferenceImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("model") != "sora-2" {
			t.Errorf("model field = %q", r.FormValue("model"))
		}
		f, hdr, err := r.FormFile("input_reference")
		if err != nil {
			t.Errorf("file field: %v", err)
		} else {
			defer f.Close()
			if hdr.Filename != "input.png" {
				t.Errorf("filename = %q", hdr.Filename)
			}
			data, _ := io.ReadAll(f)
			if string(data) != "png-bytes" {
				t.Errorf("file content = %q", data)
			}
		}
		_ = json.NewEncoder(w).Encode(VideoJob{ID: "video_2", Phase: PhaseQueued})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	job, err := c.CreateVideoJob(context.Background(), "sk-test", CreateVideoRequest{
		Prompt:         "a sunset",
		Model:          "sora-2",
		Size:           "1280x720",
		Seconds:        "8",
		ReferenceImage: []byte("png-bytes"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID != "video_2" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestCreateRemixJobDefaultsLineage(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(VideoJob{ID: "video_3", Phase: PhaseQueued})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	job, err := c.CreateRemixJob(context.Background(), "sk-test", "video_1", RemixRequest{Prompt: "at night"})
	if err != nil {
		t.Fatalf("remix: %v", err)
	}
	if gotPath != "/videos/video_1/remix" {
		t.Fatalf("path = %q", gotPath)
	}
	if job.RemixedFromID != "video_1" {
		t.Fatalf("lineage not defaulted: %+v", job)
	}
}

func TestErrorResponsesDecodeToProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"code": "invalid_api_key", "message": "Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.GetVideoJob(context.Background(), "sk-bad", "video_1")
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if pe.Code != "invalid_api_key" || pe.Message != "Incorrect API key provided" {
		t.Fatalf("unexpected error: %+v", pe)
	}
}

func TestCreateTextReplyBuildsRemixInstructions(t *testing.T) {
	var got textReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(textResp{OutputText: "sounds good"})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	reply, err := c.CreateTextReply(context.Background(), "sk-test",
		[]Turn{{Role: "user", Content: "hi", ImageURL: "data:image/png;base64,AA"}},
		"be brief",
		&RemixContext{VideoTitle: "Sunset", PreviousChat: "User: hi"},
	)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != "sounds good" {
		t.Fatalf("reply = %q", reply)
	}
	if got.Model != "gpt-5" {
		t.Fatalf("model = %q", got.Model)
	}
	if len(got.Input) != 1 || len(got.Input[0].Content) != 2 {
		t.Fatalf("image part missing: %+v", got.Input)
	}
	if got.Instructions == "be brief" {
		t.Fatal("remix context not folded into instructions")
	}
}

func TestCreateShortTitleTrimsQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResp{OutputText: `"Sunset Skyline Timelapse"`})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	title, err := c.CreateShortTitle(context.Background(), "sk-test", "a sunset over a city")
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if title != "Sunset Skyline Timelapse" {
		t.Fatalf("title = %q", title)
	}
}

func TestCreateShortTitleEmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResp{OutputText: "  "})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	title, err := c.CreateShortTitle(context.Background(), "sk-test", "a sunset over a city")
	if err != nil {
		t.Fatalf("empty title must fall through to the caller's fallback, got error: %v", err)
	}
	if title != "" {
		t.Fatalf("title = %q, want empty", title)
	}
}
