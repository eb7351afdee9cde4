package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clipforge/clipforge/internal/provider"
	"github.com/clipforge/clipforge/internal/studio"
)

// Stateless proxy endpoints. They forward the caller's credential to the
// provider and answer in the provider error shape; nothing here touches the
// session state or the database.

type chatTurn struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type chatRequest struct {
	Messages     []chatTurn             `json:"messages"`
	RemixContext *provider.RemixContext `json:"remixContext,omitempty"`
}

func (h *Handler) Chat(c *gin.Context) {
	key, ok := apiKey(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		invalidRequest(c, "messages are required")
		return
	}

	turns := make([]provider.Turn, 0, len(req.Messages))
	for _, m := range req.Messages {
		turns = append(turns, provider.Turn{Role: m.Role, Content: m.Content, ImageURL: m.ImageURL})
	}

	raw, err := h.Gateway.CreateTextReply(c.Request.Context(), key, turns, studio.SystemGuidance, req.RemixContext)
	if err != nil {
		providerFail(c, err)
		return
	}

	visible := raw
	ready := false
	if sig, ok := studio.DetectReadySignal(raw); ok {
		visible = sig.Message
		ready = true
	}
	c.JSON(http.StatusOK, gin.H{"message": visible, "readyToGenerate": ready})
}

func (h *Handler) Title(c *gin.Context) {
	key, ok := apiKey(c)
	if !ok {
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Description) == "" {
		invalidRequest(c, "description is required")
		return
	}

	title, err := h.Gateway.CreateShortTitle(c.Request.Context(), key, req.Description)
	if err != nil {
		providerFail(c, err)
		return
	}
	if strings.TrimSpace(title) == "" {
		title = studio.FallbackTitle(req.Description)
	}
	c.JSON(http.StatusOK, gin.H{"title": title})
}

type createVideoRequest struct {
	Prompt           string `json:"prompt"`
	Model            string `json:"model,omitempty"`
	Size             string `json:"size,omitempty"`
	Seconds          string `json:"seconds,omitempty"`
	InputImageBase64 string `json:"inputImageBase64,omitempty"`
}

func (h *Handler) CreateVideo(c *gin.Context) {
	key, ok := apiKey(c)
	if !ok {
		return
	}
	var req createVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		invalidRequest(c, "prompt is required")
		return
	}

	model, size, seconds, msg := h.videoParams(req.Model, req.Size, req.Seconds)
	if msg != "" {
		invalidRequest(c, msg)
		return
	}

	var image []byte
	if req.InputImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.InputImageBase64)
		if err != nil {
			invalidRequest(c, "inputImageBase64 is not valid base64")
			return
		}
		image = data
	}

	job, err := h.Gateway.CreateVideoJob(c.Request.Context(), key, provider.CreateVideoRequest{
		Prompt:         req.Prompt,
		Model:          model,
		Size:           size,
		Seconds:        seconds,
		ReferenceImage: image,
	})
	if err != nil {
		providerFail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) RemixVideo(c *gin.Context) {
	key, ok := apiKey(c)
	if !ok {
		return
	}
	sourceID := c.Param("videoId")
	var req createVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		invalidRequest(c, "prompt is required")
		return
	}

	model, size, seconds, msg := h.videoParams(req.Model, req.Size, req.Seconds)
	if msg != "" {
		invalidRequest(c, msg)
		return
	}

	job, err := h.Gateway.CreateRemixJob(c.Request.Context(), key, sourceID, provider.RemixRequest{
		Prompt:  req.Prompt,
		Model:   model,
		Size:    size,
		Seconds: seconds,
	})
	if err != nil {
		providerFail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) VideoStatus(c *gin.Context) {
	key, ok := apiKey(c)
	if !ok {
		return
	}
	job, err := h.Gateway.GetVideoJob(c.Request.Context(), key, c.Param("id"))
	if err != nil {
		providerFail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) ListVideos(c *gin.Context) {
	key, ok := apiKey(c)
	if !ok {
		return
	}
	jobs, err := h.Gateway.ListVideoJobs(c.Request.Context(), key)
	if err != nil {
		providerFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": jobs})
}

func (h *Handler) DownloadVideo(c *gin.Context) {
	key, ok := apiKey(c)
	if !ok {
		return
	}
	id := c.Param("id")

	rc, err := h.Gateway.DownloadVideoArtifact(c.Request.Context(), key, id)
	if err != nil {
		providerFail(c, err)
		return
	}
	defer rc.Close()

	filename := "video-" + id + ".mp4"
	if v, err := h.Repo.GetSavedVideoByVideoID(c.Request.Context(), id); err == nil && v.Title != "" {
		filename = sanitizeFilename(v.Title) + ".mp4"
	}

	c.Header("Content-Type", "video/mp4")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		// Headers are already out; nothing left to do but log via gin.
		_ = c.Error(err)
	}
}

func (h *Handler) GenerateImage(c *gin.Context) {
	key, ok := apiKey(c)
	if !ok {
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		invalidRequest(c, "prompt is required")
		return
	}

	b64, err := h.Gateway.GenerateImage(c.Request.Context(), key, req.Prompt)
	if err != nil {
		providerFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageBase64": b64})
}

// videoParams fills defaults and validates against the model catalog.
func (h *Handler) videoParams(model, size, seconds string) (string, string, string, string) {
	if model == "" {
		model = h.Cfg.DefaultVideoModel
	}
	if size == "" {
		size = h.Cfg.DefaultVideoSize
	}
	if seconds == "" {
		seconds = h.Cfg.DefaultVideoSecs
	}
	if !studio.ValidModel(model) {
		return "", "", "", "unknown model " + model
	}
	if !studio.ValidSize(model, size) {
		return "", "", "", "size " + size + " is not available for " + model
	}
	if !studio.ValidSeconds(seconds) {
		return "", "", "", "unsupported duration " + seconds
	}
	return model, size, seconds, ""
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, s)
}
