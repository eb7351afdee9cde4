package handlers

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clipforge/clipforge/internal/auth"
	"github.com/clipforge/clipforge/internal/common"
	"github.com/clipforge/clipforge/internal/httpapi/middleware"
	"github.com/clipforge/clipforge/internal/provider"
	"github.com/clipforge/clipforge/internal/store"
	"github.com/clipforge/clipforge/internal/studio"
)

const sessionTokenTTL = 24 * time.Hour

// CreateSession opens a browser session: a fresh conversation seeded with the
// welcome message, a live coordinator, and a bearer token identifying both.
func (h *Handler) CreateSession(c *gin.Context) {
	sessionID, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "could not create session")
		return
	}

	conv, err := h.newConversation(c, sessionID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "could not create session")
		return
	}

	h.Sessions.Create(sessionID, conv.ID)

	token, err := auth.SignSessionToken(sessionID, h.Cfg.JWTSecret, sessionTokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "could not create session")
		return
	}

	common.OK(c, gin.H{
		"session_id":      sessionID,
		"conversation_id": conv.ID,
		"token":           token,
		"models":          studio.ModelOptions,
		"seconds":         studio.SecondsOptions,
	})
}

// session resolves the live session for the authenticated request. After a
// restart the in-memory session is gone while the token is still valid, so it
// is rebuilt from the persisted conversation list and remix reference.
func (h *Handler) session(c *gin.Context) (*studio.Session, bool) {
	sid := c.GetString(middleware.SessionIDKey)
	if s, ok := h.Sessions.Get(sid); ok {
		return s, true
	}

	ctx := c.Request.Context()
	convs, err := h.Repo.ListConversations(ctx, sid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "could not restore session")
		return nil, false
	}

	var convID string
	if len(convs) > 0 {
		convID = convs[0].ID
	} else {
		conv, err := h.newConversation(c, sid)
		if err != nil {
			common.Fail(c, http.StatusInternalServerError, 50002, "could not restore session")
			return nil, false
		}
		convID = conv.ID
	}

	s := h.Sessions.Create(sid, convID)
	if ref, err := h.Repo.GetRemixReference(ctx, sid); err == nil && ref != nil {
		s.Coordinator().RestoreRemixReference(&studio.RemixReference{
			VideoID: ref.VideoID,
			Title:   ref.Title,
		})
	}
	return s, true
}

// SendMessage runs one chat turn inside the session's conversation.
func (h *Handler) SendMessage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	key := c.GetHeader("X-Api-Key")
	if key == "" {
		common.Fail(c, http.StatusUnauthorized, 40103, "api key is required")
		return
	}

	var req struct {
		Message  string `json:"message"`
		ImageURL string `json:"image_url,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		common.Fail(c, http.StatusBadRequest, 40002, "message is required")
		return
	}

	ctx := c.Request.Context()
	coord := s.Coordinator()

	var remix *provider.RemixContext
	if ref := coord.RemixReference(); ref != nil {
		remix = &provider.RemixContext{VideoTitle: ref.Title}
		if v, err := h.Repo.GetSavedVideoByVideoID(ctx, ref.VideoID); err == nil {
			if msgs, err := h.Repo.ListMessages(ctx, v.ConversationID); err == nil {
				remix.PreviousChat = flattenTranscript(msgs)
			}
		}
	}

	// An attached image becomes the conversation's base image, like the
	// original upload flow.
	if req.ImageURL != "" {
		if err := h.Repo.SetConversationBaseImage(ctx, coord.ConversationID(), req.ImageURL); err != nil {
			log.Printf("session=%s set base image: %v", s.ID, err)
		}
	}

	reply, ready, err := h.Turns.SendMessage(ctx, key, coord.ConversationID(), req.Message, req.ImageURL, remix)
	if err != nil {
		if errors.Is(err, studio.ErrMissingCredential) {
			common.Fail(c, http.StatusUnauthorized, 40103, err.Error())
			return
		}
		pe := provider.Classify(err)
		common.Fail(c, provider.StatusForCode(pe.Code), 50003, pe.Message)
		return
	}
	// The sentinel only ever sets the flag; a plain follow-up reply leaves it
	// alone. Resets happen on new or loaded conversations.
	if ready {
		s.SetReady(true)
	}

	common.OK(c, gin.H{"message": reply, "ready_to_generate": ready})
}

// StartGeneration submits the session's refined concept as a video job.
func (h *Handler) StartGeneration(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	key := c.GetHeader("X-Api-Key")
	if key == "" {
		common.Fail(c, http.StatusUnauthorized, 40103, "api key is required")
		return
	}

	var req struct {
		Model            string `json:"model,omitempty"`
		Size             string `json:"size,omitempty"`
		Seconds          string `json:"seconds,omitempty"`
		InputImageBase64 string `json:"input_image_base64,omitempty"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.Fail(c, http.StatusBadRequest, 40003, "malformed request body")
			return
		}
	}
	if req.Model != "" || req.Size != "" || req.Seconds != "" {
		model, size, seconds, msg := h.videoParams(req.Model, req.Size, req.Seconds)
		if msg != "" {
			common.Fail(c, http.StatusBadRequest, 40003, msg)
			return
		}
		s.Coordinator().SetVideoConfig(studio.VideoConfig{Model: model, Size: size, Seconds: seconds})
	}
	if req.InputImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.InputImageBase64)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, 40003, "input_image_base64 is not valid base64")
			return
		}
		s.Coordinator().SetReferenceImage(data)
	}

	job, err := s.Coordinator().Start(c.Request.Context(), key)
	switch {
	case errors.Is(err, studio.ErrGenerationInFlight):
		common.Fail(c, http.StatusConflict, 40901, err.Error())
		return
	case errors.Is(err, studio.ErrEmptyPrompt):
		common.Fail(c, http.StatusBadRequest, 40004, err.Error())
		return
	case errors.Is(err, studio.ErrMissingCredential):
		common.Fail(c, http.StatusUnauthorized, 40103, err.Error())
		return
	case err != nil:
		common.Fail(c, http.StatusInternalServerError, 50004, "could not start generation")
		return
	}
	// A provider-rejected submission is not a transport error; it surfaces as
	// a failed snapshot the client renders like any other terminal state.
	common.OK(c, job)
}

// CurrentGeneration returns the live snapshot for status polling.
func (h *Handler) CurrentGeneration(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	common.OK(c, s.Coordinator().Snapshot())
}

// SelectRemixReference marks a saved video as the remix source.
func (h *Handler) SelectRemixReference(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		VideoID string `json:"video_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.VideoID == "" {
		common.Fail(c, http.StatusBadRequest, 40005, "video_id is required")
		return
	}

	ctx := c.Request.Context()
	title := "Video " + req.VideoID
	if v, err := h.Repo.GetSavedVideoByVideoID(ctx, req.VideoID); err == nil {
		title = v.Title
	}

	ref := studio.RemixReference{VideoID: req.VideoID, Title: title}
	if err := s.Coordinator().SelectRemixReference(ctx, ref); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "could not select remix reference")
		return
	}
	common.OK(c, ref)
}

func (h *Handler) ClearRemixReference(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Coordinator().ClearRemixReference(c.Request.Context()); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "could not clear remix reference")
		return
	}
	common.OK(c, nil)
}

// NewConversation starts a fresh thread and repoints the coordinator at it.
func (h *Handler) NewConversation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	conv, err := h.newConversation(c, s.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50006, "could not create conversation")
		return
	}
	s.Coordinator().ResetForNewConversation(c.Request.Context(), conv.ID)
	s.SetReady(false)
	common.OK(c, conv)
}

// SaveConversation titles the current thread from its first user message.
func (h *Handler) SaveConversation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	convID := s.Coordinator().ConversationID()

	conv, err := h.Repo.GetConversation(ctx, convID)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40401, "conversation not found")
		return
	}
	msgs, err := h.Repo.ListMessages(ctx, convID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50006, "could not save conversation")
		return
	}

	conv.Title = conversationTitle(msgs)
	if err := h.Repo.SaveConversation(ctx, conv); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50006, "could not save conversation")
		return
	}
	common.OK(c, conv)
}

func (h *Handler) ListConversations(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	convs, err := h.Repo.ListConversations(c.Request.Context(), s.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50007, "could not list conversations")
		return
	}
	common.OK(c, gin.H{"conversations": convs})
}

// GetConversation returns the thread and its full timeline, and makes it the
// session's active conversation so the chat resumes there.
func (h *Handler) GetConversation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	conv, found := h.ownedConversation(c, s.ID, id)
	if !found {
		return
	}
	msgs, err := h.Repo.ListMessages(ctx, id)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50007, "could not load conversation")
		return
	}

	if s.Coordinator().ConversationID() != id {
		s.Coordinator().ResetForNewConversation(ctx, id)
		s.SetReady(false)
	}

	common.OK(c, gin.H{"conversation": conv, "messages": msgs})
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if _, ok := h.ownedConversation(c, s.ID, id); !ok {
		return
	}
	if err := h.Repo.DeleteConversation(c.Request.Context(), id); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50008, "could not delete conversation")
		return
	}
	if s.Coordinator().ConversationID() == id {
		if conv, err := h.newConversation(c, s.ID); err == nil {
			s.Coordinator().ResetForNewConversation(c.Request.Context(), conv.ID)
			s.SetReady(false)
		}
	}
	common.OK(c, nil)
}

func (h *Handler) ListSavedVideos(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	videos, err := h.Repo.ListSavedVideos(c.Request.Context(), s.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50009, "could not list saved videos")
		return
	}
	common.OK(c, gin.H{"videos": videos})
}

// helpers

func (h *Handler) newConversation(c *gin.Context, sessionID string) (*store.Conversation, error) {
	ctx := c.Request.Context()
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	conv := &store.Conversation{
		ID:        id,
		SessionID: sessionID,
		Title:     "New Conversation",
	}
	if err := h.Repo.SaveConversation(ctx, conv); err != nil {
		return nil, err
	}
	if err := h.Repo.AppendMessage(ctx, &store.Message{
		ConversationID: id,
		Role:           "assistant",
		Content:        studio.WelcomeMessage,
	}); err != nil {
		log.Printf("session=%s seed welcome message: %v", sessionID, err)
	}
	return conv, nil
}

func (h *Handler) ownedConversation(c *gin.Context, sessionID, id string) (*store.Conversation, bool) {
	conv, err := h.Repo.GetConversation(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && conv.SessionID != sessionID) {
		common.Fail(c, http.StatusNotFound, 40401, "conversation not found")
		return nil, false
	}
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50007, "could not load conversation")
		return nil, false
	}
	return conv, true
}

const conversationTitleLimit = 50

// conversationTitle derives the saved title from the first user message.
func conversationTitle(msgs []store.Message) string {
	for _, m := range msgs {
		if m.Role != "user" {
			continue
		}
		t := strings.TrimSpace(m.Content)
		if t == "" {
			continue
		}
		r := []rune(t)
		if len(r) > conversationTitleLimit {
			return string(r[:conversationTitleLimit]) + "..."
		}
		return t
	}
	return "New Conversation"
}

// flattenTranscript renders a conversation as plain text for the remix
// context prompt. Timeline entries are skipped.
func flattenTranscript(msgs []store.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case "user":
			b.WriteString("User: ")
		case "assistant":
			b.WriteString("Assistant: ")
		default:
			continue
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
