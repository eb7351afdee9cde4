package studio

import (
	"context"

	"github.com/clipforge/clipforge/internal/common"
	"github.com/clipforge/clipforge/internal/provider"
	"github.com/clipforge/clipforge/internal/store"
)

// RepoStore adapts the relational repo to the narrow interfaces the
// coordinator and turn handler depend on.
type RepoStore struct {
	Repo *store.Repo
}

var (
	_ Store     = (*RepoStore)(nil)
	_ ChatStore = (*RepoStore)(nil)
)

func (r *RepoStore) UserTurnContents(ctx context.Context, conversationID string) ([]string, error) {
	return r.Repo.UserTurnContents(ctx, conversationID)
}

func (r *RepoStore) AppendTimelineEntry(ctx context.Context, conversationID string, e TimelineEntry) error {
	m := &store.Message{
		ConversationID: conversationID,
		Role:           "info",
		Content:        e.Content,
		IsRemix:        e.IsRemix,
	}
	if e.Kind != "" {
		kind := e.Kind
		m.Kind = &kind
	}
	if e.Status != "" {
		status := e.Status
		m.Status = &status
	}
	if e.Title != "" {
		title := e.Title
		m.Title = &title
	}
	if e.VideoID != "" {
		videoID := e.VideoID
		m.VideoID = &videoID
	}
	return r.Repo.AppendMessage(ctx, m)
}

func (r *RepoStore) UpsertSavedVideo(ctx context.Context, rec SavedVideoRecord) error {
	id, err := common.NewULID()
	if err != nil {
		return err
	}
	return r.Repo.UpsertSavedVideo(ctx, &store.SavedVideo{
		ID:                 id, // ignored when the video_id row already exists
		VideoID:            rec.VideoID,
		ConversationID:     rec.ConversationID,
		Prompt:             rec.Prompt,
		Title:              rec.Title,
		Model:              rec.Model,
		Status:             rec.Status,
		RemixedFromVideoID: rec.RemixedFromVideoID,
	})
}

func (r *RepoStore) UpdateSavedVideoStatus(ctx context.Context, videoID, status string) error {
	return r.Repo.UpdateSavedVideoStatus(ctx, videoID, status)
}

func (r *RepoStore) SaveRemixReference(ctx context.Context, sessionID string, ref *RemixReference) error {
	if ref == nil {
		return r.Repo.ClearRemixReference(ctx, sessionID)
	}
	return r.Repo.SetRemixReference(ctx, &store.RemixReference{
		SessionID: sessionID,
		VideoID:   ref.VideoID,
		Title:     ref.Title,
	})
}

func (r *RepoStore) PriorTurns(ctx context.Context, conversationID string) ([]provider.Turn, error) {
	msgs, err := r.Repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	turns := make([]provider.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == "info" {
			continue
		}
		t := provider.Turn{Role: m.Role, Content: m.Content}
		if m.ImageURL != nil {
			t.ImageURL = *m.ImageURL
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *RepoStore) AppendUserMessage(ctx context.Context, conversationID, content, imageURL string) error {
	m := &store.Message{
		ConversationID: conversationID,
		Role:           "user",
		Content:        content,
	}
	if imageURL != "" {
		m.ImageURL = &imageURL
	}
	return r.Repo.AppendMessage(ctx, m)
}

func (r *RepoStore) AppendAssistantMessage(ctx context.Context, conversationID, content string) error {
	return r.Repo.AppendMessage(ctx, &store.Message{
		ConversationID: conversationID,
		Role:           "assistant",
		Content:        content,
	})
}
