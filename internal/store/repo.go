package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Conversations

func (r *Repo) SaveConversation(ctx context.Context, c *Conversation) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *Repo) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) ListConversations(ctx context.Context, sessionID string) ([]Conversation, error) {
	var out []Conversation
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetConversationBaseImage records the image attached to the thread.
func (r *Repo) SetConversationBaseImage(ctx context.Context, id, url string) error {
	return r.db.WithContext(ctx).Model(&Conversation{}).
		Where("id = ?", id).
		Update("base_image_url", url).Error
}

// DeleteConversation removes the thread together with its messages and the
// videos generated from it.
func (r *Repo) DeleteConversation(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&SavedVideo{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Conversation{}, "id = ?", id).Error
	})
}

// Messages

func (r *Repo) AppendMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListMessages returns messages in ASC id order (oldest -> newest).
func (r *Repo) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// UserTurnContents returns the user-authored message bodies in chronological
// order. Synthetic info entries never match.
func (r *Repo) UserTurnContents(ctx context.Context, conversationID string) ([]string, error) {
	var contents []string
	if err := r.db.WithContext(ctx).
		Model(&Message{}).
		Where("conversation_id = ? AND role = ?", conversationID, "user").
		Order("id ASC").
		Pluck("content", &contents).Error; err != nil {
		return nil, err
	}
	return contents, nil
}

// Saved videos

// UpsertSavedVideo writes the record keyed by provider job id. An existing
// row is updated in place, keeping its record id and creation time.
func (r *Repo) UpsertSavedVideo(ctx context.Context, v *SavedVideo) error {
	var existing SavedVideo
	err := r.db.WithContext(ctx).Where("video_id = ?", v.VideoID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(v).Error
	}
	if err != nil {
		return err
	}
	v.ID = existing.ID
	v.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Model(&SavedVideo{}).
		Where("video_id = ?", v.VideoID).
		Updates(map[string]any{
			"conversation_id":       v.ConversationID,
			"prompt":                v.Prompt,
			"title":                 v.Title,
			"model":                 v.Model,
			"status":                v.Status,
			"remixed_from_video_id": v.RemixedFromVideoID,
		}).Error
}

func (r *Repo) UpdateSavedVideoStatus(ctx context.Context, videoID, status string) error {
	return r.db.WithContext(ctx).Model(&SavedVideo{}).
		Where("video_id = ?", videoID).
		Update("status", status).Error
}

func (r *Repo) GetSavedVideoByVideoID(ctx context.Context, videoID string) (*SavedVideo, error) {
	var v SavedVideo
	if err := r.db.WithContext(ctx).First(&v, "video_id = ?", videoID).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repo) ListSavedVideos(ctx context.Context, sessionID string) ([]SavedVideo, error) {
	var out []SavedVideo
	if err := r.db.WithContext(ctx).
		Joins("JOIN conversations ON conversations.id = saved_videos.conversation_id").
		Where("conversations.session_id = ?", sessionID).
		Order("saved_videos.created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Remix reference

func (r *Repo) SetRemixReference(ctx context.Context, ref *RemixReference) error {
	return r.db.WithContext(ctx).Save(ref).Error
}

func (r *Repo) GetRemixReference(ctx context.Context, sessionID string) (*RemixReference, error) {
	var ref RemixReference
	err := r.db.WithContext(ctx).First(&ref, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *Repo) ClearRemixReference(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Delete(&RemixReference{}, "session_id = ?", sessionID).Error
}
