package store

import "time"

// Conversation is one saved chat thread. The title is derived from the first
// user message when the thread is saved.
type Conversation struct {
	ID           string  `gorm:"primaryKey;size:26" json:"id"` // ULID length
	SessionID    string  `gorm:"size:26;index;not null" json:"-"`
	Title        string  `gorm:"size:128;not null" json:"title"`
	BaseImageURL *string `gorm:"type:text" json:"base_image_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

// Message is a chat turn or a synthetic timeline entry (role "info").
// Timeline entries carry the lifecycle metadata columns; plain turns leave
// them empty.
type Message struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string  `gorm:"size:26;index;not null" json:"conversation_id"`
	Role           string  `gorm:"type:varchar(16);index;not null" json:"role"`
	Content        string  `gorm:"type:text;not null" json:"content"`
	ImageURL       *string `gorm:"type:text" json:"image_url,omitempty"`
	VideoID        *string `gorm:"size:64" json:"video_id,omitempty"`

	// Timeline metadata
	Kind    *string `gorm:"type:varchar(24)" json:"kind,omitempty"`   // generation | remix_reference
	Status  *string `gorm:"type:varchar(16)" json:"status,omitempty"` // started | completed
	Title   *string `gorm:"size:128" json:"title,omitempty"`
	IsRemix bool    `json:"is_remix"`

	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

// SavedVideo links a provider job to the conversation that produced it.
// Keyed uniquely by the provider job id; re-saving replaces, never duplicates.
type SavedVideo struct {
	ID                 string  `gorm:"primaryKey;size:26" json:"id"`
	VideoID            string  `gorm:"size:64;uniqueIndex;not null" json:"video_id"`
	ConversationID     string  `gorm:"size:26;index;not null" json:"conversation_id"`
	Prompt             string  `gorm:"type:text;not null" json:"prompt"`
	Title              string  `gorm:"size:128;not null" json:"title"`
	Model              string  `gorm:"type:varchar(32);not null" json:"model"`
	Status             string  `gorm:"type:varchar(16);not null" json:"status"`
	RemixedFromVideoID *string `gorm:"size:64" json:"remixed_from_video_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SavedVideo) TableName() string { return "saved_videos" }

// RemixReference is the per-session selection of a prior video to remix.
// At most one row per session.
type RemixReference struct {
	SessionID string    `gorm:"primaryKey;size:26" json:"-"`
	VideoID   string    `gorm:"size:64;not null" json:"video_id"`
	Title     string    `gorm:"size:128;not null" json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RemixReference) TableName() string { return "remix_references" }
