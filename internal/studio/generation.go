package studio

import (
	"context"
	"errors"
	"time"

	"github.com/clipforge/clipforge/internal/provider"
)

// Phase is the coordinator's view of the job lifecycle. It matches the
// provider phases plus the pre-submission idle state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseQueued     Phase = "queued"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

func (p Phase) Terminal() bool { return p == PhaseCompleted || p == PhaseFailed }

// GenerationJob is the live snapshot of the session's single in-flight
// generation. ArtifactRef is set exactly when the phase is completed;
// FailureReason only when failed.
type GenerationJob struct {
	JobID         string `json:"id,omitempty"`
	Phase         Phase  `json:"status"`
	Progress      int    `json:"progress"`
	ArtifactRef   string `json:"video_url,omitempty"`
	FailureReason string `json:"error,omitempty"`
}

// RemixReference is the selected source for a remix submission.
type RemixReference struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
}

// TimelineEntry is a synthetic info message marking a lifecycle milestone.
// Entries are append-only; the completion milestone is a new entry, never an
// edit of the started one.
type TimelineEntry struct {
	Kind    string // generation | remix_reference
	Status  string // started | completed (generation kind only)
	Title   string
	IsRemix bool
	Content string
	VideoID string // set on completion, for inline download
}

// SavedVideoRecord is the durable link between a provider job and the
// conversation that produced it, keyed by VideoID.
type SavedVideoRecord struct {
	VideoID            string
	ConversationID     string
	Prompt             string
	Title              string
	Model              string
	Status             string
	RemixedFromVideoID *string
}

// VideoConfig is the generation payload surface the user tunes outside the
// chat (the model never negotiates these).
type VideoConfig struct {
	Model   string
	Size    string
	Seconds string
}

// Store is the narrow slice of the persisted store the coordinator touches.
type Store interface {
	UserTurnContents(ctx context.Context, conversationID string) ([]string, error)
	AppendTimelineEntry(ctx context.Context, conversationID string, e TimelineEntry) error
	UpsertSavedVideo(ctx context.Context, rec SavedVideoRecord) error
	UpdateSavedVideoStatus(ctx context.Context, videoID, status string) error
	SaveRemixReference(ctx context.Context, sessionID string, ref *RemixReference) error
}

// Event is a lifecycle milestone fanned out to external consumers.
type Event struct {
	SessionID string
	JobID     string
	Status    string // started | completed | failed
	Title     string
	IsRemix   bool
	At        time.Time
}

type EventPublisher interface {
	PublishTimelineEvent(ctx context.Context, ev Event) error
}

// SnapshotStore mirrors the live GenerationJob so a reloaded page can
// re-query progress. Writes are fire-and-forget.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, sessionID string, snap any) error
	DeleteSnapshot(ctx context.Context, sessionID string) error
}

// CropFunc crops an attached reference image to the generation frame.
type CropFunc func(src []byte) ([]byte, error)

type NoopPublisher struct{}

func (NoopPublisher) PublishTimelineEvent(context.Context, Event) error { return nil }

type NoopSnapshots struct{}

func (NoopSnapshots) SaveSnapshot(context.Context, string, any) error { return nil }
func (NoopSnapshots) DeleteSnapshot(context.Context, string) error    { return nil }

var (
	ErrMissingCredential  = errors.New("api key is required")
	ErrEmptyPrompt        = errors.New("describe your video idea in the chat first")
	ErrGenerationInFlight = errors.New("a video generation is already in progress")
)

func phaseOf(p provider.Phase) Phase {
	switch p {
	case provider.PhaseQueued, provider.PhaseInProgress, provider.PhaseCompleted, provider.PhaseFailed:
		return Phase(p)
	default:
		// Unknown provider phases display as queued rather than breaking
		// the state machine.
		return PhaseQueued
	}
}
