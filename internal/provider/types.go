package provider

import (
	"context"
	"io"
	"time"
)

// Phase is the job lifecycle state as reported by the provider.
type Phase string

const (
	PhaseQueued     Phase = "queued"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// VideoJob is the provider-side descriptor of one generation or remix request.
type VideoJob struct {
	ID            string    `json:"id"`
	Phase         Phase     `json:"status"`
	Progress      int       `json:"progress"`
	RemixedFromID string    `json:"remixed_from_video_id,omitempty"`
	Prompt        string    `json:"prompt,omitempty"`
	Model         string    `json:"model,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	Error         *Error    `json:"error,omitempty"`
}

// Turn is one prior chat exchange sent to the text model.
type Turn struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}

// RemixContext carries the source video's title and a flattened transcript of
// the conversation that produced it.
type RemixContext struct {
	VideoTitle   string `json:"videoTitle"`
	PreviousChat string `json:"previousChat,omitempty"`
}

type CreateVideoRequest struct {
	Prompt         string
	Model          string
	Size           string
	Seconds        string
	ReferenceImage []byte // optional PNG bytes, already cropped
}

type RemixRequest struct {
	Prompt  string
	Model   string
	Size    string
	Seconds string
}

// Gateway is the surface of the third-party generation service the rest of
// the system depends on. Every call forwards the caller's credential.
type Gateway interface {
	CreateTextReply(ctx context.Context, cred string, turns []Turn, guidance string, remix *RemixContext) (string, error)
	CreateShortTitle(ctx context.Context, cred string, description string) (string, error)
	GenerateImage(ctx context.Context, cred string, prompt string) (string, error)
	CreateVideoJob(ctx context.Context, cred string, req CreateVideoRequest) (*VideoJob, error)
	CreateRemixJob(ctx context.Context, cred string, sourceJobID string, req RemixRequest) (*VideoJob, error)
	GetVideoJob(ctx context.Context, cred string, jobID string) (*VideoJob, error)
	ListVideoJobs(ctx context.Context, cred string) ([]VideoJob, error)
	DownloadVideoArtifact(ctx context.Context, cred string, jobID string) (io.ReadCloser, error)
}
