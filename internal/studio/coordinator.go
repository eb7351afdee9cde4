package studio

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/clipforge/clipforge/internal/provider"
)

// Coordinator owns the lifecycle of the session's single in-flight video
// generation: title derivation, payload assembly, submission (create or
// remix), status polling and terminal handling. At most one polling loop is
// alive per coordinator; the guard set in Start is released only on a
// terminal transition.
type Coordinator struct {
	sessionID    string
	store        Store
	gateway      provider.Gateway
	crop         CropFunc
	events       EventPublisher
	snapshots    SnapshotStore
	newTicker    TickerFactory
	pollInterval time.Duration

	mu             sync.Mutex
	conversationID string
	job            GenerationJob
	remix          *RemixReference
	refImage       []byte
	config         VideoConfig
	active         bool
}

type CoordinatorDeps struct {
	Store        Store
	Gateway      provider.Gateway
	Crop         CropFunc
	Events       EventPublisher
	Snapshots    SnapshotStore
	NewTicker    TickerFactory
	PollInterval time.Duration
	Defaults     VideoConfig
}

func NewCoordinator(sessionID, conversationID string, deps CoordinatorDeps) *Coordinator {
	if deps.Events == nil {
		deps.Events = NoopPublisher{}
	}
	if deps.Snapshots == nil {
		deps.Snapshots = NoopSnapshots{}
	}
	if deps.NewTicker == nil {
		deps.NewTicker = RealTicker
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = 5 * time.Second
	}
	return &Coordinator{
		sessionID:      sessionID,
		store:          deps.Store,
		gateway:        deps.Gateway,
		crop:           deps.Crop,
		events:         deps.Events,
		snapshots:      deps.Snapshots,
		newTicker:      deps.NewTicker,
		pollInterval:   deps.PollInterval,
		conversationID: conversationID,
		job:            GenerationJob{Phase: PhaseIdle},
	}
}

func (c *Coordinator) Snapshot() GenerationJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job
}

func (c *Coordinator) SetVideoConfig(cfg VideoConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg.Model != "" {
		c.config.Model = cfg.Model
	}
	if cfg.Size != "" {
		c.config.Size = cfg.Size
	}
	if cfg.Seconds != "" {
		c.config.Seconds = cfg.Seconds
	}
}

func (c *Coordinator) SetReferenceImage(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refImage = data
}

func (c *Coordinator) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// RemixReference returns the active remix source, or nil.
func (c *Coordinator) RemixReference() *RemixReference {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remix == nil {
		return nil
	}
	ref := *c.remix
	return &ref
}

// SelectRemixReference makes a prior video the remix source. Re-selecting
// the active reference is a no-op; a new selection appends its own timeline
// entry kind and replaces the reference.
func (c *Coordinator) SelectRemixReference(ctx context.Context, ref RemixReference) error {
	c.mu.Lock()
	if c.remix != nil && c.remix.VideoID == ref.VideoID {
		c.mu.Unlock()
		return nil
	}
	c.remix = &ref
	convID := c.conversationID
	c.mu.Unlock()

	if err := c.store.SaveRemixReference(ctx, c.sessionID, &ref); err != nil {
		return err
	}
	return c.store.AppendTimelineEntry(ctx, convID, TimelineEntry{
		Kind:    "remix_reference",
		Title:   ref.Title,
		IsRemix: true,
		VideoID: ref.VideoID,
		Content: fmt.Sprintf("Using %q as the remix source.", ref.Title),
	})
}

// RestoreRemixReference reinstates a persisted reference without logging a
// new timeline entry. Used when a session is rebuilt after a restart.
func (c *Coordinator) RestoreRemixReference(ref *RemixReference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ref == nil {
		c.remix = nil
		return
	}
	r := *ref
	c.remix = &r
}

func (c *Coordinator) ClearRemixReference(ctx context.Context) error {
	c.mu.Lock()
	c.remix = nil
	c.mu.Unlock()
	return c.store.SaveRemixReference(ctx, c.sessionID, nil)
}

// ResetForNewConversation repoints the coordinator at a fresh thread and
// clears the remix reference and reference image. An in-flight poll keeps
// ownership of the job state until it reaches a terminal phase.
func (c *Coordinator) ResetForNewConversation(ctx context.Context, conversationID string) {
	c.mu.Lock()
	c.conversationID = conversationID
	c.remix = nil
	c.refImage = nil
	if !c.active {
		c.job = GenerationJob{Phase: PhaseIdle}
	}
	c.mu.Unlock()

	if err := c.store.SaveRemixReference(ctx, c.sessionID, nil); err != nil {
		log.Printf("coordinator session=%s clear remix reference: %v", c.sessionID, err)
	}
	if err := c.snapshots.DeleteSnapshot(ctx, c.sessionID); err != nil {
		log.Printf("coordinator session=%s delete snapshot: %v", c.sessionID, err)
	}
}

// Start runs the generation entry contract. Precondition failures and a
// generation already in flight are returned as errors with no state change;
// a submission rejected by the provider is not an error here — it resolves
// to a Failed snapshot, which is the returned state.
func (c *Coordinator) Start(ctx context.Context, cred string) (GenerationJob, error) {
	if strings.TrimSpace(cred) == "" {
		return c.Snapshot(), ErrMissingCredential
	}

	// The re-entrancy guard is taken synchronously, before any provider
	// call, and released only on a terminal transition.
	c.mu.Lock()
	if c.active {
		snap := c.job
		c.mu.Unlock()
		return snap, ErrGenerationInFlight
	}
	c.active = true
	convID := c.conversationID
	remix := c.remix
	refImage := c.refImage
	cfg := c.config
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		c.active = false
		c.mu.Unlock()
	}

	turns, err := c.store.UserTurnContents(ctx, convID)
	if err != nil {
		release()
		return c.Snapshot(), err
	}
	prompt := strings.TrimSpace(strings.Join(turns, " "))
	if prompt == "" {
		release()
		return c.Snapshot(), ErrEmptyPrompt
	}

	title := c.deriveTitle(ctx, cred, prompt)

	c.setJob(ctx, GenerationJob{Phase: PhaseQueued, Progress: 0})

	isRemix := remix != nil
	started := TimelineEntry{
		Kind:    "generation",
		Status:  "started",
		Title:   title,
		IsRemix: isRemix,
	}
	if isRemix {
		started.Content = fmt.Sprintf("Remixing %q into %q.", remix.Title, title)
	} else {
		started.Content = fmt.Sprintf("Creating %q.", title)
	}
	if err := c.store.AppendTimelineEntry(ctx, convID, started); err != nil {
		log.Printf("coordinator session=%s append started entry: %v", c.sessionID, err)
	}
	c.publishEvent(ctx, "started", "", title, isRemix)

	var job *provider.VideoJob
	if isRemix {
		job, err = c.gateway.CreateRemixJob(ctx, cred, remix.VideoID, provider.RemixRequest{
			Prompt:  prompt,
			Model:   cfg.Model,
			Size:    cfg.Size,
			Seconds: cfg.Seconds,
		})
	} else {
		var image []byte
		if len(refImage) > 0 && c.crop != nil {
			cropped, cerr := c.crop(refImage)
			if cerr != nil {
				log.Printf("coordinator session=%s reference image crop failed, continuing without it: %v", c.sessionID, cerr)
			} else {
				image = cropped
			}
		}
		job, err = c.gateway.CreateVideoJob(ctx, cred, provider.CreateVideoRequest{
			Prompt:         prompt,
			Model:          cfg.Model,
			Size:           cfg.Size,
			Seconds:        cfg.Seconds,
			ReferenceImage: image,
		})
	}
	if err != nil {
		// Submission failure is terminal: no record, no polling.
		c.failTerminal(ctx, provider.Classify(err).Message)
		return c.Snapshot(), nil
	}

	rec := SavedVideoRecord{
		VideoID:        job.ID,
		ConversationID: convID,
		Prompt:         prompt,
		Title:          title,
		Model:          cfg.Model,
		Status:         string(phaseOf(job.Phase)),
	}
	if isRemix {
		src := remix.VideoID
		rec.RemixedFromVideoID = &src
	}
	if err := c.store.UpsertSavedVideo(ctx, rec); err != nil {
		log.Printf("coordinator session=%s save video record: %v", c.sessionID, err)
	}

	c.mu.Lock()
	c.job.JobID = job.ID
	c.job.Phase = phaseOf(job.Phase)
	c.job.Progress = job.Progress
	snap := c.job
	c.mu.Unlock()
	c.saveSnapshot(ctx)

	go c.pollLoop(cred, job.ID, convID, title, isRemix)

	return snap, nil
}

// pollLoop follows the job to a terminal phase. It outlives the triggering
// request, so it runs on a background context; the only exits are a terminal
// phase or a transport error (single strike, not retried).
func (c *Coordinator) pollLoop(cred, jobID, convID, title string, isRemix bool) {
	ctx := context.Background()
	ticker := c.newTicker(c.pollInterval)
	defer ticker.Stop()

	for range ticker.C() {
		job, err := c.gateway.GetVideoJob(ctx, cred, jobID)
		if err != nil {
			c.failTerminal(ctx, provider.Classify(err).Message)
			return
		}

		phase := phaseOf(job.Phase)
		c.mu.Lock()
		c.job.Phase = phase
		c.job.Progress = job.Progress
		c.mu.Unlock()
		c.saveSnapshot(ctx)

		// Mirror every tick so a refreshed page shows accurate status.
		if err := c.store.UpdateSavedVideoStatus(ctx, jobID, string(phase)); err != nil {
			log.Printf("coordinator session=%s mirror status: %v", c.sessionID, err)
		}

		switch phase {
		case PhaseCompleted:
			c.finish(ctx, jobID, convID, title, isRemix)
			return
		case PhaseFailed:
			reason := "Video generation failed"
			if job.Error != nil && job.Error.Message != "" {
				reason = job.Error.Message
			}
			c.failTerminal(ctx, reason)
			return
		}
	}
}

func (c *Coordinator) finish(ctx context.Context, jobID, convID, title string, isRemix bool) {
	artifactRef := "/api/videos/download/" + jobID

	c.mu.Lock()
	c.job.Phase = PhaseCompleted
	c.job.ArtifactRef = artifactRef
	c.job.FailureReason = ""
	c.active = false
	c.mu.Unlock()
	c.saveSnapshot(ctx)

	when := time.Now().Format("Jan 2, 2006 3:04 PM")
	entry := TimelineEntry{
		Kind:    "generation",
		Status:  "completed",
		Title:   title,
		IsRemix: isRemix,
		VideoID: jobID,
	}
	if isRemix {
		entry.Content = fmt.Sprintf("Remix %q ready. Generated at %s.", title, when)
	} else {
		entry.Content = fmt.Sprintf("Video %q ready. Generated at %s.", title, when)
	}
	if err := c.store.AppendTimelineEntry(ctx, convID, entry); err != nil {
		log.Printf("coordinator session=%s append completed entry: %v", c.sessionID, err)
	}
	c.publishEvent(ctx, "completed", jobID, title, isRemix)
}

func (c *Coordinator) failTerminal(ctx context.Context, reason string) {
	c.mu.Lock()
	c.job.Phase = PhaseFailed
	c.job.FailureReason = reason
	c.job.ArtifactRef = ""
	c.active = false
	jobID := c.job.JobID
	title := ""
	c.mu.Unlock()
	c.saveSnapshot(ctx)
	c.publishEvent(ctx, "failed", jobID, title, false)
}

func (c *Coordinator) setJob(ctx context.Context, job GenerationJob) {
	c.mu.Lock()
	c.job = job
	c.mu.Unlock()
	c.saveSnapshot(ctx)
}

func (c *Coordinator) saveSnapshot(ctx context.Context) {
	snap := c.Snapshot()
	if err := c.snapshots.SaveSnapshot(ctx, c.sessionID, snap); err != nil {
		log.Printf("coordinator session=%s save snapshot: %v", c.sessionID, err)
	}
}

func (c *Coordinator) publishEvent(ctx context.Context, status, jobID, title string, isRemix bool) {
	err := c.events.PublishTimelineEvent(ctx, Event{
		SessionID: c.sessionID,
		JobID:     jobID,
		Status:    status,
		Title:     title,
		IsRemix:   isRemix,
		At:        time.Now(),
	})
	if err != nil {
		log.Printf("coordinator session=%s publish %s event: %v", c.sessionID, status, err)
	}
}
