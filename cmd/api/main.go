package main

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/db"
	"github.com/clipforge/clipforge/internal/httpapi"
	"github.com/clipforge/clipforge/internal/httpapi/handlers"
	"github.com/clipforge/clipforge/internal/imagecrop"
	"github.com/clipforge/clipforge/internal/provider"
	"github.com/clipforge/clipforge/internal/store"
	"github.com/clipforge/clipforge/internal/store/rabbitmq"
	"github.com/clipforge/clipforge/internal/store/redisstore"
	"github.com/clipforge/clipforge/internal/studio"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	repo := store.NewRepo(gdb)

	snapshots := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SnapshotTTL)
	defer snapshots.Close()

	var events studio.EventPublisher = studio.NoopPublisher{}
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatalf("rabbitmq connect: %v", err)
		}
		defer pub.Close()
		events = eventBridge{pub}
	}

	gateway := provider.NewClient(cfg.ProviderBaseURL, cfg.ChatModel, cfg.TitleModel, cfg.ImageModel)

	repoStore := &studio.RepoStore{Repo: repo}

	cropW, cropH := parseFrameSize(cfg.DefaultVideoSize)
	crop := func(src []byte) ([]byte, error) {
		return imagecrop.Crop(src, cropW, cropH, 0.5, 0.5)
	}

	sessions := studio.NewManager(studio.CoordinatorDeps{
		Store:        repoStore,
		Gateway:      gateway,
		Crop:         crop,
		Events:       events,
		Snapshots:    snapshots,
		PollInterval: cfg.PollInterval,
		Defaults: studio.VideoConfig{
			Model:   cfg.DefaultVideoModel,
			Size:    cfg.DefaultVideoSize,
			Seconds: cfg.DefaultVideoSecs,
		},
	})
	turns := studio.NewTurnHandler(gateway, repoStore)

	h := handlers.NewHandler(cfg, repo, gateway, sessions, turns)
	r := httpapi.NewRouter(cfg, h)

	log.Printf("listening on %s", cfg.Port)
	if err := r.Run(cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// eventBridge adapts the queue publisher to the coordinator's interface.
type eventBridge struct {
	pub *rabbitmq.Publisher
}

func (b eventBridge) PublishTimelineEvent(ctx context.Context, ev studio.Event) error {
	return b.pub.PublishTimelineEvent(ctx, rabbitmq.TimelineEvent{
		SessionID: ev.SessionID,
		JobID:     ev.JobID,
		Status:    ev.Status,
		Title:     ev.Title,
		IsRemix:   ev.IsRemix,
		At:        ev.At,
	})
}

func parseFrameSize(size string) (int, int) {
	parts := strings.SplitN(size, "x", 2)
	if len(parts) == 2 {
		w, werr := strconv.Atoi(parts[0])
		h, herr := strconv.Atoi(parts[1])
		if werr == nil && herr == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return 1280, 720
}
