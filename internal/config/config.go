package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port      string
	DBDSN     string
	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Provider gateway (the upstream generation API)
	ProviderBaseURL string
	ChatModel       string
	TitleModel      string
	ImageModel      string

	// Video defaults (overridable per request)
	DefaultVideoModel string
	DefaultVideoSize  string
	DefaultVideoSecs  string

	// Generation coordinator
	PollInterval time.Duration
	SnapshotTTL  time.Duration

	// rabbitMQ (optional; timeline events are dropped when unset)
	RabbitURL   string
	RabbitQueue string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	// DSN demo:
	// app:apppass@tcp(127.0.0.1:3306)/clipforge?charset=utf8mb4&parseTime=true&loc=Local
	// A plain path or file: URI selects the embedded sqlite driver instead.
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "clipforge.db"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	providerBaseURL := os.Getenv("PROVIDER_BASE_URL")
	if providerBaseURL == "" {
		providerBaseURL = "https://api.openai.com/v1"
	}

	chatModel := os.Getenv("CHAT_MODEL")
	if chatModel == "" {
		chatModel = "gpt-5"
	}
	titleModel := os.Getenv("TITLE_MODEL")
	if titleModel == "" {
		titleModel = chatModel
	}
	imageModel := os.Getenv("IMAGE_MODEL")
	if imageModel == "" {
		imageModel = "gpt-image-1"
	}

	videoModel := os.Getenv("VIDEO_MODEL")
	if videoModel == "" {
		videoModel = "sora-2"
	}
	videoSize := os.Getenv("VIDEO_SIZE")
	if videoSize == "" {
		videoSize = "1280x720"
	}
	videoSecs := os.Getenv("VIDEO_SECONDS")
	if videoSecs == "" {
		videoSecs = "8"
	}

	pollInterval := 5 * time.Second
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pollInterval = time.Duration(n) * time.Second
		}
	}

	snapshotTTL := 30 * time.Minute
	if v := os.Getenv("SNAPSHOT_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			snapshotTTL = time.Duration(n) * time.Minute
		}
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "timeline_events"
	}

	return Config{
		Port:      port,
		DBDSN:     dsn,
		JWTSecret: secret,

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		ProviderBaseURL: providerBaseURL,
		ChatModel:       chatModel,
		TitleModel:      titleModel,
		ImageModel:      imageModel,

		DefaultVideoModel: videoModel,
		DefaultVideoSize:  videoSize,
		DefaultVideoSecs:  videoSecs,

		PollInterval: pollInterval,
		SnapshotTTL:  snapshotTTL,

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,
	}
}
