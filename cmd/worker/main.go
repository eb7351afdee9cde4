package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/db"
	"github.com/clipforge/clipforge/internal/store"
	"github.com/clipforge/clipforge/internal/store/rabbitmq"
)

// The worker drains the timeline-event queue. Terminal events fold the final
// status back into the saved-video index, so the durable record converges
// even when the API process died mid-poll. Malformed messages dead-letter.

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required for the worker")
	}

	gdb := db.Connect(cfg.DBDSN)
	repo := store.NewRepo(gdb)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTimelineQueues(ch, cfg.RabbitQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var ev rabbitmq.TimelineEvent
				if err := json.Unmarshal(d.Body, &ev); err != nil || ev.SessionID == "" || ev.Status == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				if err := handleEvent(ctx, repo, ev); err != nil {
					log.Printf("worker=%d event session=%s status=%s failed: %v", workerID, ev.SessionID, ev.Status, err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed session=%s err=%v", workerID, ev.SessionID, err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

func handleEvent(ctx context.Context, repo *store.Repo, ev rabbitmq.TimelineEvent) error {
	switch ev.Status {
	case "completed", "failed":
		if ev.JobID == "" {
			return nil
		}
		return repo.UpdateSavedVideoStatus(ctx, ev.JobID, ev.Status)
	default:
		// started events are informational; consumers downstream of this
		// queue (notifiers, analytics) read them from their own bindings.
		log.Printf("event session=%s job=%s status=%s title=%q remix=%t",
			ev.SessionID, ev.JobID, ev.Status, ev.Title, ev.IsRemix)
		return nil
	}
}
