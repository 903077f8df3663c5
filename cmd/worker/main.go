package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/reldane/chatrelay/internal/ai"
	"github.com/reldane/chatrelay/internal/chat"
	"github.com/reldane/chatrelay/internal/config"
	"github.com/reldane/chatrelay/internal/db"
	"github.com/reldane/chatrelay/internal/logger"
	"go.uber.org/zap"
)

type jobMsg struct {
	JobID string `json:"job_id"`
}

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
	log := logger.New()
	defer log.Sync() //nolint:errcheck

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}

	reg := ai.NewRegistry()
	reg.Register(ai.ProviderOpenAI, func(model string) (ai.Provider, error) {
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, model), nil
	})

	// The worker only runs the title model, so tool and publisher wiring
	// stay nil.
	svc := chat.NewService(chat.NewRepo(gdb), reg, ai.DefaultCatalog(), nil, nil, log)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbit dial", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel", zap.Error(err))
	}
	defer ch.Close()

	// match publisher topology
	mainQ := cfg.RabbitQueue
	dlqQ := mainQ + ".dlq"
	if _, err := ch.QueueDeclare(dlqQ, true, false, false, false, nil); err != nil {
		log.Fatal("dlq declare", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(mainQ, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqQ,
	}); err != nil {
		log.Fatal("queue declare", zap.Error(err))
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos", zap.Error(err))
	}

	msgs, err := ch.Consume(mainQ, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started",
		zap.String("queue", mainQ),
		zap.Int("concurrency", concurrency))

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Warn("bad message", zap.Int("worker", workerID), zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := svc.RefineTitle(ctx, m.JobID); err != nil {
					log.Warn("title job failed",
						zap.Int("worker", workerID),
						zap.String("job", m.JobID),
						zap.Duration("cost", time.Since(start)),
						zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Warn("ack failed",
						zap.Int("worker", workerID),
						zap.String("job", m.JobID),
						zap.Error(err))
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}
