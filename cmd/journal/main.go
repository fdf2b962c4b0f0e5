// Command journal consumes capture events from RabbitMQ and appends one
// line per event to the capture journal file.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/config"
	"github.com/iliyamo/fishtrack/internal/logging"
	"github.com/iliyamo/fishtrack/internal/queue"
)

func main() {
	_ = godotenv.Load()
	log := logging.Must(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL")).Named("journal")
	defer func() { _ = log.Sync() }()

	qc := config.LoadQueueConfig()
	if !qc.Enabled {
		log.Fatal("RABBITMQ_URL is not set")
	}
	f, err := queue.OpenJournalFile(qc.JournalPath)
	if err != nil {
		log.Fatal("open journal file", zap.String("path", qc.JournalPath), zap.Error(err))
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("consuming capture events", zap.String("queue", qc.Queue), zap.String("journal", qc.JournalPath))
	if err := queue.Consume(ctx, qc.URL, qc.Queue, queue.NewJournal(f), log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped", zap.Error(err))
	}
}
