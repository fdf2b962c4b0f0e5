package config

import "os"

// QueueConfig configures the RabbitMQ connection used for capture events.
type QueueConfig struct {
    Enabled bool
    URL     string
    Queue   string
    // JournalPath is where cmd/journal appends consumed events.
    JournalPath string
}

// LoadQueueConfig reads RABBITMQ_URL (or AMQP_URL).  Publishing is enabled
// only when one of them is set.
func LoadQueueConfig() QueueConfig {
    url := os.Getenv("RABBITMQ_URL")
    if url == "" {
        url = os.Getenv("AMQP_URL")
    }
    return QueueConfig{
        Enabled:     url != "",
        URL:         url,
        Queue:       envStr("CAPTURE_EVENTS_QUEUE", "capture.events"),
        JournalPath: envStr("JOURNAL_PATH", "logs/captures.log"),
    }
}
