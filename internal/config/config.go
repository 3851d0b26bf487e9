package config

import (
	"time"

	"github.com/camerpulse/sentinel/pkg/config"
)

// Config holds the sentinel service configuration, read once at startup.
type Config struct {
	Port        string
	DatabaseURL string

	// Context bundle cache TTL.
	ContextTTL time.Duration

	// Kafka ingestion is enabled when brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
}

func Load() Config {
	return Config{
		Port:         config.GetEnv("PORT", "18107"),
		DatabaseURL:  config.RequireEnv("DATABASE_URL"),
		ContextTTL:   time.Duration(config.GetEnvInt("CONTEXT_TTL_MINUTES", 30)) * time.Minute,
		KafkaBrokers: config.GetEnvSlice("KAFKA_BROKERS", nil),
		KafkaTopic:   config.GetEnv("KAFKA_TOPIC", "social.posts"),
		KafkaGroupID: config.GetEnv("KAFKA_GROUP_ID", "sentinel"),
	}
}
