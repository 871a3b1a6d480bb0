package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the audit service configuration.
type Config struct {
	MongoURI    string        `env:"MONGODB_URI,required,notEmpty"` // mongodb://host:27017/campaign_audit
	Collection  string        `env:"AUDIT_COLLECTION" envDefault:"campaign_events"`
	Retention   time.Duration `env:"AUDIT_RETENTION" envDefault:"2160h"`
	EventsTopic string        `env:"CAMPAIGN_EVENTS_TOPIC" envDefault:"campaign.events"`
	QueueGroup  string        `env:"AUDIT_QUEUE_GROUP" envDefault:"auditsvc"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Retention < time.Hour {
		return Config{}, fmt.Errorf("AUDIT_RETENTION must be at least 1h, got %s", cfg.Retention)
	}
	return cfg, nil
}
