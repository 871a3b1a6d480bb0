package nats

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Url   string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	Token string `env:"NATS_TOKEN"`
}

type Nats struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

// LoadConfig reads the NATS settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse nats env: %w", err)
	}
	return cfg, nil
}

// Options builds the connection options shared by every service.
func (c Config) Options(name string) []nats.Option {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("nats disconnected: %s", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("nats reconnected to %s", nc.ConnectedUrl())
		}),
	}

	// if token provided
	if c.Token != "" {
		opts = append(opts, nats.Token(c.Token))
	}
	return opts
}

func Connect(cfg Config, name string) (*Nats, error) {
	n := &Nats{
		Url:   cfg.Url,
		Token: cfg.Token,
	}

	conn, err := nats.Connect(n.Url, cfg.Options(name)...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", n.Url, err)
	}

	n.Conn = conn

	return n, nil
}

// Close drains pending messages before closing the connection.
func (n *Nats) Close() {
	if n == nil || n.Conn == nil {
		return
	}
	if err := n.Conn.Drain(); err != nil {
		log.Warnf("nats drain: %s", err)
		n.Conn.Close()
	}
}
