package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/avvvet/tabletop-services/configs"
	"github.com/avvvet/tabletop-services/internal/auditsvc/archive"
	auditconfig "github.com/avvvet/tabletop-services/internal/auditsvc/config"
	"github.com/avvvet/tabletop-services/internal/db"
	nats "github.com/avvvet/tabletop-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "audit"

var instanceId string

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg, err := auditconfig.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// mongo connection
	database, err := db.ConnectToDB(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.Client().Disconnect(ctx); err != nil {
			log.Warnf("mongo disconnect: %s", err)
		}
	}()

	coll, err := archive.Setup(ctx, database, cfg.Collection, cfg.Retention)
	if err != nil {
		log.Fatalf("Failed to prepare collection %s: %v", cfg.Collection, err)
	}
	a := archive.New(coll)

	// Connect to NATS
	natsCfg, err := nats.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid NATS configuration: %v", err)
	}
	n, err := nats.Connect(natsCfg, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	defer n.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	sub, err := a.QueueSubscribe(n.Conn, cfg.EventsTopic, cfg.QueueGroup)
	if err != nil {
		log.Fatalf("Error: unable to subscribe to %s %v", cfg.EventsTopic, err)
	}
	log.Infof("%s service archiving %s into %s", SERVICE_NAME, cfg.EventsTopic, cfg.Collection)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := sub.Drain(); err != nil {
		log.Warnf("subscription drain: %s", err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
