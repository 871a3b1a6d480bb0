package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/avvvet/tabletop-services/configs"
	"github.com/avvvet/tabletop-services/internal/campaignsvc/broker"
	svcconfig "github.com/avvvet/tabletop-services/internal/campaignsvc/config"
	"github.com/avvvet/tabletop-services/internal/campaignsvc/db"
	handlers "github.com/avvvet/tabletop-services/internal/campaignsvc/handlers"
	"github.com/avvvet/tabletop-services/internal/campaignsvc/service"
	"github.com/avvvet/tabletop-services/internal/campaignsvc/store"
	nats "github.com/avvvet/tabletop-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "campaign"

var instanceId string

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// pg connection
	dbpool, err := db.Connect(cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	applied, err := db.Migrate(context.Background(), dbpool)
	if err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}
	if len(applied) > 0 {
		log.Infof("applied migrations: %v", applied)
	}

	// events are optional; the service keeps working without NATS
	var events service.EventPublisher
	var n *nats.Nats
	if cfg.PublishEvent {
		natsCfg, err := nats.LoadConfig()
		if err != nil {
			log.Fatalf("Invalid NATS configuration: %v", err)
		}
		n, err = nats.Connect(natsCfg, SERVICE_NAME+"-"+instanceId)
		if err != nil {
			log.Errorf("unable to connect to NATS server, campaign events are disabled: %v", err)
		} else {
			defer n.Close()
			log.Printf("NATS connection established successfully %s", n.Url)
			events = broker.NewBroker(n.Conn, cfg.EventsTopic, instanceId)
		}
	}

	userStore := store.NewUserStore(dbpool)
	userService := service.NewUserService(userStore)

	campaignStore := store.NewCampaignStore(dbpool)
	campaignService := service.NewCampaignService(campaignStore)

	characterStore := store.NewCharacterStore(dbpool)
	characterService := service.NewCharacterService(characterStore, campaignStore, events)

	inviteStore := store.NewInviteStore(dbpool)
	inviteService := service.NewInviteService(inviteStore, campaignStore, events)

	logStore := store.NewLogStore(dbpool)
	logService := service.NewLogService(logStore, campaignStore)

	referenceStore := store.NewReferenceStore(dbpool)
	referenceService := service.NewReferenceService(referenceStore)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(handlers.Services{
		Users:      userService,
		Campaigns:  campaignService,
		Characters: characterService,
		Invites:    inviteService,
		Logs:       logService,
		Reference:  referenceService,
	}, cfg.Port)
	h.InitAuth(cfg.JWTSecret)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
		return
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
