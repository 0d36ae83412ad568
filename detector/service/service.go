package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"

	"smartcheckout/common"
	"smartcheckout/detector/catalog"
	"smartcheckout/detector/config"
	"smartcheckout/detector/handlers"
	"smartcheckout/detector/rabbitmq"
	"smartcheckout/detector/session"
	"smartcheckout/detector/stream"
	"smartcheckout/detector/websocket"
)

// Service manages detection aggregation and feed broadcasting
type Service struct {
	config   *config.Config
	catalog  *catalog.Catalog
	session  *session.Session
	hub      *websocket.Hub
	relay    *stream.Relay
	events   *rabbitmq.Publisher
	handlers *handlers.Handlers

	// Control channels
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewService creates a new detector service
func NewService(cfg *config.Config) (*Service, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var events *rabbitmq.Publisher
	if cfg.AMQPURL != "" {
		events, err = rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create session event publisher: %w", err)
		}
	}

	hub := websocket.NewHub()
	sess := session.New(cat, cfg.RecountThreshold)
	relay := stream.NewRelay(cfg.FrameQueueSize)

	service := &Service{
		config:   cfg,
		catalog:  cat,
		session:  sess,
		hub:      hub,
		relay:    relay,
		events:   events,
		handlers: handlers.NewHandlers(hub, sess, cat, relay, events, cfg.DetectionThreshold),
		stopChan: make(chan struct{}),
	}

	return service, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	switch cfg.CatalogSource {
	case "mysql":
		db, err := common.DBConnect(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return catalog.LoadDB(ctx, db)
	case "file":
		return catalog.LoadFile(cfg.ProductsFile)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}
}

// Start starts the service
func (s *Service) Start() error {
	log.Info("Starting detector service...")

	// Start the WebSocket hub
	go s.hub.Run()

	// Start the broadcast loop
	s.wg.Add(1)
	go s.broadcastLoop()

	// Start fake detections when test mode is enabled
	if s.config.TestMode {
		log.Warn("Running in test mode with fake detections")
		s.wg.Add(1)
		go s.testModeLoop()
	}

	log.Info("Detector service started successfully")
	return nil
}

// Stop stops the service gracefully
func (s *Service) Stop() error {
	log.Info("Stopping detector service...")

	close(s.stopChan)
	s.wg.Wait()

	if s.events != nil {
		if err := s.events.Close(); err != nil {
			log.Errorf("Error closing session event publisher: %v", err)
		}
	}

	log.Info("Detector service stopped")
	return nil
}

// GetHandlers returns the HTTP handlers
func (s *Service) GetHandlers() *handlers.Handlers {
	return s.handlers
}

// broadcastLoop pushes the current snapshot to all feed subscribers on
// every tick, whether or not a session is active. A stopped session keeps
// broadcasting its final product list.
func (s *Service) broadcastLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.hub.BroadcastSnapshot(s.session.Snapshot())
		}
	}
}

// testModeLoop cycles through catalog labels to simulate scanning
// products one after another.
func (s *Service) testModeLoop() {
	defer s.wg.Done()

	labels := s.catalog.Labels()
	if len(labels) == 0 {
		log.Warn("Test mode enabled with an empty catalog, nothing to simulate")
		return
	}

	ticker := time.NewTicker(s.config.TestModeInterval)
	defer ticker.Stop()

	next := 0
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			label := labels[next]
			s.session.Observe([]string{label})
			log.Debugf("Added test detection for %s", label)
			next = (next + 1) % len(labels)
		}
	}
}
