package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/apex/log"

	"smartcheckout/models"
	"smartcheckout/monitor/config"
	"smartcheckout/monitor/feed"
	"smartcheckout/monitor/invoice"
)

// Service is the parent container of the monitor: it owns the feed
// subscription, the latest detection snapshot, and the invoice identity.
// The snapshot is replaced atomically on every inbound message and the
// bill is derived from it on demand.
type Service struct {
	config *config.Config
	inv    invoice.Invoice

	mu       sync.RWMutex
	products []models.DetectedProduct
	connErr  bool
	addr     string
	consumer *feed.Consumer
	cancel   context.CancelFunc
}

// NewService creates a new monitor service. The invoice number and date
// are fixed here and never change for the life of the process.
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		inv:    invoice.New(),
		addr:   cfg.FeedAddress(),
	}
}

// Start subscribes to the configured detector feed. A failed dial leaves
// the connectivity-error flag set; the monitor keeps running so the
// address can be corrected over the API.
func (s *Service) Start() error {
	log.Infof("Starting monitor service, invoice %s", s.inv.Number)

	if err := s.connect(s.addr); err != nil {
		log.Warnf("Initial feed connection failed: %v", err)
	}
	return nil
}

// Stop closes the feed subscription.
func (s *Service) Stop() error {
	log.Info("Stopping monitor service...")
	s.disconnect()
	log.Info("Monitor service stopped")
	return nil
}

// SetAddress switches the feed subscription to a new detector address.
// The old subscription is closed exactly once before exactly one new one
// is dialed, and the snapshot resets to empty for the new feed.
func (s *Service) SetAddress(host, port string) error {
	if host == "" || port == "" {
		return fmt.Errorf("host and port are required")
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	s.disconnect()

	s.mu.Lock()
	s.addr = addr
	s.products = nil
	s.mu.Unlock()

	return s.connect(addr)
}

// CurrentBill derives the invoice from the latest snapshot.
func (s *Service) CurrentBill() invoice.Bill {
	s.mu.RLock()
	products := make([]models.DetectedProduct, len(s.products))
	copy(products, s.products)
	s.mu.RUnlock()

	return s.inv.Bill(products)
}

// FeedStatus returns the configured address, whether the subscription is
// open, and the connectivity-error flag.
func (s *Service) FeedStatus() (addr string, connected, connErr bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr, s.consumer != nil && s.consumer.Alive(), s.connErr
}

// Config returns the monitor configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

func (s *Service) connect(addr string) error {
	ctx, cancel := context.WithCancel(context.Background())
	consumer, err := feed.Dial(ctx, addr, s.applySnapshot, s.setConnError)
	if err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.consumer = consumer
	s.cancel = cancel
	s.mu.Unlock()
	return nil
}

func (s *Service) disconnect() {
	s.mu.Lock()
	consumer := s.consumer
	cancel := s.cancel
	s.consumer = nil
	s.cancel = nil
	s.mu.Unlock()

	if consumer != nil {
		consumer.Close()
		<-consumer.Done()
	}
	if cancel != nil {
		cancel()
	}
}

// applySnapshot replaces the snapshot wholesale. No merge with prior
// state, no deduplication across messages.
func (s *Service) applySnapshot(products []models.DetectedProduct) {
	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
}

func (s *Service) setConnError(failed bool) {
	s.mu.Lock()
	s.connErr = failed
	s.mu.Unlock()
}
