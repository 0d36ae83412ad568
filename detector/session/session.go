package session

import (
	"sync"
	"time"

	"github.com/apex/log"

	"smartcheckout/detector/catalog"
	"smartcheckout/models"
)

// entry tracks the running count for one product label.
type entry struct {
	quantity   int
	lastUpdate time.Time
}

// Session aggregates detection observations into a product list while a
// checkout session is active. A label seen for the first time enters with
// quantity 1; seeing it again only increments the count once the re-count
// threshold has elapsed since its last update, so a product sitting in
// front of the camera is not counted once per frame.
type Session struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	threshold time.Duration
	active    bool
	entries   map[string]*entry
	order     []string

	// now is replaceable for tests
	now func() time.Time
}

// New creates a session aggregator over the given catalog.
func New(cat *catalog.Catalog, threshold time.Duration) *Session {
	return &Session{
		catalog:   cat,
		threshold: threshold,
		entries:   make(map[string]*entry),
		now:       time.Now,
	}
}

// Start activates the session and resets any accumulated state.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.entries = make(map[string]*entry)
	s.order = nil
	log.Info("Detection session started")
}

// Stop deactivates the session. Accumulated state is kept so the final
// product list can still be served and broadcast.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	log.Info("Detection session stopped")
}

// Active reports whether a session is currently running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Observe records a batch of detected labels. Observations made while no
// session is active are dropped.
func (s *Session) Observe(labels []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}

	now := s.now()
	for _, label := range labels {
		e, ok := s.entries[label]
		if !ok {
			s.entries[label] = &entry{quantity: 1, lastUpdate: now}
			s.order = append(s.order, label)
			continue
		}
		if now.Sub(e.lastUpdate) >= s.threshold {
			e.quantity++
			e.lastUpdate = now
		}
	}
}

// Snapshot returns the current product list in first-seen order, priced
// from the catalog.
func (s *Session) Snapshot() []models.DetectedProduct {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]models.DetectedProduct, 0, len(s.order))
	for _, label := range s.order {
		e := s.entries[label]
		price, _ := s.catalog.Price(label).Float64()
		products = append(products, models.DetectedProduct{
			Name:     label,
			Quantity: e.quantity,
			Price:    price,
		})
	}
	return products
}
