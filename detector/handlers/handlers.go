package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"smartcheckout/detector/catalog"
	"smartcheckout/detector/rabbitmq"
	"smartcheckout/detector/session"
	"smartcheckout/detector/stream"
	ws "smartcheckout/detector/websocket"
	"smartcheckout/models"
)

// MaxFrameSize caps a single ingested JPEG frame
const MaxFrameSize = 4 << 20

// Handlers contains all HTTP handlers
type Handlers struct {
	hub       *ws.Hub
	session   *session.Session
	catalog   *catalog.Catalog
	relay     *stream.Relay
	events    *rabbitmq.Publisher // nil when AMQP is not configured
	threshold float64
}

// NewHandlers creates a new handlers instance
func NewHandlers(hub *ws.Hub, sess *session.Session, cat *catalog.Catalog, relay *stream.Relay, events *rabbitmq.Publisher, threshold float64) *Handlers {
	return &Handlers{
		hub:       hub,
		session:   sess,
		catalog:   cat,
		relay:     relay,
		events:    events,
		threshold: threshold,
	}
}

// WebSocket upgrader
var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now
		// In production, you should implement proper origin checking
		return true
	},
}

// ListenDetections handles WebSocket connections for the detection feed
func (h *Handlers) ListenDetections(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established")
}

// StartDetection handles POST /api/v3/detections/start
func (h *Handlers) StartDetection(c *gin.Context) {
	h.session.Start()
	h.publishEvent("started", nil)
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// StopDetection handles POST /api/v3/detections/stop
func (h *Handlers) StopDetection(c *gin.Context) {
	h.session.Stop()
	h.publishEvent("stopped", h.session.Snapshot())
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (h *Handlers) publishEvent(event string, products []models.DetectedProduct) {
	if h.events == nil {
		return
	}
	err := h.events.Publish(models.SessionEvent{
		Event:     event,
		Products:  products,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Errorf("Failed to publish session %s event: %v", event, err)
	}
}

// Observation is one classified detection from the camera process
type Observation struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// IngestRequest is the payload schema for observation ingest
type IngestRequest struct {
	Detections []Observation `json:"detections"`
}

// IngestObservations handles POST /api/v3/detections. Observations below
// the confidence threshold are discarded, the rest feed the session.
func (h *Handlers) IngestObservations(c *gin.Context) {
	var req IngestRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	labels := make([]string, 0, len(req.Detections))
	for _, d := range req.Detections {
		if d.Label == "" || d.Confidence < h.threshold {
			continue
		}
		labels = append(labels, d.Label)
	}
	h.session.Observe(labels)

	c.JSON(http.StatusOK, gin.H{"accepted": len(labels)})
}

// IngestFrame handles POST /api/v3/frames with a raw JPEG body
func (h *Handlers) IngestFrame(c *gin.Context) {
	frame, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxFrameSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read frame"})
		return
	}
	if len(frame) == 0 || len(frame) > MaxFrameSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame empty or too large"})
		return
	}

	queued := h.relay.Push(frame)
	c.JSON(http.StatusOK, gin.H{"queued": queued})
}

// VideoFeed serves the MJPEG video stream
func (h *Handlers) VideoFeed(c *gin.Context) {
	if err := h.relay.Serve(c.Request.Context(), c.Writer); err != nil {
		log.Debugf("Video stream ended: %v", err)
	}
}

// GetCatalog returns the product catalog
func (h *Handlers) GetCatalog(c *gin.Context) {
	type product struct {
		Label string  `json:"label"`
		Price float64 `json:"price"`
	}

	labels := h.catalog.Labels()
	products := make([]product, 0, len(labels))
	for _, label := range labels {
		price, _ := h.catalog.Price(label).Float64()
		products = append(products, product{Label: label, Price: price})
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// HealthCheck returns the service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	connectedClients, _ := h.hub.GetStats()

	response := models.HealthResponse{
		Status:           "healthy",
		Service:          "detector",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: connectedClients,
		SessionActive:    h.session.Active(),
	}

	c.JSON(http.StatusOK, response)
}
