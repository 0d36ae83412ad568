package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"smartcheckout/monitor/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	svc *service.Service
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

// GetInvoice handles GET /api/v3/invoice. The bill always mirrors the
// latest detection snapshot.
func (h *Handlers) GetInvoice(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CurrentBill())
}

// GetFeedStatus handles GET /api/v3/feed/status
func (h *Handlers) GetFeedStatus(c *gin.Context) {
	addr, connected, connErr := h.svc.FeedStatus()
	c.JSON(http.StatusOK, gin.H{
		"address":   addr,
		"connected": connected,
		"error":     connErr,
	})
}

// SetAddressRequest is the payload for switching the feed address
type SetAddressRequest struct {
	Host string `json:"host"`
	Port string `json:"port"`
}

// SetFeedAddress handles POST /api/v3/feed/address
func (h *Handlers) SetFeedAddress(c *gin.Context) {
	var req SetAddressRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := h.svc.SetAddress(req.Host, req.Port); err != nil {
		log.Errorf("Failed to switch feed address: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	addr, connected, connErr := h.svc.FeedStatus()
	c.JSON(http.StatusOK, gin.H{
		"address":   addr,
		"connected": connected,
		"error":     connErr,
	})
}

// GetUIConfig handles GET /api/v3/ui. It hands the dashboard its theme,
// feature toggles, and the video stream location.
func (h *Handlers) GetUIConfig(c *gin.Context) {
	cfg := h.svc.Config()
	addr, _, _ := h.svc.FeedStatus()

	c.JSON(http.StatusOK, gin.H{
		"theme":      cfg.Theme,
		"show_video": cfg.ShowVideo,
		"video_url":  fmt.Sprintf("http://%s/video_feed", addr),
	})
}

// HealthCheck returns the service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	_, connected, connErr := h.svc.FeedStatus()

	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"service":    "monitor",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"feed_up":    connected,
		"feed_error": connErr,
	})
}
