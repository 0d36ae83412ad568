package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"smartcheckout/monitor/config"
	"smartcheckout/monitor/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	cfg := &config.Config{
		Port:      "0",
		FeedHost:  "localhost",
		FeedPort:  "5000",
		Theme:     "dark",
		ShowVideo: true,
	}
	h := NewHandlers(service.NewService(cfg))

	router := gin.New()
	router.GET("/api/v3/invoice", h.GetInvoice)
	router.GET("/api/v3/feed/status", h.GetFeedStatus)
	router.POST("/api/v3/feed/address", h.SetFeedAddress)
	router.GET("/api/v3/ui", h.GetUIConfig)
	router.GET("/health", h.HealthCheck)

	return router
}

func doRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetInvoiceBeforeAnySnapshot(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(router, http.MethodGet, "/api/v3/invoice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("invoice status = %d, want 200", rec.Code)
	}

	var bill struct {
		Number string            `json:"number"`
		Lines  []json.RawMessage `json:"lines"`
		Total  string            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bill); err != nil {
		t.Fatalf("Failed to decode bill: %v", err)
	}
	if bill.Total != "$0.00" {
		t.Errorf("Total = %s, want $0.00", bill.Total)
	}
	if len(bill.Lines) != 0 {
		t.Errorf("Line count = %d, want 0", len(bill.Lines))
	}
	if bill.Number == "" {
		t.Error("Invoice number is empty")
	}
}

func TestGetUIConfig(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(router, http.MethodGet, "/api/v3/ui", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ui status = %d, want 200", rec.Code)
	}

	var resp struct {
		Theme     string `json:"theme"`
		ShowVideo bool   `json:"show_video"`
		VideoURL  string `json:"video_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Theme != "dark" || !resp.ShowVideo {
		t.Errorf("UI config = %+v, want dark theme with video", resp)
	}
	if resp.VideoURL != "http://localhost:5000/video_feed" {
		t.Errorf("VideoURL = %s, want http://localhost:5000/video_feed", resp.VideoURL)
	}
}

func TestSetFeedAddressRejectsBadJSON(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(router, http.MethodPost, "/api/v3/feed/address", []byte(`{"host": `))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("address status = %d, want 400", rec.Code)
	}
}

func TestFeedStatusWhileDisconnected(t *testing.T) {
	router := newTestRouter()

	rec := doRequest(router, http.MethodGet, "/api/v3/feed/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Address   string `json:"address"`
		Connected bool   `json:"connected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Address != "localhost:5000" {
		t.Errorf("Address = %s, want localhost:5000", resp.Address)
	}
	if resp.Connected {
		t.Error("Connected = true for a service that never dialed")
	}
}
