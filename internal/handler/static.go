package handler

import (
	"bytes"
	"embed"
	"fmt"
	"net/http"
	"text/template"

	"github.com/gin-gonic/gin"
)

//go:embed assets/tracking.js.tmpl
var assets embed.FS

// TrackingScript клиентский скрипт, собранный один раз при старте
type TrackingScript struct {
	body []byte
}

// NewTrackingScript подставляет адрес коллектора в tracking.js
func NewTrackingScript(collectorURL string) (*TrackingScript, error) {
	tmpl, err := template.ParseFS(assets, "assets/tracking.js.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse tracking script: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ CollectorURL string }{collectorURL}); err != nil {
		return nil, fmt.Errorf("failed to render tracking script: %w", err)
	}

	return &TrackingScript{body: buf.Bytes()}, nil
}

// Serve godoc
// @Summary Client tracking script
// @Description JavaScript snippet that sends visit, action and duration beacons
// @Tags tracking
// @Produce application/javascript
// @Success 200 {string} string "tracking.js"
// @Router /tracking.js [get]
func (s *TrackingScript) Serve(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", s.body)
}

// HealthCheck godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "visitor-analytics",
	})
}
