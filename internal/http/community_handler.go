package httpapi

import (
	"net/http"

	"pulsera/internal/service"

	"go.uber.org/zap"
)

// CommunityHandler 社区聚合视图 API
type CommunityHandler struct {
	pulseSvc *service.PulseService
	logger   *zap.Logger
}

// NewCommunityHandler 创建社区 Handler
func NewCommunityHandler(pulseSvc *service.PulseService, logger *zap.Logger) *CommunityHandler {
	return &CommunityHandler{
		pulseSvc: pulseSvc,
		logger:   logger,
	}
}

// Summary GET /api/community/summary
func (h *CommunityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pulseSvc.CommunitySummary(r.Context()))
}

// Pulse GET /api/community/pulse
func (h *CommunityHandler) Pulse(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pulseSvc.CommunityPulse(r.Context()))
}
