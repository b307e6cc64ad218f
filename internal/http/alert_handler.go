package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"pulsera/internal/models"
	"pulsera/internal/service"
	"pulsera/internal/store"

	"go.uber.org/zap"
)

// AlertHandler 报警 API
type AlertHandler struct {
	alertSvc *service.AlertService
	logger   *zap.Logger
}

// NewAlertHandler 创建报警 Handler
func NewAlertHandler(alertSvc *service.AlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertSvc: alertSvc,
		logger:   logger,
	}
}

// List 全量报警（最新在前）
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts := h.alertSvc.ListAlerts(r.Context(), false)
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// ListActive 活跃报警
func (h *AlertHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	alerts := h.alertSvc.ListAlerts(r.Context(), true)
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// Create 评分摄入（HTTP 通道）
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceID string  `json:"device_id"`
		ZoneID   string  `json:"zone_id"`
		Score    float64 `json:"score"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	alert, err := h.alertSvc.CreateIndividualAlert(r.Context(), req.DeviceID, req.ZoneID, req.Score)
	if err != nil {
		if errors.Is(err, models.ErrScoreOutOfRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, store.ErrActiveAlertExists) {
			// 仅 Insert 直通路径会返回该错误
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("Failed to create alert", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create alert")
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

// Resolve 处理报警：POST /api/alerts/{id}/resolve
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request, alertID string) {
	var req struct {
		AcknowledgedBy string `json:"acknowledged_by"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := h.alertSvc.Resolve(r.Context(), alertID, req.AcknowledgedBy)
	if err != nil {
		if errors.Is(err, store.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		h.logger.Error("Failed to resolve alert",
			zap.String("alert_id", alertID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to resolve alert")
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

// ServeSubpath 处理 /api/alerts/ 前缀下的子路径
func (h *AlertHandler) ServeSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/alerts/")

	if rest == "active" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListActive(w, r)
		return
	}

	// {id}/resolve
	if alertID, ok := strings.CutSuffix(rest, "/resolve"); ok && alertID != "" && !strings.Contains(alertID, "/") {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Resolve(w, r, alertID)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}
