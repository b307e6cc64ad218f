package httpapi

import (
	"net/http"
	"strings"

	"pulsera/internal/store"

	"go.uber.org/zap"
)

// HealthHandler 健康读数 API（latest / history，需要 Bearer 认证）
type HealthHandler struct {
	readings *store.ReadingStore
	auth     *AuthStore
	logger   *zap.Logger
}

// NewHealthHandler 创建健康读数 Handler
func NewHealthHandler(readings *store.ReadingStore, auth *AuthStore, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		readings: readings,
		auth:     auth,
		logger:   logger,
	}
}

// ServeHTTP 处理 /api/health/{user_id}/latest|history
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.authorize(r); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/health/")

	if userID, found := strings.CutSuffix(rest, "/latest"); found && userID != "" && !strings.Contains(userID, "/") {
		h.latest(w, r, userID)
		return
	}
	if userID, found := strings.CutSuffix(rest, "/history"); found && userID != "" && !strings.Contains(userID, "/") {
		h.history(w, r, userID)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *HealthHandler) latest(w http.ResponseWriter, r *http.Request, userID string) {
	reading, err := h.readings.Latest(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get latest reading",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to get latest reading")
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (h *HealthHandler) history(w http.ResponseWriter, r *http.Request, userID string) {
	history, err := h.readings.History(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get reading history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to get reading history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"history": history,
	})
}
