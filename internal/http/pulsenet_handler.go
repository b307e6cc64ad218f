package httpapi

import (
	"net/http"

	"pulsera/internal/pulsenet"

	"go.uber.org/zap"
)

// PulseNetHandler 模型状态 API（代理 PulseNet 模型服务，不可达时降级返回）
type PulseNetHandler struct {
	client *pulsenet.Client
	logger *zap.Logger
}

// NewPulseNetHandler 创建 PulseNet Handler
func NewPulseNetHandler(client *pulsenet.Client, logger *zap.Logger) *PulseNetHandler {
	return &PulseNetHandler{
		client: client,
		logger: logger,
	}
}

// Status GET /api/pulsenet/status
func (h *PulseNetHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.client.Status())
}

// TrainingHistory GET /api/pulsenet/training-history
func (h *PulseNetHandler) TrainingHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.client.TrainingHistory())
}
