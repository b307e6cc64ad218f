package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"pulsera/internal/repository"
	"pulsera/internal/service"

	"go.uber.org/zap"
)

// GroupHandler 分组 API（全部需要 Bearer 认证）
type GroupHandler struct {
	groups   *repository.MemoryGroupsRepo
	pulseSvc *service.PulseService
	auth     *AuthStore
	logger   *zap.Logger
}

// NewGroupHandler 创建分组 Handler
func NewGroupHandler(
	groups *repository.MemoryGroupsRepo,
	pulseSvc *service.PulseService,
	auth *AuthStore,
	logger *zap.Logger,
) *GroupHandler {
	return &GroupHandler{
		groups:   groups,
		pulseSvc: pulseSvc,
		auth:     auth,
		logger:   logger,
	}
}

// ServeRoot 处理 /api/groups（GET 列表 / POST 创建）
func (h *GroupHandler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	user, ok := h.auth.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.groups.ListForUser(user.UserID))
	case http.MethodPost:
		h.create(w, r, user)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *GroupHandler) create(w http.ResponseWriter, r *http.Request, user AuthUser) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := h.groups.Create(user.UserID, req.Name, req.Description, req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("Group created",
		zap.String("group_id", group.ID),
		zap.String("owner_id", user.UserID),
		zap.String("type", group.Type),
	)
	writeJSON(w, http.StatusOK, group)
}

// ServeSubpath 处理 /api/groups/{id}[/pulse|/join]
func (h *GroupHandler) ServeSubpath(w http.ResponseWriter, r *http.Request) {
	user, ok := h.auth.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/groups/")

	if groupID, found := strings.CutSuffix(rest, "/pulse"); found && groupID != "" && !strings.Contains(groupID, "/") {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.pulse(w, r, groupID)
		return
	}

	if groupID, found := strings.CutSuffix(rest, "/join"); found && groupID != "" && !strings.Contains(groupID, "/") {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.join(w, r, groupID, user)
		return
	}

	if rest != "" && !strings.Contains(rest, "/") {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.detail(w, r, rest)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *GroupHandler) detail(w http.ResponseWriter, _ *http.Request, groupID string) {
	group, err := h.groups.Get(groupID)
	if err != nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) join(w http.ResponseWriter, _ *http.Request, groupID string, user AuthUser) {
	group, err := h.groups.Join(groupID, user.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) pulse(w http.ResponseWriter, r *http.Request, groupID string) {
	pulse, err := h.pulseSvc.GroupPulse(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		h.logger.Error("Failed to build group pulse",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to build group pulse")
		return
	}
	writeJSON(w, http.StatusOK, pulse)
}
