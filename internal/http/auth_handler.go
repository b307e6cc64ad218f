package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// AuthHandler 认证 API（注册发 token，登录校验 token）
type AuthHandler struct {
	auth   *AuthStore
	logger *zap.Logger
}

// NewAuthHandler 创建认证 Handler
func NewAuthHandler(auth *AuthStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	switch r.URL.Path {
	case "/api/auth/register":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Register(w, r)
	case "/api/auth/login":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, r)
	case "/api/auth/me":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Me(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	u := h.auth.Register(req.Name, req.Email)
	h.logger.Info("User registered", zap.String("user_id", u.UserID))

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": u.UserID,
		"token":   u.Token,
		"name":    u.Name,
	})
}

// Login POST /api/auth/login（token 即凭证）
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, ok := h.auth.FindByToken(req.Token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": u.UserID,
		"token":   u.Token,
		"name":    u.Name,
	})
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.auth.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": u.UserID,
		"name":    u.Name,
		"email":   u.Email,
	})
}
