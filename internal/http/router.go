package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAlertRoutes 注册报警路由
func (r *Router) RegisterAlertRoutes(a *AlertHandler) {
	r.Handle("/api/alerts", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			a.List(w, req)
		case http.MethodPost:
			a.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// /api/alerts/active 与 /api/alerts/{id}/resolve
	r.Handle("/api/alerts/", a.ServeSubpath)
}

// RegisterCommunityRoutes 注册社区聚合路由
func (r *Router) RegisterCommunityRoutes(c *CommunityHandler) {
	r.Handle("/api/community/summary", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		c.Summary(w, req)
	})

	r.Handle("/api/community/pulse", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		c.Pulse(w, req)
	})
}

// RegisterGroupRoutes 注册分组路由
func (r *Router) RegisterGroupRoutes(g *GroupHandler) {
	r.Handle("/api/groups", g.ServeRoot)
	r.Handle("/api/groups/", g.ServeSubpath)
}

// RegisterAuthRoutes 注册认证路由
func (r *Router) RegisterAuthRoutes(a *AuthHandler) {
	r.HandleHandler("/api/auth/", a)
}

// RegisterHealthRoutes 注册健康读数路由
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.HandleHandler("/api/health/", h)
}

// RegisterPulseNetRoutes 注册模型状态路由
func (r *Router) RegisterPulseNetRoutes(p *PulseNetHandler) {
	r.Handle("/api/pulsenet/status", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.Status(w, req)
	})

	r.Handle("/api/pulsenet/training-history", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.TrainingHistory(w, req)
	})
}
