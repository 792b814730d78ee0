package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/service"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/store"
)

// Router 使用标准库 http.ServeMux（Go 1.22 方法+路径模式）
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

// NewAPI 注册全部 /api/v1 路由
func NewAPI(st *store.Store, maxFileBytes int64, logger *zap.Logger) *Router {
	appointments := service.NewAppointmentService(st, logger)
	dashboard := service.NewDashboardService(st, logger)

	r := NewRouter(logger)
	r.RegisterAuthRoutes(NewAuthHandler(st, logger))
	r.RegisterPatientRoutes(NewPatientHandler(st, appointments, logger))
	r.RegisterIncidentRoutes(NewIncidentHandler(st, appointments, maxFileBytes, logger))
	r.RegisterViewRoutes(NewViewHandler(st, dashboard, appointments, logger))
	return r
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	r.mux.ServeHTTP(w, req)
	r.logger.Debug("HTTP request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Duration("duration", time.Since(start)),
	)
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("POST /api/v1/login", h.Login)
	r.Handle("POST /api/v1/logout", h.Logout)
	r.Handle("GET /api/v1/session", h.Session)
}

func (r *Router) RegisterPatientRoutes(h *PatientHandler) {
	r.Handle("GET /api/v1/patients", h.List)
	r.Handle("POST /api/v1/patients", h.Create)
	r.Handle("GET /api/v1/patients/{id}", h.Get)
	r.Handle("PUT /api/v1/patients/{id}", h.Update)
	r.Handle("DELETE /api/v1/patients/{id}", h.Delete)
}

func (r *Router) RegisterIncidentRoutes(h *IncidentHandler) {
	r.Handle("GET /api/v1/incidents", h.List)
	r.Handle("POST /api/v1/incidents", h.Create)
	r.Handle("GET /api/v1/incidents/{id}", h.Get)
	r.Handle("PUT /api/v1/incidents/{id}", h.Update)
	r.Handle("DELETE /api/v1/incidents/{id}", h.Delete)
	r.Handle("POST /api/v1/incidents/{id}/files", h.UploadFiles)
	r.Handle("GET /api/v1/incidents/{id}/files/{name}", h.DownloadFile)
	r.Handle("DELETE /api/v1/incidents/{id}/files/{name}", h.RemoveFile)
}

func (r *Router) RegisterViewRoutes(h *ViewHandler) {
	r.Handle("GET /api/v1/dashboard", h.Dashboard)
	r.Handle("GET /api/v1/calendar", h.Calendar)
	r.Handle("GET /api/v1/calendar/days", h.CalendarDays)
	r.Handle("GET /api/v1/me/appointments", h.MyAppointments)
	r.Handle("GET /api/v1/export", h.Export)
}
