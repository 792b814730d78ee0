package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/export"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/service"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/store"
)

// ViewHandler 只读视图：仪表盘、日历、患者本人预约、导出
type ViewHandler struct {
	store        *store.Store
	dashboard    *service.DashboardService
	appointments *service.AppointmentService
	now          func() time.Time
	logger       *zap.Logger
}

func NewViewHandler(st *store.Store, dashboard *service.DashboardService, appointments *service.AppointmentService, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{
		store:        st,
		dashboard:    dashboard,
		appointments: appointments,
		now:          time.Now,
		logger:       logger,
	}
}

func (h *ViewHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.dashboard.Summary(h.now())))
}

// Calendar ?date=YYYY-MM-DD，缺省为今天
func (h *ViewHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	day := h.now()
	if s := r.URL.Query().Get("date"); s != "" {
		t, err := domain.ParseDate(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		day = t
	}
	writeJSON(w, http.StatusOK, Ok(h.appointments.Calendar(day)))
}

func (h *ViewHandler) CalendarDays(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	writeJSON(w, http.StatusOK, OkList(h.appointments.DaysWithAppointments()))
}

// MyAppointments 患者登录后查看自己的预约
func (h *ViewHandler) MyAppointments(w http.ResponseWriter, r *http.Request) {
	u, ok := requireRole(w, h.store, domain.RolePatient)
	if !ok {
		return
	}
	if u.PatientID == "" {
		writeJSON(w, http.StatusNotFound, Fail("no patient profile"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.appointments.PatientAppointments(u.PatientID)))
}

func (h *ViewHandler) Export(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	snap := h.store.Snapshot()
	data, err := export.Workbook(snap.Patients, snap.Incidents)
	if err != nil {
		h.logger.Error("Export workbook failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to build workbook"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=clinic-export.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
