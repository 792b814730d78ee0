package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/service"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/store"
)

// PatientHandler 患者管理（仅管理员）
type PatientHandler struct {
	store        *store.Store
	appointments *service.AppointmentService
	logger       *zap.Logger
}

func NewPatientHandler(st *store.Store, appointments *service.AppointmentService, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{store: st, appointments: appointments, logger: logger}
}

// List 支持 ?q= 按姓名/联系方式搜索
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	writeJSON(w, http.StatusOK, OkList(h.appointments.SearchPatients(r.URL.Query().Get("q"))))
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	p, ok := h.store.Patient(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail("patient not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	var p domain.Patient
	if err := readBodyJSON(r, maxBodyBytes, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if err := p.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	p.ID = store.NewPatientID()
	if err := h.store.AddPatient(r.Context(), p); err != nil {
		writeStoreError(w, h.logger, "AddPatient", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(p))
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	id := r.PathValue("id")
	if _, ok := h.store.Patient(id); !ok {
		writeJSON(w, http.StatusNotFound, Fail("patient not found"))
		return
	}
	var p domain.Patient
	if err := readBodyJSON(r, maxBodyBytes, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	p.ID = id
	if err := p.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	if err := h.store.UpdatePatient(r.Context(), p); err != nil {
		writeStoreError(w, h.logger, "UpdatePatient", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// Delete 同时删除该患者的全部预约
func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	id := r.PathValue("id")
	if _, ok := h.store.Patient(id); !ok {
		writeJSON(w, http.StatusNotFound, Fail("patient not found"))
		return
	}
	if err := h.store.DeletePatient(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, "DeletePatient", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}

func writeStoreError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, store.ErrDuplicateID):
		writeJSON(w, http.StatusConflict, Fail(err.Error()))
		return
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("not found"))
		return
	}
	logger.Error("Store operation failed", zap.String("op", op), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, Fail("failed to save"))
}
