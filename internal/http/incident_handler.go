package httpapi

import (
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/attachment"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/service"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/store"
)

const multipartMemory = 32 << 20

var errFileNotFound = errors.New("file not found")

// IncidentHandler 预约/诊疗记录管理
type IncidentHandler struct {
	store        *store.Store
	appointments *service.AppointmentService
	maxFileBytes int64
	logger       *zap.Logger
}

func NewIncidentHandler(st *store.Store, appointments *service.AppointmentService, maxFileBytes int64, logger *zap.Logger) *IncidentHandler {
	return &IncidentHandler{store: st, appointments: appointments, maxFileBytes: maxFileBytes, logger: logger}
}

// List 支持 ?q=（患者姓名/标题）和 ?patientId=
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	q := r.URL.Query()
	var out []domain.Incident
	if pid := q.Get("patientId"); pid != "" {
		out = h.appointments.ForPatient(pid)
	} else {
		out = h.appointments.SearchIncidents(q.Get("q"))
	}
	writeJSON(w, http.StatusOK, OkList(out))
}

func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	in, ok := h.store.Incident(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail("incident not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(in))
}

func (h *IncidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	in, ok := h.decodeIncident(w, r)
	if !ok {
		return
	}
	in.ID = store.NewIncidentID()
	if in.Files == nil {
		in.Files = []domain.IncidentFile{}
	}
	if err := h.store.AddIncident(r.Context(), in); err != nil {
		writeStoreError(w, h.logger, "AddIncident", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(in))
}

// Update 替换整条记录；请求未携带 files 时保留原附件
func (h *IncidentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	id := r.PathValue("id")
	if _, ok := h.store.Incident(id); !ok {
		writeJSON(w, http.StatusNotFound, Fail("incident not found"))
		return
	}
	in, ok := h.decodeIncident(w, r)
	if !ok {
		return
	}
	updated, err := h.store.ModifyIncident(r.Context(), id, func(cur *domain.Incident) error {
		if in.Files == nil {
			in.Files = cur.Files
		}
		*cur = in
		return nil
	})
	if err != nil {
		writeStoreError(w, h.logger, "UpdateIncident", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(updated))
}

func (h *IncidentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	id := r.PathValue("id")
	if _, ok := h.store.Incident(id); !ok {
		writeJSON(w, http.StatusNotFound, Fail("incident not found"))
		return
	}
	if err := h.store.DeleteIncident(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, "DeleteIncident", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}

// UploadFiles 读取 multipart 字段 "files"，全部编码成功后才追加到记录
func (h *IncidentHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	id := r.PathValue("id")
	if _, ok := h.store.Incident(id); !ok {
		writeJSON(w, http.StatusNotFound, Fail("incident not found"))
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid multipart form"))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, Fail("no files"))
		return
	}

	files, err := attachment.Encode(r.Context(), attachment.FromMultipart(headers), h.maxFileBytes)
	if err != nil {
		if errors.Is(err, attachment.ErrTooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, Fail(err.Error()))
			return
		}
		h.logger.Warn("Encode attachments failed", zap.String("incident_id", id), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Fail("failed to read files"))
		return
	}

	// 编码在锁外完成，合并在 store 锁内进行
	in, err := h.store.ModifyIncident(r.Context(), id, func(cur *domain.Incident) error {
		cur.Files = attachment.Merge(cur.Files, files)
		return nil
	})
	if err != nil {
		writeStoreError(w, h.logger, "UpdateIncident", err)
		return
	}
	h.logger.Info("Attachments added", zap.String("incident_id", id), zap.Int("count", len(files)))
	writeJSON(w, http.StatusOK, Ok(in))
}

// DownloadFile 管理员或该记录所属患者可下载
func (h *IncidentHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	u, ok := h.store.CurrentUser()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("not logged in"))
		return
	}
	in, ok := h.store.Incident(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail("incident not found"))
		return
	}
	if !u.IsAdmin() && (u.PatientID == "" || u.PatientID != in.PatientID) {
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
		return
	}
	f, ok := attachment.Find(in.Files, r.PathValue("name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail("file not found"))
		return
	}
	mediaType, data, err := attachment.Decode(f.URL)
	if err != nil {
		// seed 数据中的占位 URL 不是 data URL
		writeJSON(w, http.StatusUnprocessableEntity, Fail("file has no inline content"))
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *IncidentHandler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, h.store, domain.RoleAdmin); !ok {
		return
	}
	name := r.PathValue("name")
	in, err := h.store.ModifyIncident(r.Context(), r.PathValue("id"), func(cur *domain.Incident) error {
		if _, ok := attachment.Find(cur.Files, name); !ok {
			return errFileNotFound
		}
		cur.Files = attachment.Remove(cur.Files, name)
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("incident not found"))
	case errors.Is(err, errFileNotFound):
		writeJSON(w, http.StatusNotFound, Fail("file not found"))
	case err != nil:
		writeStoreError(w, h.logger, "UpdateIncident", err)
	default:
		writeJSON(w, http.StatusOK, Ok(in))
	}
}

func (h *IncidentHandler) decodeIncident(w http.ResponseWriter, r *http.Request) (domain.Incident, bool) {
	var in domain.Incident
	if err := readBodyJSON(r, maxBodyBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return in, false
	}
	if err := in.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return in, false
	}
	if _, ok := h.store.Patient(in.PatientID); !ok {
		writeJSON(w, http.StatusBadRequest, Fail("unknown patient"))
		return in, false
	}
	return in, true
}
