package service

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
)

// AppointmentService 患者视角与日历视角的查询
type AppointmentService struct {
	src    SnapshotSource
	logger *zap.Logger
}

func NewAppointmentService(src SnapshotSource, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{src: src, logger: logger}
}

// ForPatient returns the incidents of an existing patient in insertion order.
// An unknown patient yields an empty list.
func (a *AppointmentService) ForPatient(patientID string) []domain.Incident {
	snap := a.src.Snapshot()
	names := patientNames(snap.Patients)
	if _, ok := names[patientID]; !ok {
		return []domain.Incident{}
	}
	return filterIncidents(snap.Incidents, func(i domain.Incident) bool {
		return i.PatientID == patientID
	})
}

// PatientAppointments 患者页：按日期倒序，分为待进行与已结束
type PatientAppointments struct {
	Patient  *domain.Patient   `json:"patient"`
	Upcoming []domain.Incident `json:"upcoming"`
	Past     []domain.Incident `json:"past"`
}

func (a *AppointmentService) PatientAppointments(patientID string) PatientAppointments {
	snap := a.src.Snapshot()
	out := PatientAppointments{Upcoming: []domain.Incident{}, Past: []domain.Incident{}}
	for i := range snap.Patients {
		if snap.Patients[i].ID == patientID {
			p := snap.Patients[i]
			out.Patient = &p
		}
	}
	if out.Patient == nil {
		a.logger.Debug("No patient profile", zap.String("patient_id", patientID))
		return out
	}

	mine := filterIncidents(snap.Incidents, func(i domain.Incident) bool { return i.PatientID == patientID })
	sortByDate(mine, true)
	for _, in := range mine {
		if in.Status.Open() {
			out.Upcoming = append(out.Upcoming, in)
		} else {
			out.Past = append(out.Past, in)
		}
	}
	return out
}

// CalendarDay 日历页：某一天的预约及统计
type CalendarDay struct {
	Date         string            `json:"date"`
	Appointments []AppointmentView `json:"appointments"`
	Total        int               `json:"total"`
	Completed    int               `json:"completed"`
	Upcoming     int               `json:"upcoming"`
	Cancelled    int               `json:"cancelled"`
}

// Calendar lists appointments of existing patients on day, in insertion order.
func (a *AppointmentService) Calendar(day time.Time) CalendarDay {
	snap := a.src.Snapshot()
	names := patientNames(snap.Patients)
	date := day.Format("2006-01-02")

	out := CalendarDay{Date: date, Appointments: []AppointmentView{}}
	for _, in := range withExistingPatient(snap.Incidents, names) {
		if in.Day() != date {
			continue
		}
		out.Appointments = append(out.Appointments, newAppointmentView(in, names))
		out.Total++
		switch {
		case in.Status == domain.StatusCompleted:
			out.Completed++
		case in.Status == domain.StatusCancelled:
			out.Cancelled++
		case in.Status.Open():
			out.Upcoming++
		}
	}
	return out
}

// DaysWithAppointments returns the distinct dates (YYYY-MM-DD, ascending) that
// have at least one appointment of an existing patient.
func (a *AppointmentService) DaysWithAppointments() []string {
	snap := a.src.Snapshot()
	seen := map[string]bool{}
	days := []string{}
	for _, in := range withExistingPatient(snap.Incidents, patientNames(snap.Patients)) {
		d := in.Day()
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// SearchPatients matches name or contact, case-insensitively. Empty term returns all.
func (a *AppointmentService) SearchPatients(term string) []domain.Patient {
	snap := a.src.Snapshot()
	out := make([]domain.Patient, 0, len(snap.Patients))
	for _, p := range snap.Patients {
		if containsFold(p.Name, term) || containsFold(p.Contact, term) {
			out = append(out, p)
		}
	}
	return out
}

// SearchIncidents matches patient name or title, case-insensitively.
func (a *AppointmentService) SearchIncidents(term string) []domain.Incident {
	snap := a.src.Snapshot()
	names := patientNames(snap.Patients)
	return filterIncidents(snap.Incidents, func(i domain.Incident) bool {
		return containsFold(names[i.PatientID], term) || containsFold(i.Title, term)
	})
}
