package service

import (
	"sort"
	"strings"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/store"
)

// SnapshotSource is satisfied by *store.Store.
type SnapshotSource interface {
	Snapshot() store.Snapshot
}

// AppointmentView 列表/卡片中展示的一条预约
type AppointmentView struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"` // falls back to PatientID when the patient is gone
	Title       string `json:"title"`
	Treatment   string `json:"treatment,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	Label       string `json:"label,omitempty"` // confirmed / pending
}

func newAppointmentView(in domain.Incident, names map[string]string) AppointmentView {
	name, ok := names[in.PatientID]
	if !ok {
		name = in.PatientID
	}
	v := AppointmentView{
		ID:          in.ID,
		PatientID:   in.PatientID,
		PatientName: name,
		Title:       in.Title,
		Treatment:   in.Treatment,
		Date:        in.Day(),
		Time:        in.Clock(),
		Status:      string(in.Status),
	}
	switch in.Status {
	case domain.StatusScheduled:
		v.Label = "confirmed"
	case domain.StatusPending:
		v.Label = "pending"
	}
	return v
}

func patientNames(patients []domain.Patient) map[string]string {
	names := make(map[string]string, len(patients))
	for _, p := range patients {
		names[p.ID] = p.Name
	}
	return names
}

func filterIncidents(in []domain.Incident, keep func(domain.Incident) bool) []domain.Incident {
	out := make([]domain.Incident, 0, len(in))
	for _, i := range in {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}

// sortByDate orders by appointmentDate; ISO strings compare chronologically.
func sortByDate(in []domain.Incident, desc bool) {
	sort.SliceStable(in, func(a, b int) bool {
		if desc {
			return in[a].AppointmentDate > in[b].AppointmentDate
		}
		return in[a].AppointmentDate < in[b].AppointmentDate
	})
}

// withExistingPatient drops orphaned incidents.
func withExistingPatient(incidents []domain.Incident, names map[string]string) []domain.Incident {
	return filterIncidents(incidents, func(i domain.Incident) bool {
		_, ok := names[i.PatientID]
		return ok
	})
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}
