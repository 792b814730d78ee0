package service

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
)

const (
	nextAppointmentsLimit = 10
	topPatientsLimit      = 3
	chartWeeks            = 6
)

// DashboardService 管理员首页统计
type DashboardService struct {
	src    SnapshotSource
	logger *zap.Logger
}

func NewDashboardService(src SnapshotSource, logger *zap.Logger) *DashboardService {
	return &DashboardService{src: src, logger: logger}
}

type WeekCount struct {
	Week         string `json:"week"`
	Appointments int    `json:"appointments"`
}

type DashboardSummary struct {
	PendingTreatments   int               `json:"pendingTreatments"`
	CompletedTreatments int               `json:"completedTreatments"`
	TotalRevenue        float64           `json:"totalRevenue"`
	TopPatients         []string          `json:"topPatients"`
	NextAppointments    []AppointmentView `json:"nextAppointments"`
	Upcoming            *AppointmentView  `json:"upcoming"`
	TodayPatients       []AppointmentView `json:"todayPatients"`
	AppointmentsPerWeek []WeekCount       `json:"appointmentsPerWeek"`
}

// Summary computes every dashboard figure from one snapshot. now decides
// "today" and the chart window, in now's location.
func (d *DashboardService) Summary(now time.Time) DashboardSummary {
	snap := d.src.Snapshot()
	names := patientNames(snap.Patients)

	out := DashboardSummary{
		TopPatients:      []string{},
		NextAppointments: []AppointmentView{},
		TodayPatients:    []AppointmentView{},
	}

	for _, in := range snap.Incidents {
		switch {
		case in.Status.Open():
			out.PendingTreatments++
		case in.Status == domain.StatusCompleted:
			out.CompletedTreatments++
		}
		out.TotalRevenue += in.CostValue()
	}

	open := filterIncidents(snap.Incidents, func(i domain.Incident) bool { return i.Status.Open() })
	sortByDate(open, false)
	for i, in := range open {
		if i == nextAppointmentsLimit {
			break
		}
		out.NextAppointments = append(out.NextAppointments, newAppointmentView(in, names))
	}
	if len(open) > 0 {
		v := newAppointmentView(open[0], names)
		out.Upcoming = &v
	}

	out.TopPatients = topPatients(snap.Incidents, names)
	out.TodayPatients = todayPatients(snap.Incidents, names, now)
	out.AppointmentsPerWeek = appointmentsPerWeek(snap.Incidents, now)

	d.logger.Debug("Dashboard computed",
		zap.Int("incidents", len(snap.Incidents)),
		zap.Int("pending", out.PendingTreatments),
	)
	return out
}

// topPatients ranks patients by completed treatments. Ties keep the order in
// which the patients first appear.
func topPatients(incidents []domain.Incident, names map[string]string) []string {
	counts := map[string]int{}
	var order []string
	for _, in := range incidents {
		if in.Status != domain.StatusCompleted {
			continue
		}
		if _, ok := counts[in.PatientID]; !ok {
			order = append(order, in.PatientID)
		}
		counts[in.PatientID]++
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })

	out := []string{}
	for _, id := range order {
		if len(out) == topPatientsLimit {
			break
		}
		if name, ok := names[id]; ok && name != "" {
			out = append(out, name)
		} else {
			out = append(out, id)
		}
	}
	return out
}

func todayPatients(incidents []domain.Incident, names map[string]string, now time.Time) []AppointmentView {
	y, m, dd := now.Date()
	out := []AppointmentView{}
	for _, in := range withExistingPatient(incidents, names) {
		if !in.Status.Open() {
			continue
		}
		t, err := domain.ParseAppointment(in.AppointmentDate, now.Location())
		if err != nil {
			continue
		}
		if ty, tm, td := t.Date(); ty == y && tm == m && td == dd {
			out = append(out, newAppointmentView(in, names))
		}
	}
	return out
}

type weekKey struct {
	year  int
	month time.Month
	week  int
}

// weekOfMonth numbers weeks from 1, with week 1 ending on the first Saturday.
func weekOfMonth(t time.Time) weekKey {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return weekKey{
		year:  t.Year(),
		month: t.Month(),
		week:  (t.Day()+int(first.Weekday())-1)/7 + 1,
	}
}

func (k weekKey) label() string {
	return fmt.Sprintf("%d wk %s", k.week, k.month.String()[:3])
}

// appointmentsPerWeek counts appointments in the six week buckets ending at now.
func appointmentsPerWeek(incidents []domain.Incident, now time.Time) []WeekCount {
	index := map[weekKey]int{}
	out := []WeekCount{}
	for i := chartWeeks - 1; i >= 0; i-- {
		k := weekOfMonth(now.AddDate(0, 0, -7*i))
		if _, ok := index[k]; ok {
			continue
		}
		index[k] = len(out)
		out = append(out, WeekCount{Week: k.label()})
	}

	for _, in := range incidents {
		t, err := domain.ParseAppointment(in.AppointmentDate, now.Location())
		if err != nil {
			continue
		}
		if idx, ok := index[weekOfMonth(t)]; ok {
			out[idx].Appointments++
		}
	}
	return out
}
