package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IncidentStatus 预约/治疗状态
type IncidentStatus string

const (
	StatusPending   IncidentStatus = "Pending"
	StatusScheduled IncidentStatus = "Scheduled"
	StatusCompleted IncidentStatus = "Completed"
	StatusCancelled IncidentStatus = "Cancelled"
)

func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Open reports whether the appointment still lies ahead (Pending or Scheduled).
func (s IncidentStatus) Open() bool {
	return s == StatusPending || s == StatusScheduled
}

// IncidentFile 附件：URL 为 data URL（base64 内嵌内容）
type IncidentFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Incident 预约/治疗记录（对应 durable key "incidents"）
// PatientID 引用 Patient.ID；引用失效的记录保留，但不出现在患者视图中
type Incident struct {
	ID              string         `json:"id"`
	PatientID       string         `json:"patientId"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Comments        string         `json:"comments"`
	AppointmentDate string         `json:"appointmentDate"` // YYYY-MM-DDTHH:MM[:SS], local time
	Cost            *float64       `json:"cost,omitempty"`
	Treatment       string         `json:"treatment,omitempty"`
	Status          IncidentStatus `json:"status"`
	NextDate        string         `json:"nextDate,omitempty"`
	Files           []IncidentFile `json:"files"`
}

// Clone returns a copy that shares no slices or pointers with i.
func (i Incident) Clone() Incident {
	out := i
	if i.Cost != nil {
		c := *i.Cost
		out.Cost = &c
	}
	if i.Files != nil {
		out.Files = append([]IncidentFile(nil), i.Files...)
	}
	return out
}

// CostValue returns the cost or 0 when unset.
func (i Incident) CostValue() float64 {
	if i.Cost == nil {
		return 0
	}
	return *i.Cost
}

// Day returns the date part of AppointmentDate.
func (i Incident) Day() string {
	d, _, _ := strings.Cut(i.AppointmentDate, "T")
	return d
}

// Clock returns HH:MM of AppointmentDate, or "" when there is no time part.
func (i Incident) Clock() string {
	_, t, ok := strings.Cut(i.AppointmentDate, "T")
	if !ok {
		return ""
	}
	if len(t) > 5 {
		t = t[:5]
	}
	return t
}

func (i Incident) Validate() error {
	var errs []error
	if strings.TrimSpace(i.PatientID) == "" {
		errs = append(errs, errors.New("patient is required"))
	}
	if strings.TrimSpace(i.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if strings.TrimSpace(i.AppointmentDate) == "" {
		errs = append(errs, errors.New("appointment date is required"))
	} else if _, err := ParseAppointment(i.AppointmentDate, time.Local); err != nil {
		errs = append(errs, err)
	}
	if !i.Status.Valid() {
		errs = append(errs, fmt.Errorf("invalid status %q", i.Status))
	}
	if i.Cost != nil && *i.Cost < 0 {
		errs = append(errs, errors.New("cost must not be negative"))
	}
	if i.NextDate != "" {
		if _, err := ParseAppointment(i.NextDate, time.Local); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var appointmentLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseAppointment parses a naive local timestamp as written by datetime-local inputs.
func ParseAppointment(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range appointmentLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
