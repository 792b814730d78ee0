package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
)

func TestWorkbook(t *testing.T) {
	cost := 80.0
	patients := []domain.Patient{
		{ID: "p1", Name: "John Doe", DateOfBirth: "1990-05-10", Contact: "1234567890", HealthInfo: "No allergies"},
	}
	incidents := []domain.Incident{
		{
			ID: "i1", PatientID: "p1", Title: "Toothache", AppointmentDate: "2025-07-01T10:00:00",
			Cost: &cost, Status: domain.StatusCompleted,
			Files: []domain.IncidentFile{{Name: "invoice.pdf"}, {Name: "xray.png"}},
		},
		{ID: "i2", PatientID: "gone", Title: "Orphan", Status: domain.StatusPending},
	}

	data, err := Workbook(patients, incidents)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{PatientsSheet, AppointmentsSheet}, f.GetSheetList())

	rows, err := f.GetRows(PatientsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, patientsHeader(), rows[0])
	assert.Equal(t, []string{"p1", "John Doe", "1990-05-10", "1234567890", "No allergies", "2"}, rows[1])

	rows, err = f.GetRows(AppointmentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, appointmentsHeader(), rows[0])
	assert.Equal(t, "John Doe", rows[1][2])
	assert.Equal(t, "80", rows[1][8])
	assert.Equal(t, "invoice.pdf, xray.png", rows[1][11])
	assert.Equal(t, "", rows[2][2])
}

func TestHeadersAreFreshCopies(t *testing.T) {
	h := patientsHeader()
	h[0] = "changed"
	assert.Equal(t, "ID", patientsHeader()[0])
	assert.Len(t, appointmentsHeader(), 12)
}
