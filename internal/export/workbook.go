// Package export renders clinic records as an Excel workbook.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
)

const (
	PatientsSheet     = "Patients"
	AppointmentsSheet = "Appointments"
)

// 表头每次返回新切片
func patientsHeader() []string {
	return []string{"ID", "Name", "Date of Birth", "Contact", "Health Info", "Appointments"}
}

func appointmentsHeader() []string {
	return []string{
		"ID",
		"Patient ID",
		"Patient",
		"Title",
		"Description",
		"Comments",
		"Appointment Date",
		"Status",
		"Cost",
		"Treatment",
		"Next Date",
		"Files",
	}
}

// Workbook 生成包含患者与预约两个工作表的 xlsx 文件
func Workbook(patients []domain.Patient, incidents []domain.Incident) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	names := make(map[string]string, len(patients))
	perPatient := map[string]int{}
	for _, p := range patients {
		names[p.ID] = p.Name
	}
	for _, in := range incidents {
		perPatient[in.PatientID]++
	}

	patientRows := make([][]any, 0, len(patients))
	for _, p := range patients {
		patientRows = append(patientRows, []any{p.ID, p.Name, p.DateOfBirth, p.Contact, p.HealthInfo, perPatient[p.ID]})
	}

	incidentRows := make([][]any, 0, len(incidents))
	for _, in := range incidents {
		var cost any
		if in.Cost != nil {
			cost = *in.Cost
		}
		files := make([]string, 0, len(in.Files))
		for _, fl := range in.Files {
			files = append(files, fl.Name)
		}
		incidentRows = append(incidentRows, []any{
			in.ID, in.PatientID, names[in.PatientID], in.Title, in.Description, in.Comments,
			in.AppointmentDate, string(in.Status), cost, in.Treatment, in.NextDate, strings.Join(files, ", "),
		})
	}

	// 第一个工作表复用默认的 Sheet1
	if err := f.SetSheetName("Sheet1", PatientsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSheet(f, PatientsSheet, patientsHeader(), patientRows, headerStyle); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(AppointmentsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeSheet(f, AppointmentsSheet, appointmentsHeader(), incidentRows, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		colName, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(sheet, colName, colName, 18); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}
