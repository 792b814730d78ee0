package store

import "github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"

// 首次启动（或持久化值为空）时写入的默认数据
// 每次调用返回新的副本，避免调用方修改共享数据

func seedUsers() []domain.User {
	return []domain.User{
		{ID: "1", Role: domain.RoleAdmin, Email: "admin@entnt.in", Password: "admin123"},
		{ID: "2", Role: domain.RolePatient, Email: "john@entnt.in", Password: "patient123", PatientID: "p1"},
	}
}

func seedPatients() []domain.Patient {
	return []domain.Patient{
		{
			ID:          "p1",
			Name:        "John Doe",
			DateOfBirth: "1990-05-10",
			Contact:     "1234567890",
			HealthInfo:  "No allergies",
		},
	}
}

func seedIncidents() []domain.Incident {
	cost := 80.0
	return []domain.Incident{
		{
			ID:              "i1",
			PatientID:       "p1",
			Title:           "Toothache",
			Description:     "Upper molar pain",
			Comments:        "Sensitive to cold",
			AppointmentDate: "2025-07-01T10:00:00",
			Cost:            &cost,
			Status:          domain.StatusCompleted,
			Files: []domain.IncidentFile{
				{Name: "invoice.pdf", URL: "base64string-or-blob-url"},
				{Name: "xray.png", URL: "base64string-or-blob-url"},
			},
		},
	}
}
