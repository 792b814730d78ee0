package domain

import (
	"errors"
	"strings"
)

// Patient 患者档案（对应 durable key "patients"）
type Patient struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dob"` // YYYY-MM-DD
	Contact     string `json:"contact"`
	HealthInfo  string `json:"healthInfo"`
}

// Validate checks the fields the admin form marks as required.
func (p Patient) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(p.DateOfBirth) == "" {
		errs = append(errs, errors.New("date of birth is required"))
	} else if _, err := ParseDate(p.DateOfBirth); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(p.Contact) == "" {
		errs = append(errs, errors.New("contact is required"))
	}
	return errors.Join(errs...)
}
