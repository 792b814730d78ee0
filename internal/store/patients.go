package store

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
)

func (s *Store) AddPatient(ctx context.Context, p domain.Patient) error {
	return s.mutate(ctx, func() (*domain.Change, error) {
		if slices.ContainsFunc(s.patients, func(x domain.Patient) bool { return x.ID == p.ID }) {
			return nil, fmt.Errorf("%w: patient %s", ErrDuplicateID, p.ID)
		}
		next := append(slices.Clone(s.patients), p)
		if err := s.save(ctx, domain.CollectionPatients, next); err != nil {
			return nil, err
		}
		s.patients = next
		return &domain.Change{Collection: domain.CollectionPatients, Op: domain.OpAdd, ID: p.ID}, nil
	})
}

// UpdatePatient replaces the patient with the same id. An unknown id leaves
// the collection unchanged.
func (s *Store) UpdatePatient(ctx context.Context, p domain.Patient) error {
	return s.mutate(ctx, func() (*domain.Change, error) {
		next := slices.Clone(s.patients)
		found := false
		for i := range next {
			if next[i].ID == p.ID {
				next[i] = p
				found = true
			}
		}
		if err := s.save(ctx, domain.CollectionPatients, next); err != nil {
			return nil, err
		}
		s.patients = next
		if !found {
			s.logger.Debug("UpdatePatient: no such patient", zap.String("patient_id", p.ID))
			return nil, nil
		}
		return &domain.Change{Collection: domain.CollectionPatients, Op: domain.OpUpdate, ID: p.ID}, nil
	})
}

// DeletePatient removes the patient and every incident that references it.
func (s *Store) DeletePatient(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (*domain.Change, error) {
		patients := slices.DeleteFunc(slices.Clone(s.patients), func(p domain.Patient) bool {
			return p.ID == id
		})
		incidents := slices.DeleteFunc(cloneIncidents(s.incidents), func(i domain.Incident) bool {
			return i.PatientID == id
		})

		// patients first: if the second write fails the leftovers are
		// orphaned incidents, which readers already tolerate
		if err := s.save(ctx, domain.CollectionPatients, patients); err != nil {
			return nil, err
		}
		removedPatients := len(s.patients) - len(patients)
		s.patients = patients
		if err := s.save(ctx, domain.CollectionIncidents, incidents); err != nil {
			return nil, err
		}
		removedIncidents := len(s.incidents) - len(incidents)
		s.incidents = incidents

		if removedPatients == 0 {
			s.logger.Debug("DeletePatient: no such patient", zap.String("patient_id", id))
			return nil, nil
		}
		s.logger.Info("Patient deleted",
			zap.String("patient_id", id),
			zap.Int("incidents_removed", removedIncidents),
		)
		return &domain.Change{Collection: domain.CollectionPatients, Op: domain.OpDelete, ID: id}, nil
	})
}
