package store

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
)

func (s *Store) AddIncident(ctx context.Context, in domain.Incident) error {
	return s.mutate(ctx, func() (*domain.Change, error) {
		if slices.ContainsFunc(s.incidents, func(x domain.Incident) bool { return x.ID == in.ID }) {
			return nil, fmt.Errorf("%w: incident %s", ErrDuplicateID, in.ID)
		}
		next := append(cloneIncidents(s.incidents), in.Clone())
		if err := s.save(ctx, domain.CollectionIncidents, next); err != nil {
			return nil, err
		}
		s.incidents = next
		return &domain.Change{Collection: domain.CollectionIncidents, Op: domain.OpAdd, ID: in.ID}, nil
	})
}

// UpdateIncident replaces the incident with the same id; unknown ids are a no-op.
func (s *Store) UpdateIncident(ctx context.Context, in domain.Incident) error {
	return s.mutate(ctx, func() (*domain.Change, error) {
		next := cloneIncidents(s.incidents)
		found := false
		for i := range next {
			if next[i].ID == in.ID {
				next[i] = in.Clone()
				found = true
			}
		}
		if err := s.save(ctx, domain.CollectionIncidents, next); err != nil {
			return nil, err
		}
		s.incidents = next
		if !found {
			s.logger.Debug("UpdateIncident: no such incident", zap.String("incident_id", in.ID))
			return nil, nil
		}
		return &domain.Change{Collection: domain.CollectionIncidents, Op: domain.OpUpdate, ID: in.ID}, nil
	})
}

func (s *Store) DeleteIncident(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (*domain.Change, error) {
		next := slices.DeleteFunc(cloneIncidents(s.incidents), func(i domain.Incident) bool {
			return i.ID == id
		})
		if err := s.save(ctx, domain.CollectionIncidents, next); err != nil {
			return nil, err
		}
		removed := len(s.incidents) - len(next)
		s.incidents = next
		if removed == 0 {
			return nil, nil
		}
		return &domain.Change{Collection: domain.CollectionIncidents, Op: domain.OpDelete, ID: id}, nil
	})
}

// ModifyIncident applies fn to a copy of the stored incident and persists the
// result, all under the write lock. The id cannot be changed by fn. If fn
// returns an error nothing is written and that error is returned.
func (s *Store) ModifyIncident(ctx context.Context, id string, fn func(*domain.Incident) error) (domain.Incident, error) {
	var out domain.Incident
	err := s.mutate(ctx, func() (*domain.Change, error) {
		idx := slices.IndexFunc(s.incidents, func(i domain.Incident) bool { return i.ID == id })
		if idx < 0 {
			return nil, fmt.Errorf("%w: incident %s", ErrNotFound, id)
		}
		next := cloneIncidents(s.incidents)
		if err := fn(&next[idx]); err != nil {
			return nil, err
		}
		next[idx].ID = id
		if err := s.save(ctx, domain.CollectionIncidents, next); err != nil {
			return nil, err
		}
		s.incidents = next
		out = next[idx].Clone()
		return &domain.Change{Collection: domain.CollectionIncidents, Op: domain.OpUpdate, ID: id}, nil
	})
	return out, err
}
