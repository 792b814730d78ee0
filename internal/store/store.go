// Package store is the single source of truth for clinic records. It owns the
// users, patients and incidents collections plus the current session, and
// rewrites the durable copy of a collection before any mutation returns.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/storage"
)

var (
	// ErrDuplicateID is returned by Add* when the id is already taken.
	ErrDuplicateID = errors.New("store: duplicate id")
	ErrNotFound    = errors.New("store: not found")
)

// Notifier receives a Change after the mutation has been persisted.
type Notifier interface {
	Notify(ctx context.Context, change domain.Change) error
}

type Option func(*Store)

// WithNotifier 注册变更通知（例如 MQTT）
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// Snapshot is a consistent copy of all collections taken under one lock.
type Snapshot struct {
	Users       []domain.User
	Patients    []domain.Patient
	Incidents   []domain.Incident
	CurrentUser *domain.User
}

type Store struct {
	kv       storage.KV
	logger   *zap.Logger
	notifier Notifier

	mu        sync.RWMutex
	users     []domain.User
	patients  []domain.Patient
	incidents []domain.Incident
	current   *domain.User
}

// New creates an empty store; call Init before use.
func New(kv storage.KV, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{kv: kv, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store and loads it from kv.
func Open(ctx context.Context, kv storage.KV, logger *zap.Logger, opts ...Option) (*Store, error) {
	s := New(kv, logger, opts...)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Init loads every collection from durable storage, seeding the ones that are
// absent or empty, and restores a persisted session.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadOrSeed(ctx, s, domain.CollectionUsers, seedUsers)
	if err != nil {
		return err
	}
	patients, err := loadOrSeed(ctx, s, domain.CollectionPatients, seedPatients)
	if err != nil {
		return err
	}
	incidents, err := loadOrSeed(ctx, s, domain.CollectionIncidents, seedIncidents)
	if err != nil {
		return err
	}

	var current *domain.User
	raw, err := s.kv.Get(ctx, domain.SessionKey)
	switch {
	case errors.Is(err, storage.ErrMiss):
	case err != nil:
		return fmt.Errorf("failed to read session: %w", err)
	default:
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return fmt.Errorf("failed to decode session: %w", err)
		}
		current = &u
	}

	s.users, s.patients, s.incidents, s.current = users, patients, incidents, current

	s.logger.Info("Store initialized",
		zap.Int("users", len(users)),
		zap.Int("patients", len(patients)),
		zap.Int("incidents", len(incidents)),
		zap.Bool("session", current != nil),
	)
	return nil
}

func loadOrSeed[T any](ctx context.Context, s *Store, key string, seed func() []T) ([]T, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrMiss) {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var items []T
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
	}
	if len(items) > 0 {
		return items, nil
	}

	items = seed()
	if err := s.save(ctx, key, items); err != nil {
		return nil, err
	}
	s.logger.Info("Seeded collection", zap.String("key", key), zap.Int("count", len(items)))
	return items, nil
}

// save 序列化并写入持久化存储
func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	s.logger.Debug("Persisted collection", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// mutate runs fn under the write lock. fn returns the change to publish, or
// nil when nothing observable happened.
func (s *Store) mutate(ctx context.Context, fn func() (*domain.Change, error)) error {
	s.mu.Lock()
	change, err := fn()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if change != nil && s.notifier != nil {
		if err := s.notifier.Notify(ctx, *change); err != nil {
			s.logger.Warn("Change notification failed",
				zap.String("collection", change.Collection),
				zap.String("op", string(change.Op)),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Reset overwrites every collection with the seed data and logs out.
// Keys are written users, patients, incidents, then the session is removed;
// each collection is swapped in memory right after its own write, so a failed
// write leaves memory matching what reached storage.
func (s *Store) Reset(ctx context.Context) error {
	return s.mutate(ctx, func() (*domain.Change, error) {
		users, patients, incidents := seedUsers(), seedPatients(), seedIncidents()

		if err := s.save(ctx, domain.CollectionUsers, users); err != nil {
			return nil, err
		}
		s.users = users
		if err := s.save(ctx, domain.CollectionPatients, patients); err != nil {
			return nil, err
		}
		s.patients = patients
		if err := s.save(ctx, domain.CollectionIncidents, incidents); err != nil {
			return nil, err
		}
		s.incidents = incidents
		if err := s.kv.Delete(ctx, domain.SessionKey); err != nil {
			return nil, fmt.Errorf("failed to clear session: %w", err)
		}
		s.current = nil

		s.logger.Info("Store reset to seed data")
		return &domain.Change{Collection: domain.CollectionAll, Op: domain.OpReset}, nil
	})
}

// ========== Reads ==========

func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

func (s *Store) Patients() []domain.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.patients)
}

func (s *Store) Incidents() []domain.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneIncidents(s.incidents)
}

func (s *Store) Patient(id string) (domain.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := slices.IndexFunc(s.patients, func(p domain.Patient) bool { return p.ID == id })
	if idx < 0 {
		return domain.Patient{}, false
	}
	return s.patients[idx], true
}

func (s *Store) Incident(id string) (domain.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := slices.IndexFunc(s.incidents, func(i domain.Incident) bool { return i.ID == id })
	if idx < 0 {
		return domain.Incident{}, false
	}
	return s.incidents[idx].Clone(), true
}

// CurrentUser returns the logged-in user, if any.
func (s *Store) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Users:     slices.Clone(s.users),
		Patients:  slices.Clone(s.patients),
		Incidents: cloneIncidents(s.incidents),
	}
	if s.current != nil {
		u := *s.current
		snap.CurrentUser = &u
	}
	return snap
}

func cloneIncidents(in []domain.Incident) []domain.Incident {
	if in == nil {
		return nil
	}
	out := make([]domain.Incident, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// NewPatientID 生成新患者 ID（p 前缀）
func NewPatientID() string { return "p" + uuid.NewString() }

// NewIncidentID 生成新预约 ID（i 前缀）
func NewIncidentID() string { return "i" + uuid.NewString() }
