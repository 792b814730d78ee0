package store

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
)

// Login checks email and password by plain equality and returns the matched
// user. A mismatch returns false and leaves the current session as it was.
func (s *Store) Login(ctx context.Context, email, password string) (domain.User, bool, error) {
	var matched *domain.User
	err := s.mutate(ctx, func() (*domain.Change, error) {
		idx := slices.IndexFunc(s.users, func(u domain.User) bool {
			return u.Email == email && u.Password == password
		})
		if idx < 0 {
			return nil, nil
		}
		u := s.users[idx]
		if err := s.save(ctx, domain.SessionKey, u); err != nil {
			return nil, err
		}
		s.current = &u
		matched = &u
		return &domain.Change{Collection: domain.SessionKey, Op: domain.OpLogin, ID: u.ID}, nil
	})
	if err != nil {
		return domain.User{}, false, err
	}
	if matched == nil {
		s.logger.Info("Login rejected", zap.String("email", email))
		return domain.User{}, false, nil
	}
	s.logger.Info("Login succeeded",
		zap.String("user_id", matched.ID),
		zap.String("role", string(matched.Role)),
	)
	return *matched, true, nil
}

// Logout clears the session in memory and in durable storage.
func (s *Store) Logout(ctx context.Context) error {
	return s.mutate(ctx, func() (*domain.Change, error) {
		if err := s.kv.Delete(ctx, domain.SessionKey); err != nil {
			return nil, fmt.Errorf("failed to clear session: %w", err)
		}
		var id string
		if s.current != nil {
			id = s.current.ID
		}
		s.current = nil
		return &domain.Change{Collection: domain.SessionKey, Op: domain.OpLogout, ID: id}, nil
	})
}
