package store

import (
	"context"
	"strings"

	"fintrack/internal/core"
)

func (s *Store) Settings() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Store) SetDarkMode(ctx context.Context, on bool) core.Settings {
	s.mu.Lock()
	s.settings.DarkMode = on
	changes := s.commit(ctx, OpSet, "", KeyDarkMode)
	settings := s.settings
	s.mu.Unlock()

	s.announce(ctx, changes)
	return settings
}

// SetUseINR switches display currency. Stored amounts are never converted.
func (s *Store) SetUseINR(ctx context.Context, on bool) core.Settings {
	s.mu.Lock()
	s.settings.UseINR = on
	changes := s.commit(ctx, OpSet, "", KeyUseINR)
	settings := s.settings
	s.mu.Unlock()

	s.announce(ctx, changes)
	return settings
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) Profile() core.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Login marks the session authenticated. A different email than the stored
// profile's replaces the email and restarts the join date.
func (s *Store) Login(ctx context.Context, email string) (core.UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return core.UserProfile{}, core.NewValidationError("email", core.ErrEmptyEmail)
	}

	s.mu.Lock()
	s.authenticated = true
	keys := []string{KeyAuthenticated}
	if s.profile.Email != email {
		s.profile.Email = email
		s.profile.JoinDate = s.timestamp()
		keys = append(keys, KeyProfile)
	}
	changes := s.commit(ctx, OpSet, "", keys...)
	profile := s.profile
	s.mu.Unlock()

	s.announce(ctx, changes)
	return profile, nil
}

// Register replaces the profile with a fresh Standard account and logs in.
func (s *Store) Register(ctx context.Context, name, email string) (core.UserProfile, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return core.UserProfile{}, core.NewValidationError("fullName", core.ErrEmptyName)
	}
	if email == "" {
		return core.UserProfile{}, core.NewValidationError("email", core.ErrEmptyEmail)
	}

	s.mu.Lock()
	s.authenticated = true
	s.profile = core.UserProfile{
		FullName:    name,
		Email:       email,
		AccountType: "Standard",
		JoinDate:    s.timestamp(),
	}
	changes := s.commit(ctx, OpSet, "", KeyAuthenticated, KeyProfile)
	profile := s.profile
	s.mu.Unlock()

	s.announce(ctx, changes)
	return profile, nil
}

// Logout clears the authenticated flag; the profile is kept.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.authenticated = false
	changes := s.commit(ctx, OpSet, "", KeyAuthenticated)
	s.mu.Unlock()

	s.announce(ctx, changes)
}

// UpdateProfile replaces the profile wholesale. A zero join date keeps the
// current one.
func (s *Store) UpdateProfile(ctx context.Context, p core.UserProfile) core.UserProfile {
	s.mu.Lock()
	if p.JoinDate.IsZero() {
		p.JoinDate = s.profile.JoinDate
	}
	s.profile = p
	changes := s.commit(ctx, OpUpdate, "", KeyProfile)
	s.mu.Unlock()

	s.announce(ctx, changes)
	return p
}

// Period is the selected month. It is session state and never persisted.
func (s *Store) Period() core.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period
}

func (s *Store) SetPeriod(p core.Period) error {
	if err := p.Validate(); err != nil {
		return core.NewValidationError("period", err)
	}
	s.mu.Lock()
	s.period = p
	s.mu.Unlock()
	return nil
}

// ShiftPeriod moves the selected month by delta, wrapping across years.
func (s *Store) ShiftPeriod(delta int) core.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = s.period.Shift(delta)
	return s.period
}
