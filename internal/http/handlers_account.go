package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.store.Settings()).Write(w)
}

// handleUpdateSettings applies only the fields present in the body.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	res := NewResponse()
	settings := s.store.Settings()
	if p.Has("darkMode") {
		settings = s.store.SetDarkMode(r.Context(), p.Bool("darkMode"))
		res.TriggerChanged(store.KeyDarkMode)
	}
	if p.Has("useINR") {
		before := settings.UseINR
		settings = s.store.SetUseINR(r.Context(), p.Bool("useINR"))
		res.TriggerChanged(store.KeyUseINR)
		if settings.UseINR != before {
			res.TriggerInfoNotification(msgCurrency(settings.UseINR))
		}
	}

	res.JSON(settings).Write(w)
}

// session is the local account state.
type session struct {
	Authenticated bool             `json:"isAuthenticated"`
	Profile       core.UserProfile `json:"userProfile"`
}

func (s *Server) session() session {
	return session{Authenticated: s.store.IsAuthenticated(), Profile: s.store.Profile()}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.session()).Write(w)
}

// handleUpdateProfile replaces the editable profile fields. Fields absent
// from the body keep their current value.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	profile := s.store.Profile()
	for field, dst := range map[string]*string{
		"fullName":    &profile.FullName,
		"email":       &profile.Email,
		"avatar":      &profile.Avatar,
		"accountType": &profile.AccountType,
		"phone":       &profile.Phone,
	} {
		if p.Has(field) {
			*dst = p.Get(field)
		}
	}
	s.store.UpdateProfile(r.Context(), profile)

	NewResponse().
		TriggerChanged(store.KeyProfile).
		TriggerSuccessNotification(msgProfileUpdated).
		JSON(s.session()).
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	if _, err := s.store.Login(r.Context(), p.Get("email")); err != nil {
		ValidationResponse(err, "Please enter your email").Write(w)
		return
	}

	NewResponse().
		TriggerChanged(store.KeyAuthenticated).
		TriggerSuccessNotification(msgLoggedIn).
		JSON(s.session()).
		Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidRequest).Write(w)
		return
	}

	if _, err := s.store.Register(r.Context(), p.Get("fullName"), p.Get("email")); err != nil {
		ValidationResponse(err, msgRequiredFields).Write(w)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		TriggerChanged(store.KeyAuthenticated, store.KeyProfile).
		TriggerSuccessNotification(msgRegistered).
		JSON(s.session()).
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.store.Logout(r.Context())

	NewResponse().
		TriggerChanged(store.KeyAuthenticated).
		TriggerInfoNotification(msgLoggedOut).
		JSON(s.session()).
		Write(w)
}
