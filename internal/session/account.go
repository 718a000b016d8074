package session

import (
	"fmt"
	"net/url"
	"strings"

	"lunchgenius/internal/model"
)

const (
	defaultUserName  = "김미식"
	defaultUserEmail = "user@example.com"
	avatarBaseURL    = "https://api.dicebear.com/7.x/avataaars/svg?seed="
)

// LoginForm is what the mock login/signup form submits. Password is accepted
// and ignored.
type LoginForm struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	APIKey   string `json:"apiKey" form:"apiKey"`
}

// NewUser fabricates the mock identity for a submitted form.
func NewUser(form LoginForm) model.User {
	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)

	seed := name
	if seed == "" {
		seed = "user"
	}
	if name == "" {
		name = defaultUserName
	}
	if email == "" {
		email = defaultUserEmail
	}

	return model.User{
		Name:   name,
		Email:  email,
		Avatar: avatarBaseURL + url.QueryEscape(seed),
		APIKey: strings.TrimSpace(form.APIKey),
	}
}

func normalizeAuthMode(mode AuthMode) (AuthMode, error) {
	if mode == "" {
		return AuthModeLogin, nil
	}
	if mode != AuthModeLogin && mode != AuthModeSignup {
		return mode, fmt.Errorf("%w: %q", ErrInvalidAuthMode, mode)
	}
	return mode, nil
}

// OpenLogin shows the login screen, remembering where to return to. Opening
// it again while it is shown only switches the form mode.
func (s State) OpenLogin(mode AuthMode) (State, error) {
	if s.Step == StepLogin {
		return s.SetAuthMode(mode)
	}
	mode, err := normalizeAuthMode(mode)
	if err != nil {
		return s, err
	}
	if s.Step.Detached() {
		s.PreviousStep = StepHistoryInput
	} else {
		s.PreviousStep = s.Step
	}
	s.AuthMode = mode
	s.Step = StepLogin
	return s, nil
}

// SetAuthMode toggles the form between login and signup. The remembered
// step is kept.
func (s State) SetAuthMode(mode AuthMode) (State, error) {
	if err := s.require(StepLogin); err != nil {
		return s, err
	}
	mode, err := normalizeAuthMode(mode)
	if err != nil {
		return s, err
	}
	s.AuthMode = mode
	return s, nil
}

// SubmitLogin always succeeds and returns to the remembered step.
func (s State) SubmitLogin(form LoginForm) (State, error) {
	if err := s.require(StepLogin); err != nil {
		return s, err
	}
	u := NewUser(form)
	s.User = &u
	s.Step = s.PreviousStep
	return s, nil
}

// CancelLogin returns to the remembered step without logging in.
func (s State) CancelLogin() (State, error) {
	if err := s.require(StepLogin); err != nil {
		return s, err
	}
	s.Step = s.PreviousStep
	return s, nil
}

// OpenProfile shows the profile of the logged-in user.
func (s State) OpenProfile() (State, error) {
	if s.User == nil {
		return s, ErrNotAuthenticated
	}
	if s.Step == StepProfile {
		return s, nil
	}
	s.PreviousStep = s.Step
	s.Step = StepProfile
	return s, nil
}

// CloseProfile returns to the remembered step.
func (s State) CloseProfile() (State, error) {
	if err := s.require(StepProfile); err != nil {
		return s, err
	}
	s.Step = s.PreviousStep
	return s, nil
}

// Logout drops the user and always lands on the history screen, whatever
// step was remembered.
func (s State) Logout() State {
	s.User = nil
	s.Step = StepHistoryInput
	return s
}

// APIKey returns the logged-in user's personal credential, if any.
func (s State) APIKey() string {
	if s.User == nil {
		return ""
	}
	return s.User.APIKey
}
