package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/samvad-hq/blogmind-client/internal/domain"
)

// AuthService covers registration, login and the current user's profile.
type AuthService struct {
	c *Client
}

// Register creates an account. The response carries a token when the server
// signs the new user in straight away.
func (s *AuthService) Register(ctx context.Context, in domain.Registration) (*domain.AuthToken, error) {
	var fields []FieldError
	if strings.TrimSpace(in.Email) == "" {
		fields = append(fields, FieldError{Field: "email", Message: "is required"})
	}
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "is required"})
	}
	if in.Password == "" {
		fields = append(fields, FieldError{Field: "password", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, &Error{
			Kind:    KindValidation,
			Method:  http.MethodPost,
			Path:    "/auth/register",
			Message: "registration is incomplete",
			Fields:  fields,
		}
	}

	var out domain.AuthToken
	if err := s.c.do(ctx, call{method: http.MethodPost, path: "/auth/register", json: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token (OAuth2 password form).
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthToken, error) {
	if err := requireID(http.MethodPost, "/auth/login", "email", email); err != nil {
		return nil, err
	}
	if err := requireID(http.MethodPost, "/auth/login", "password", password); err != nil {
		return nil, err
	}

	var out domain.AuthToken
	err := s.c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/login",
		form: map[string]string{
			"username": strings.TrimSpace(email),
			"password": password,
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser fetches the profile of the token's owner.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/users/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser changes the given profile fields.
func (s *AuthService) UpdateUser(ctx context.Context, in domain.ProfileUpdate) (*domain.User, error) {
	var out domain.User
	if err := s.c.do(ctx, call{method: http.MethodPut, path: "/users/me", json: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
