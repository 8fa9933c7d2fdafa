package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/stratacontent/internal/app/system/auth"
	"github.com/google/uuid"
)

// TestUser represents an authenticated principal for handler tests.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// Editor returns a TestUser with the given email.
func Editor(email string) TestUser {
	return TestUser{
		ID:    uuid.NewString(),
		Name:  "Test Editor",
		Email: email,
		Role:  "admin",
	}
}

// WithUser injects user into the request context, bypassing the session middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// NewJSONRequest creates a request with a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewAuthenticatedRequest creates a JSON request with user in context.
func NewAuthenticatedRequest(method, target, body string, user TestUser) *http.Request {
	return WithUser(NewJSONRequest(method, target, body), user)
}
