package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-stockcount-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthService struct {
	loginErr    error
	resetErr    error
	validateErr error
}

func (s *stubAuthService) Login(email, password string) (*service.LoginResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &service.LoginResponse{Token: "tok"}, nil
}

func (s *stubAuthService) ResetPassword(email, oldPassword, newPassword string) error {
	return s.resetErr
}

func (s *stubAuthService) ValidateToken(token string) (*service.TokenValidationResponse, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return &service.TokenValidationResponse{}, nil
}

func (s *stubAuthService) Heartbeat(userID uuid.UUID) error { return nil }

func authApp(svc service.AuthService) *fiber.App {
	app := fiber.New()
	h := NewAuthHandler(svc)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/reset-password", h.ResetPassword)
	app.Post("/auth/validate-token", h.ValidateToken)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestLoginRequiresEmailAndPassword(t *testing.T) {
	app := authApp(&stubAuthService{})
	resp := postJSON(t, app, "/auth/login", `{"email":"dana@example.com"}`)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestLoginAuthFailuresAreUnauthorized(t *testing.T) {
	for _, errCase := range []error{service.ErrInvalidCredentials, service.ErrUserInactive} {
		app := authApp(&stubAuthService{loginErr: errCase})
		resp := postJSON(t, app, "/auth/login", `{"email":"dana@example.com","password":"pw"}`)
		assert.Equal(t, 401, resp.StatusCode, "%v", errCase)
	}
}

func TestResetPasswordErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrUserNotFound, 404},
		{service.ErrWrongPassword, 401},
		{nil, 200},
	}
	for _, tc := range cases {
		app := authApp(&stubAuthService{resetErr: tc.err})
		resp := postJSON(t, app, "/auth/reset-password",
			`{"email":"dana@example.com","old_password":"old123","new_password":"new123"}`)
		assert.Equal(t, tc.want, resp.StatusCode, "%v", tc.err)
	}
}

func TestValidateTokenFlagsInactivity(t *testing.T) {
	app := authApp(&stubAuthService{validateErr: service.ErrSessionTimeout})
	resp := postJSON(t, app, "/auth/validate-token", `{"token":"stale"}`)
	require.Equal(t, 401, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "inactivity", body["reason"])
}
