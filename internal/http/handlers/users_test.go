package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/worldofhackaton/internal/apperr"
	"github.com/geocoder89/worldofhackaton/internal/auth"
	"github.com/geocoder89/worldofhackaton/internal/domain/user"
	"github.com/geocoder89/worldofhackaton/internal/http/handlers"
	"github.com/geocoder89/worldofhackaton/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake implementations of the handlers' service interfaces

type fakeRegistrar struct {
	registerFn func(ctx context.Context, req user.RegisterRequest) (int64, error)
}

func (f *fakeRegistrar) Register(ctx context.Context, req user.RegisterRequest) (int64, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, req)
	}
	return 1, nil
}

type fakeIssuer struct {
	loginFn func(ctx context.Context, req user.LoginRequest) (string, error)
}

func (f *fakeIssuer) Login(ctx context.Context, req user.LoginRequest) (string, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, req)
	}
	return "token", nil
}

type fakeProfiles struct {
	listFn   func(ctx context.Context) ([]user.User, error)
	getFn    func(ctx context.Context, id int64) (user.User, error)
	updateFn func(ctx context.Context, id int64, req user.UpdateRequest) (int64, error)
}

func (f *fakeProfiles) ListUsers(ctx context.Context) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return []user.User{}, nil
}

func (f *fakeProfiles) GetUserInfo(ctx context.Context, id int64) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.User{ID: id}, nil
}

func (f *fakeProfiles) UpdateUser(ctx context.Context, id int64, req user.UpdateRequest) (int64, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return id, nil
}

type staticVerifier struct {
	claims *auth.Claims
}

func (v staticVerifier) VerifySessionToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, auth.ErrInvalidToken
	}
	return v.claims, nil
}

type testUserServer struct {
	registrar *fakeRegistrar
	issuer    *fakeIssuer
	profiles  *fakeProfiles
}

func newUsersRouter(s testUserServer, claims *auth.Claims) *gin.Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handlers.NewUsersHandler(s.registrar, s.issuer, s.profiles, log)
	authMW := middlewares.NewAuthMiddleware(staticVerifier{claims: claims})

	r := gin.New()
	r.POST("/users/register", h.Register)
	r.POST("/users/login", h.Login)
	r.GET("/users/me", authMW.RequireAuth(), h.Me)
	r.PUT("/users/:id", authMW.RequireAuth(), h.Update)
	r.GET("/users", authMW.RequireAuth(), h.List)
	return r
}

func defaultServer() testUserServer {
	return testUserServer{
		registrar: &fakeRegistrar{},
		issuer:    &fakeIssuer{},
		profiles:  &fakeProfiles{},
	}
}

func doJSON(r http.Handler, method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v, body=%s", err, w.Body.String())
	}
	return body
}

func TestRegister_Created(t *testing.T) {
	s := defaultServer()
	var got user.RegisterRequest
	s.registrar.registerFn = func(ctx context.Context, req user.RegisterRequest) (int64, error) {
		got = req
		return 42, nil
	}
	r := newUsersRouter(s, nil)

	body := `{"nombre":"Ana","apellido1":"Lopez","apellido2":"Ruiz","dni":"12345678Z","nick":"analopez","email":"ana@x.io","repeatEmail":"ana@x.io","password":"abcd","repeatPassword":"abcd"}`
	w := doJSON(r, http.MethodPost, "/users/register", body, "")

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		UserID int64 `json:"userId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserID != 42 {
		t.Fatalf("expected userId 42, got %d", resp.UserID)
	}
	if got.Nick != "analopez" || got.RepeatEmail != "ana@x.io" {
		t.Fatalf("request not forwarded intact: %+v", got)
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.Validation("Invalid request", nil), http.StatusBadRequest, "invalid_request"},
		{"email_taken", apperr.Conflict("email_taken", "Email already in use"), http.StatusConflict, "email_taken"},
		{"nick_taken", apperr.Conflict("nick_taken", "Nick already in use"), http.StatusConflict, "nick_taken"},
		{"untagged", errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultServer()
			s.registrar.registerFn = func(ctx context.Context, req user.RegisterRequest) (int64, error) {
				return 0, tt.err
			}
			r := newUsersRouter(s, nil)

			w := doJSON(r, http.MethodPost, "/users/register", `{"nombre":"Ana"}`, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d, body=%s", tt.wantStatus, w.Code, w.Body.String())
			}
			if got := decodeError(t, w).Error.Code; got != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, got)
			}
		})
	}
}

func TestRegister_InternalErrorDoesNotLeakCause(t *testing.T) {
	s := defaultServer()
	s.registrar.registerFn = func(ctx context.Context, req user.RegisterRequest) (int64, error) {
		return 0, apperr.Internal("Could not create user", errors.New("pq: connection refused"))
	}
	r := newUsersRouter(s, nil)

	w := doJSON(r, http.MethodPost, "/users/register", `{}`, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("connection refused")) {
		t.Fatalf("cause leaked to client: %s", w.Body.String())
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"syntax", `{"nombre":`},
		{"wrong_type", `{"nombre":123}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultServer()
			called := false
			s.registrar.registerFn = func(ctx context.Context, req user.RegisterRequest) (int64, error) {
				called = true
				return 1, nil
			}
			r := newUsersRouter(s, nil)

			w := doJSON(r, http.MethodPost, "/users/register", tt.body, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d, body=%s", w.Code, w.Body.String())
			}
			if called {
				t.Fatalf("registrar must not run on a malformed body")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ok", nil, http.StatusOK},
		{"unknown_email", apperr.NotFound("user_not_found", "User not found"), http.StatusNotFound},
		{"bad_password", apperr.Unauthorized("invalid_password", "Invalid password"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultServer()
			s.issuer.loginFn = func(ctx context.Context, req user.LoginRequest) (string, error) {
				if tt.err != nil {
					return "", tt.err
				}
				return "signed.jwt.value", nil
			}
			r := newUsersRouter(s, nil)

			w := doJSON(r, http.MethodPost, "/users/login", `{"email":"ana@x.io","password":"abcd"}`, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d, body=%s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.err == nil {
				var resp struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Token != "signed.jwt.value" {
					t.Fatalf("unexpected token %q", resp.Token)
				}
			}
		})
	}
}

func TestMe_UsesCredentialSubjectAndETag(t *testing.T) {
	s := defaultServer()
	var asked int64
	s.profiles.getFn = func(ctx context.Context, id int64) (user.User, error) {
		asked = id
		return user.User{ID: id, Nombre: "Ana", Email: "ana@x.io", PasswordHash: "$2a$10$secret"}, nil
	}
	r := newUsersRouter(s, &auth.Claims{UserID: 7, Role: user.RoleReader})

	w := doJSON(r, http.MethodGet, "/users/me", "", "good")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
	if asked != 7 {
		t.Fatalf("expected subject 7, got %d", asked)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("secret")) {
		t.Fatalf("password hash leaked: %s", w.Body.String())
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	w2 := doJSON(r, http.MethodGet, "/users/me", "", "good", "If-None-Match", etag)
	if w2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w2.Code)
	}
}

func TestMe_RequiresCredential(t *testing.T) {
	r := newUsersRouter(defaultServer(), &auth.Claims{UserID: 7})

	w := doJSON(r, http.MethodGet, "/users/me", "", "bad")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"ok", "/users/7", nil, http.StatusOK},
		{"bad_id", "/users/abc", nil, http.StatusBadRequest},
		{"zero_id", "/users/0", nil, http.StatusBadRequest},
		{"not_found", "/users/9", apperr.NotFound("user_not_found", "User not found"), http.StatusNotFound},
		{"forbidden", "/users/8", apperr.Forbidden("forbidden", "nope"), http.StatusForbidden},
		{"conflict", "/users/7", apperr.Conflict("email_taken", "Email already in use"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultServer()
			var gotReq user.UpdateRequest
			s.profiles.updateFn = func(ctx context.Context, id int64, req user.UpdateRequest) (int64, error) {
				gotReq = req
				if tt.err != nil {
					return 0, tt.err
				}
				return id, nil
			}
			r := newUsersRouter(s, &auth.Claims{UserID: 7, Role: user.RoleReader})

			w := doJSON(r, http.MethodPut, tt.path, `{"nick":"newnick01"}`, "good")
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d, body=%s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.name == "ok" {
				if gotReq.Nick == nil || *gotReq.Nick != "newnick01" || gotReq.Email != nil {
					t.Fatalf("partial update not decoded as expected: %+v", gotReq)
				}
			}
		})
	}
}

func TestList(t *testing.T) {
	s := defaultServer()
	s.profiles.listFn = func(ctx context.Context) ([]user.User, error) {
		return []user.User{{ID: 1, Nick: "admin01"}, {ID: 2, Nick: "analopez"}}, nil
	}
	r := newUsersRouter(s, &auth.Claims{UserID: 1, Role: user.RoleAdmin})

	w := doJSON(r, http.MethodGet, "/users", "", "good")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Items []user.User `json:"items"`
		Count int         `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(resp.Items) != 2 {
		t.Fatalf("expected 2 users, got %+v", resp)
	}
}
