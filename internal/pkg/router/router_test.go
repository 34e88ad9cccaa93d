package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/shandysiswandi/gofocus/internal/pkg/goerror"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJWT struct {
	claims map[string]jwt.Claims
}

func (s *stubJWT) Generate(jwt.Subject) (jwt.Token, error)     { return jwt.Token{}, nil }
func (s *stubJWT) GenerateIDToken(jwt.IDToken) (string, error) { return "", nil }
func (s *stubJWT) Algorithm() string                           { return "HS512" }
func (s *stubJWT) JWKS() jose.JSONWebKeySet                    { return jose.JSONWebKeySet{} }
func (s *stubJWT) Verify(token string) (jwt.Claims, error) {
	clm, ok := s.claims[token]
	if !ok {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return clm, nil
}

type stubRevocation struct {
	revoked map[string]bool
}

func (s *stubRevocation) Revoke(context.Context, string, time.Time) error { return nil }
func (s *stubRevocation) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], nil
}

type stubUUID struct{}

func (stubUUID) Generate() string { return "generated-cid" }

type itemResponse struct {
	ID string `json:"id"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (createdResponse) StatusCode() int      { return http.StatusCreated }
func (createdResponse) Message() string      { return "item created" }
func (createdResponse) Meta() map[string]any { return map[string]any{"version": 1} }

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	verifier := &stubJWT{claims: map[string]jwt.Claims{
		"good":    {UserID: 10, UserEmail: "u@x.io"},
		"revoked": {UserID: 11},
	}}
	verifier.claims["good"] = withID(verifier.claims["good"], "jti-good")
	verifier.claims["revoked"] = withID(verifier.claims["revoked"], "jti-revoked")

	return NewRouter(Config{
		UUID:       stubUUID{},
		JWT:        verifier,
		Revocation: &stubRevocation{revoked: map[string]bool{"jti-revoked": true}},
		Instrument: instrument.NewNoop(),
	})
}

func withID(c jwt.Claims, id string) jwt.Claims {
	c.ID = id
	return c
}

func do(t *testing.T, h http.Handler, method, path, body, contentType, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Envelopes(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/api/v1/items/:id", func(req *Request) (any, error) {
		return itemResponse{ID: req.GetParam("id")}, nil
	})
	r.POST("/api/v1/items", func(req *Request) (any, error) {
		var in struct {
			Name string `json:"name"`
		}
		if err := req.DecodeBody(&in); err != nil {
			return nil, err
		}
		return createdResponse{ID: in.Name}, nil
	})
	r.DELETE("/api/v1/items/:id", func(*Request) (any, error) { return nil, nil })

	t.Run("Success", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/items/7", "", "", "good")

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "request has been successfully", body["message"])
		assert.Equal(t, map[string]any{"id": "7"}, body["data"])
	})

	t.Run("CustomStatusMessageMeta", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/items", `{"name":"x"}`, "application/json", "good")

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "item created", body["message"])
		assert.Equal(t, map[string]any{"version": float64(1)}, body["meta"])
	})

	t.Run("NoContent", func(t *testing.T) {
		rec := do(t, r, http.MethodDelete, "/api/v1/items/7", "", "", "good")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("UnknownFieldRejected", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/items", `{"name":"x","extra":1}`, "application/json", "good")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("NotFoundRoute", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/nope", "", "", "good")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "endpoint not found", decode(t, rec)["message"])
	})
}

func TestRouter_ErrorCodec(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/api/v1/conflict", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("already exists", goerror.CodeConflict)
	})
	r.GET("/api/v1/validation", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(validator.V10ValidationError{"title": "title is a required field"})
	})
	r.GET("/api/v1/fields", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(nil, "to", "to must be after from")
	})
	r.GET("/api/v1/plain", func(*Request) (any, error) {
		return nil, errors.New("database exploded")
	})

	tests := []struct {
		path   string
		status int
		msg    string
		fields map[string]any
	}{
		{"/api/v1/conflict", http.StatusConflict, "already exists", nil},
		{"/api/v1/validation", http.StatusUnprocessableEntity, "Validation error", map[string]any{"title": "title is a required field"}},
		{"/api/v1/fields", http.StatusUnprocessableEntity, "Validation error", map[string]any{"to": "to must be after from"}},
		{"/api/v1/plain", http.StatusInternalServerError, "Internal server error", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, tt.path, "", "", "good")

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.msg, body["message"])
			if tt.fields != nil {
				assert.Equal(t, tt.fields, body["error"])
			}
		})
	}
}

func TestRouter_Authentication(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/api/v1/me", func(req *Request) (any, error) {
		clm := jwt.GetAuth(req.Context())
		return map[string]any{"user_id": clm.UserID}, nil
	})
	r.POST("/api/v1/identity/login", func(*Request) (any, error) {
		return map[string]string{"ok": "yes"}, nil
	})

	t.Run("MissingToken", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/me", "", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/me", "", "", "bad")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("RevokedToken", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/me", "", "", "revoked")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ValidToken", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/me", "", "", "good")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"user_id": float64(10)}, decode(t, rec)["data"])
	})

	t.Run("PublicEndpoint", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/identity/login", `{}`, "application/json", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_ContentTypeGuard(t *testing.T) {
	r := newTestRouter(t)
	r.POST("/api/v1/items", func(*Request) (any, error) { return nil, nil })
	r.POSTRaw("/oauth2/token", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("FormPostToJSONEndpoint", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/items", "a=b", "application/x-www-form-urlencoded", "good")
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("MissingContentType", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/items", "{}", "", "good")
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("JSONWithCharset", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/items", "{}", "application/json; charset=utf-8", "good")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("EmptyBody", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/api/v1/items", "", "", "good")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("FormAllowedOnTokenEndpoint", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/oauth2/token", "grant_type=password", "application/x-www-form-urlencoded", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_CorrelationAndRecover(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/api/v1/cid", func(req *Request) (any, error) {
		return map[string]string{"cid": instrument.GetCorrelationID(req.Context())}, nil
	})
	r.GET("/api/v1/panic", func(*Request) (any, error) { panic("boom") })

	t.Run("GeneratesCorrelationID", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/cid", "", "", "good")
		assert.Equal(t, "generated-cid", rec.Header().Get(HeaderCorrelationID))
		assert.Equal(t, map[string]any{"cid": "generated-cid"}, decode(t, rec)["data"])
	})

	t.Run("PropagatesIncomingCorrelationID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cid", nil)
		req.Header.Set("Authorization", "Bearer good")
		req.Header.Set(HeaderRequestID, "from-proxy")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, "from-proxy", rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("RecoversPanic", func(t *testing.T) {
		rec := do(t, r, http.MethodGet, "/api/v1/panic", "", "", "good")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", decode(t, rec)["message"])
	})
}

func TestRateLimiter(t *testing.T) {
	// Arrange
	r := newTestRouter(t)
	rl := NewRateLimiter(60, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	r.POST("/api/v1/identity/login", func(*Request) (any, error) { return nil, nil }, rl.Middleware())

	// Act
	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, do(t, r, http.MethodPost, "/api/v1/identity/login", "", "", "").Code)
	}

	// Assert
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, "/api/v1/identity/login", "", "", "").Code)

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, rl.Cleanup(5*time.Minute))
}
