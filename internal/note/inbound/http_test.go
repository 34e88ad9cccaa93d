package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/shandysiswandi/gofocus/internal/note/entity"
	"github.com/shandysiswandi/gofocus/internal/note/usecase"
	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
	"github.com/shandysiswandi/gofocus/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubJWT struct{}

func (stubJWT) Generate(jwt.Subject) (jwt.Token, error)     { return jwt.Token{}, nil }
func (stubJWT) GenerateIDToken(jwt.IDToken) (string, error) { return "", nil }
func (stubJWT) Algorithm() string                           { return "HS512" }
func (stubJWT) JWKS() jose.JSONWebKeySet                    { return jose.JSONWebKeySet{} }
func (stubJWT) Verify(string) (jwt.Claims, error)           { return jwt.Claims{UserID: 7}, nil }

type stubUUID struct{}

func (stubUUID) Generate() string { return "cid" }

type mockUC struct {
	mock.Mock
}

func (m *mockUC) NoteCreate(ctx context.Context, in usecase.NoteInput) (*entity.Note, error) {
	args := m.Called(ctx, in)
	n, _ := args.Get(0).(*entity.Note)
	return n, args.Error(1)
}

func (m *mockUC) NoteList(ctx context.Context, in usecase.NoteListInput) (*usecase.NoteListOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.NoteListOutput)
	return out, args.Error(1)
}

func (m *mockUC) NoteDetail(ctx context.Context, id int64) (*usecase.NoteDetailOutput, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*usecase.NoteDetailOutput)
	return out, args.Error(1)
}

func (m *mockUC) NoteUpdate(ctx context.Context, in usecase.NoteInput) (*entity.Note, error) {
	args := m.Called(ctx, in)
	n, _ := args.Get(0).(*entity.Note)
	return n, args.Error(1)
}

func (m *mockUC) NotePin(ctx context.Context, id int64, pinned bool) (*entity.Note, error) {
	args := m.Called(ctx, id, pinned)
	n, _ := args.Get(0).(*entity.Note)
	return n, args.Error(1)
}

func (m *mockUC) NoteDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUC) AttachmentUpload(ctx context.Context, in usecase.AttachmentUploadInput) (*entity.Attachment, error) {
	args := m.Called(ctx, in)
	a, _ := args.Get(0).(*entity.Attachment)
	return a, args.Error(1)
}

func (m *mockUC) AttachmentURL(ctx context.Context, noteID, attachmentID int64) (*usecase.AttachmentURLOutput, error) {
	args := m.Called(ctx, noteID, attachmentID)
	out, _ := args.Get(0).(*usecase.AttachmentURLOutput)
	return out, args.Error(1)
}

func (m *mockUC) AttachmentDelete(ctx context.Context, noteID, attachmentID int64) error {
	return m.Called(ctx, noteID, attachmentID).Error(0)
}

func newServer(t *testing.T) (*mockUC, http.Handler) {
	t.Helper()

	r := router.NewRouter(router.Config{UUID: stubUUID{}, JWT: stubJWT{}, Instrument: instrument.NewNoop()})
	uc := &mockUC{}
	RegisterHTTPEndpoint(r, uc)

	return uc, r
}

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHTTP_Upload(t *testing.T) {
	// Arrange
	uc, h := newServer(t)
	uc.On("AttachmentUpload", mock.Anything, mock.MatchedBy(func(in usecase.AttachmentUploadInput) bool {
		if in.NoteID != 3 || in.FileName != "plan.txt" || in.ContentType != "text/plain" {
			return false
		}
		data, err := io.ReadAll(in.File)
		return err == nil && string(data) == "step one"
	})).Return(&entity.Attachment{ID: 11, NoteID: 3, FileName: "plan.txt", ContentType: "text/plain", Size: 8}, nil).Once()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("comment", "ignored"))
	fw, err := mw.CreateFormFile("file", "plan.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("step one"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notes/3/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	// Act
	rec, body := serve(t, h, req)

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "11", data["id"])
	assert.Equal(t, float64(8), data["size"])
	uc.AssertExpectations(t)
}

func TestHTTP_PinRequiresField(t *testing.T) {
	_, h := newServer(t)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/notes/3/pin", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rec, _ := serve(t, h, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHTTP_ListPinned(t *testing.T) {
	uc, h := newServer(t)
	pinned := true
	uc.On("NoteList", mock.Anything, usecase.NoteListInput{Pinned: &pinned, Search: "go"}).
		Return(&usecase.NoteListOutput{Page: 1, Size: 20, Total: 1, Notes: []entity.Note{{ID: 4, Pinned: true}}}, nil).Once()

	rec, body := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/notes?pinned=true&search=go", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	notes := body["data"].(map[string]any)["notes"].([]any)
	require.Len(t, notes, 1)
	assert.Equal(t, true, notes[0].(map[string]any)["pinned"])
	uc.AssertExpectations(t)
}

func TestHTTP_Download(t *testing.T) {
	uc, h := newServer(t)
	exp := time.Date(2026, 5, 14, 9, 15, 0, 0, time.UTC)
	uc.On("AttachmentURL", mock.Anything, int64(3), int64(11)).Return(&usecase.AttachmentURLOutput{
		Attachment: entity.Attachment{ID: 11, FileName: "plan.txt"},
		URL:        "https://store.local/plan.txt?sig=1",
		ExpiresAt:  exp,
	}, nil).Once()

	rec, body := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/notes/3/attachments/11", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "https://store.local/plan.txt?sig=1", data["url"])
	assert.Equal(t, "2026-05-14T09:15:00Z", data["expires_at"])
}
