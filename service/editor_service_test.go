package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"legalresearch-backend/models"
	"legalresearch-backend/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEditorSecret = "onlyoffice-secret"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEditorService(t *testing.T, opts ...EditorServiceOption) (*EditorService, storage.Storage) {
	t.Helper()
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	opts = append([]EditorServiceOption{
		EditorWithSecret(testEditorSecret),
		EditorWithStorage(st),
		EditorWithClock(func() time.Time { return fixedNow }),
		EditorWithLogger(quietLogger()),
	}, opts...)
	return NewEditorService(opts...), st
}

func parseEditorToken(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(testEditorSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return claims
}

func TestEditorService_BuildConfig_Existing(t *testing.T) {
	svc, _ := newTestEditorService(t)

	cfg, err := svc.BuildConfig(context.Background(), EditorRequest{
		FileType:     "docx",
		Title:        "Brief",
		FileName:     "brief.docx",
		DocumentType: "word",
		BaseURL:      "http://localhost:8000/",
		Theme:        "dark",
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{64}$`), cfg.Document.Key)
	assert.Equal(t, "docx", cfg.Document.FileType)
	assert.Equal(t, "Brief", cfg.Document.Title)
	assert.Equal(t, "http://localhost:8000/uploads/brief.docx", cfg.Document.URL)
	assert.Equal(t, "http://localhost:8000/api/v1/document/callback?filename=brief.docx", cfg.EditorConfig.CallbackURL)
	assert.Equal(t, fixedNow.Add(5*time.Minute).Unix(), cfg.Exp)
	assert.Equal(t, "100%", cfg.Width)
	assert.Equal(t, "100%", cfg.Height)
	assert.Equal(t, "desktop", cfg.Type)
	assert.Equal(t, "word", cfg.DocumentType)
	assert.Equal(t, cfg.Token, cfg.Document.Token)
	assert.Equal(t, cfg.Token, cfg.EditorConfig.Token)
	require.NotNil(t, cfg.EditorConfig.Customization)
	assert.Equal(t, models.EditorCustomization{ForceSave: true, UITheme: "theme-dark", Zoom: -2}, *cfg.EditorConfig.Customization)

	// The token signs the document, callback and expiry only
	claims := parseEditorToken(t, cfg.Token)
	doc := claims["document"].(map[string]any)
	assert.Equal(t, cfg.Document.Key, doc["key"])
	assert.NotContains(t, doc, "token")
	editor := claims["editorConfig"].(map[string]any)
	assert.Equal(t, cfg.EditorConfig.CallbackURL, editor["callbackUrl"])
	assert.NotContains(t, editor, "customization")
	assert.Equal(t, float64(cfg.Exp), claims["exp"])
}

func TestEditorService_BuildConfig_New(t *testing.T) {
	svc, st := newTestEditorService(t)
	ctx := context.Background()
	req := EditorRequest{FileType: "new", BaseURL: "http://app", Theme: "light"}

	first, err := svc.BuildConfig(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "http://app/uploads/Document.docx", first.Document.URL)
	assert.Equal(t, "Untitled Document", first.Document.Title)
	assert.Equal(t, "docx", first.Document.FileType)

	second, err := svc.BuildConfig(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "http://app/api/v1/document/callback?filename=Document%281%29.docx", second.EditorConfig.CallbackURL)
	assert.NotEqual(t, first.Document.Key, second.Document.Key)

	// Both placeholders are valid, empty Word documents
	for _, name := range []string{"uploads/Document.docx", "uploads/Document(1).docx"} {
		rc, err := st.Download(ctx, name)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)
		var names []string
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		assert.Contains(t, names, "word/document.xml")
	}
}

func TestEditorService_BuildConfig_Rejects(t *testing.T) {
	svc, _ := newTestEditorService(t)
	ctx := context.Background()

	_, err := svc.BuildConfig(ctx, EditorRequest{FileType: "new", BaseURL: "http://app"})
	assert.ErrorIs(t, err, ErrMissingEditorFields)

	_, err = svc.BuildConfig(ctx, EditorRequest{FileType: "docx", Title: "x", FileName: "x.docx", BaseURL: "http://app", Theme: "dark"})
	assert.ErrorIs(t, err, ErrMissingEditorFields)

	_, err = svc.BuildConfig(ctx, EditorRequest{FileType: "docx", Title: "x", FileName: "../x.docx", DocumentType: "word", BaseURL: "http://app", Theme: "dark"})
	assert.ErrorIs(t, err, ErrInvalidFilename)

	noSecret, _ := newTestEditorService(t, EditorWithSecret(""))
	_, err = noSecret.BuildConfig(ctx, EditorRequest{FileType: "new", BaseURL: "http://app", Theme: "dark"})
	assert.ErrorIs(t, err, ErrEditorSecretMissing)
}

func signCallbackToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"status": 2}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestEditorService_HandleCallback(t *testing.T) {
	token := signCallbackToken(t, testEditorSecret)
	onlyoffice := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("edited content"))
	}))
	defer onlyoffice.Close()

	svc, st := newTestEditorService(t)
	ctx := context.Background()

	saved, err := svc.HandleCallback(ctx, "brief.docx", models.EditorCallback{Status: 2, URL: onlyoffice.URL, Token: token})
	require.NoError(t, err)
	assert.True(t, saved)

	rc, err := svc.OpenDocument(ctx, "brief.docx")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "edited content", string(data))

	exists, err := st.Exists(ctx, "uploads/brief.docx")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEditorService_HandleCallback_Ignored(t *testing.T) {
	svc, _ := newTestEditorService(t)

	for _, status := range []int{0, 1, 4, 5} {
		saved, err := svc.HandleCallback(context.Background(), "", models.EditorCallback{Status: status})
		assert.NoError(t, err)
		assert.False(t, saved)
	}
}

func TestEditorService_HandleCallback_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer failing.Close()

	svc, _ := newTestEditorService(t)
	ctx := context.Background()

	_, err := svc.HandleCallback(ctx, "", models.EditorCallback{Status: 6, URL: failing.URL})
	assert.ErrorIs(t, err, ErrMissingCallbackFields)

	_, err = svc.HandleCallback(ctx, "a.docx", models.EditorCallback{Status: 6})
	assert.ErrorIs(t, err, ErrMissingCallbackFields)

	_, err = svc.HandleCallback(ctx, "../a.docx", models.EditorCallback{Status: 6, URL: failing.URL})
	assert.ErrorIs(t, err, ErrInvalidFilename)

	_, err = svc.HandleCallback(ctx, "a.docx", models.EditorCallback{Status: 7, URL: failing.URL, Token: signCallbackToken(t, "other")})
	assert.ErrorIs(t, err, ErrInvalidEditorToken)

	_, err = svc.HandleCallback(ctx, "a.docx", models.EditorCallback{Status: 3, URL: failing.URL})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "status 403"))
}

func TestEditorService_HandleCallback_RejectsOversizedDocument(t *testing.T) {
	onlyoffice := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 11))
	}))
	defer onlyoffice.Close()

	svc, st := newTestEditorService(t, EditorWithMaxDownload(10))
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, "uploads/brief.docx", strings.NewReader("original")))

	saved, err := svc.HandleCallback(ctx, "brief.docx", models.EditorCallback{Status: 2, URL: onlyoffice.URL})
	assert.ErrorIs(t, err, ErrEditorDocumentTooLarge)
	assert.False(t, saved)

	rc, err := svc.OpenDocument(ctx, "brief.docx")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "original", string(data))

	// Exactly at the cap is accepted
	exact := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("y"), 10))
	}))
	defer exact.Close()

	saved, err = svc.HandleCallback(ctx, "brief.docx", models.EditorCallback{Status: 2, URL: exact.URL})
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestEditorService_OpenDocumentRejectsTraversal(t *testing.T) {
	svc, _ := newTestEditorService(t)
	_, err := svc.OpenDocument(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidFilename)
}
