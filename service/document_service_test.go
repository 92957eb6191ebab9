package service

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"legalresearch-backend/models"
	"legalresearch-backend/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDocumentStore struct {
	docs      map[uuid.UUID]*models.Document
	order     []uuid.UUID
	createErr error
}

func newMemoryDocumentStore() *memoryDocumentStore {
	return &memoryDocumentStore{docs: map[uuid.UUID]*models.Document{}}
}

func (m *memoryDocumentStore) Create(_ context.Context, doc *models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.CreatedAt = time.Now()
	stored := *doc
	m.docs[doc.ID] = &stored
	m.order = append(m.order, doc.ID)
	return nil
}

func (m *memoryDocumentStore) GetByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *memoryDocumentStore) List(_ context.Context, userID *uuid.UUID, limit, offset int) ([]*models.Document, error) {
	var out []*models.Document
	for i := len(m.order) - 1; i >= 0; i-- {
		doc, ok := m.docs[m.order[i]]
		if !ok {
			continue
		}
		if userID != nil && (doc.UserID == nil || *doc.UserID != *userID) {
			continue
		}
		copied := *doc
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memoryDocumentStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.docs, id)
	return nil
}

func newTestDocumentService(t *testing.T, opts ...DocumentServiceOption) (*DocumentService, *memoryDocumentStore, storage.Storage) {
	t.Helper()
	svc, store, st, _ := newTestDocumentServiceAt(t, opts...)
	return svc, store, st
}

func newTestDocumentServiceAt(t *testing.T, opts ...DocumentServiceOption) (*DocumentService, *memoryDocumentStore, storage.Storage, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	store := newMemoryDocumentStore()

	opts = append([]DocumentServiceOption{
		DocumentWithStore(store),
		DocumentWithStorage(st),
		DocumentWithLogger(quietLogger()),
	}, opts...)
	return NewDocumentService(opts...), store, st, dir
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func TestDocumentService_UploadAndOpen(t *testing.T) {
	svc, _, _ := newTestDocumentService(t)
	ctx := context.Background()
	user := uuid.New()

	doc, err := svc.Upload(ctx, UploadRequest{
		Filename:    "Mémoire d'appel.pdf",
		ContentType: "application/pdf",
		Size:        9,
		Data:        strings.NewReader("%PDF-1.4\n"),
		UserID:      &user,
	})
	require.NoError(t, err)

	assert.Equal(t, "Memoire_dappel.pdf", doc.Filename)
	assert.Equal(t, "Mémoire d'appel.pdf", doc.OriginalFilename)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.Equal(t, int64(9), doc.FileSize)
	assert.Equal(t, models.ProcessingCompleted, doc.ProcessingStatus)
	assert.Contains(t, doc.FilePath, doc.ID.String())

	got, reader, err := svc.Open(ctx, doc.ID)
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n", string(body))
	assert.Equal(t, doc.ID, got.ID)

	docs, err := svc.List(ctx, ListDocumentsRequest{UserID: &user})
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestDocumentService_UploadRejects(t *testing.T) {
	svc, store, _ := newTestDocumentService(t, DocumentWithMaxFileSize(4))
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadRequest{Filename: "a.pdf", ContentType: "application/pdf", Size: 5, Data: strings.NewReader("12345")})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// Declared size lies, the content is still capped
	_, err = svc.Upload(ctx, UploadRequest{Filename: "a.pdf", ContentType: "application/pdf", Size: 1, Data: strings.NewReader("12345")})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.Upload(ctx, UploadRequest{Filename: "a.png", ContentType: "image/png", Size: 1, Data: strings.NewReader("1")})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	assert.Empty(t, store.docs)
}

func TestDocumentService_UploadCleansUpOnRecordFailure(t *testing.T) {
	svc, store, _, dir := newTestDocumentServiceAt(t)
	store.createErr = errors.New("db down")

	_, err := svc.Upload(context.Background(), UploadRequest{
		Filename: "notes.txt",
		Size:     2,
		Data:     strings.NewReader("hi"),
	})
	require.Error(t, err)

	assert.Empty(t, store.docs)
	assert.Zero(t, countFiles(t, dir))
}

func TestDocumentService_SaveGeneratedAndDelete(t *testing.T) {
	svc, store, st := newTestDocumentService(t)
	ctx := context.Background()

	doc, err := svc.SaveGenerated(ctx, "Brief final.docx", []byte("docx"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.Equal(t, "documents/"+doc.ID.String()+"/Brief_final.docx", doc.FilePath)
	assert.Equal(t, "Brief_final.docx", doc.Filename)
	assert.Equal(t, "Brief final.docx", doc.OriginalFilename)

	exists, err := st.Exists(ctx, doc.FilePath)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, svc.Delete(ctx, doc.ID))
	assert.Empty(t, store.docs)
	exists, err = st.Exists(ctx, doc.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, svc.Delete(ctx, doc.ID), ErrDocumentNotFound)
}

func TestDocumentService_SaveGeneratedSameNameKeepsBothFiles(t *testing.T) {
	svc, _, _ := newTestDocumentService(t)
	ctx := context.Background()

	first, err := svc.SaveGenerated(ctx, "brief.docx", []byte("AAAA"), nil)
	require.NoError(t, err)
	second, err := svc.SaveGenerated(ctx, "brief.docx", []byte("BBBB"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.FilePath, second.FilePath)

	readDoc := func(id uuid.UUID) string {
		t.Helper()
		_, rc, err := svc.Open(ctx, id)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, "AAAA", readDoc(first.ID))
	assert.Equal(t, "BBBB", readDoc(second.ID))

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.Equal(t, "BBBB", readDoc(second.ID))
}

func TestDocumentService_ListEmpty(t *testing.T) {
	svc, _, _ := newTestDocumentService(t)

	docs, err := svc.List(context.Background(), ListDocumentsRequest{})
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "text/plain", DetectContentType("a.txt", "text/plain; charset=utf-8"))
	assert.Equal(t, "application/rtf", DetectContentType("a.rtf", ""))
	assert.Equal(t, "application/pdf", DetectContentType("a.PDF", "application/octet-stream"))
	assert.Equal(t, "image/png", DetectContentType("a.pdf", "image/png"))
}

func TestDocumentService_OpenMissing(t *testing.T) {
	svc, _, _ := newTestDocumentService(t)
	_, _, err := svc.Open(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
