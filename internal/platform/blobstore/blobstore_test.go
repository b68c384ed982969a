package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

const testBaseURL = "http://localhost:8000/api/v1/attachments"

func stores(t *testing.T) map[string]BlobStore {
	t.Helper()
	dir, err := NewDirBlobStore(t.TempDir(), testBaseURL)
	if err != nil {
		t.Fatalf("NewDirBlobStore: %v", err)
	}
	return map[string]BlobStore{
		"memory": NewInMemoryBlobStore(testBaseURL),
		"dir":    dir,
	}
}

func TestUploadDownload(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			meta, err := store.Upload(ctx, BlobMetadata{
				FileName:    "hemograma.pdf",
				ContentType: "application/pdf",
				PatientID:   "p-1",
			}, strings.NewReader("%PDF-1.4 content"))
			if err != nil {
				t.Fatalf("Upload: %v", err)
			}
			if meta.ID == "" || meta.Hash == "" {
				t.Fatalf("expected id and hash, got %+v", meta)
			}
			if meta.URL != testBaseURL+"/"+meta.ID {
				t.Errorf("unexpected url %s", meta.URL)
			}
			if meta.Category != CategoryLabReport {
				t.Errorf("expected default category, got %s", meta.Category)
			}

			rc, got, err := store.Download(ctx, meta.ID)
			if err != nil {
				t.Fatalf("Download: %v", err)
			}
			defer rc.Close()
			body, _ := io.ReadAll(rc)
			if string(body) != "%PDF-1.4 content" {
				t.Errorf("unexpected content %q", body)
			}
			if got.FileName != "hemograma.pdf" {
				t.Errorf("unexpected file name %s", got.FileName)
			}

			list, err := store.ListByPatient(ctx, "p-1")
			if err != nil || len(list) != 1 {
				t.Fatalf("ListByPatient = %d items, err %v", len(list), err)
			}

			if err := store.Delete(ctx, meta.ID); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := store.GetMetadata(ctx, meta.ID); !errors.Is(err, ErrBlobNotFound) {
				t.Errorf("expected ErrBlobNotFound after delete, got %v", err)
			}
		})
	}
}

func TestUpload_Rejections(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Upload(ctx, BlobMetadata{ContentType: "application/pdf"}, strings.NewReader("x"))
			if !errors.Is(err, ErrMissingFileName) {
				t.Errorf("expected ErrMissingFileName, got %v", err)
			}
			_, err = store.Upload(ctx, BlobMetadata{FileName: "a.exe", ContentType: "application/x-msdownload"}, strings.NewReader("x"))
			if !errors.Is(err, ErrInvalidContentType) {
				t.Errorf("expected ErrInvalidContentType, got %v", err)
			}
			big := bytes.NewReader(make([]byte, MaxFileSize+1))
			_, err = store.Upload(ctx, BlobMetadata{FileName: "big.pdf", ContentType: "application/pdf"}, big)
			if !errors.Is(err, ErrFileTooLarge) {
				t.Errorf("expected ErrFileTooLarge, got %v", err)
			}
		})
	}
}

func TestDirBlobStore_RejectsPathIDs(t *testing.T) {
	store, err := NewDirBlobStore(t.TempDir(), testBaseURL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetMetadata(context.Background(), "../../etc/passwd"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestBlobHandler_Download(t *testing.T) {
	store := NewInMemoryBlobStore(testBaseURL)
	meta, err := store.Upload(context.Background(), BlobMetadata{FileName: "orina.png", ContentType: "image/png"}, strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}

	h := NewBlobHandler(store)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(meta.ID)

	if err := h.handleDownload(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
}

func TestBlobHandler_NotFound(t *testing.T) {
	h := NewBlobHandler(NewInMemoryBlobStore(testBaseURL))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := h.handleGetMetadata(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}
