package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DirBlobStore writes each blob as <id>.bin next to an <id>.json metadata file.
type DirBlobStore struct {
	dir     string
	baseURL string
}

func NewDirBlobStore(dir, baseURL string) (*DirBlobStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create attachment dir %s: %w", dir, err)
	}
	return &DirBlobStore{dir: dir, baseURL: baseURL}, nil
}

func (s *DirBlobStore) path(id, ext string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrBlobNotFound
	}
	return filepath.Join(s.dir, id+ext), nil
}

func (s *DirBlobStore) Upload(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	meta, data, err := prepare(meta, content, s.baseURL)
	if err != nil {
		return nil, err
	}

	binPath, _ := s.path(meta.ID, ".bin")
	if err := os.WriteFile(binPath, data, 0o640); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	metaPath, _ := s.path(meta.ID, ".json")
	if err := os.WriteFile(metaPath, raw, 0o640); err != nil {
		os.Remove(binPath)
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	return &meta, nil
}

func (s *DirBlobStore) Download(ctx context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	meta, err := s.GetMetadata(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	binPath, _ := s.path(id, ".bin")
	f, err := os.Open(binPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open blob: %w", err)
	}
	return f, meta, nil
}

func (s *DirBlobStore) Delete(_ context.Context, id string) error {
	metaPath, err := s.path(id, ".json")
	if err != nil {
		return err
	}
	if err := os.Remove(metaPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("remove metadata: %w", err)
	}
	binPath, _ := s.path(id, ".bin")
	if err := os.Remove(binPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

func (s *DirBlobStore) GetMetadata(_ context.Context, id string) (*BlobMetadata, error) {
	metaPath, err := s.path(id, ".json")
	if err != nil {
		return nil, err
	}
	return readMetadata(metaPath)
}

func readMetadata(path string) (*BlobMetadata, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta BlobMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", filepath.Base(path), err)
	}
	return &meta, nil
}

// ListByPatient scans every metadata file. The directory store is meant for
// single-ward volumes.
func (s *DirBlobStore) ListByPatient(_ context.Context, patientID string) ([]*BlobMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read attachment dir: %w", err)
	}

	var matched []*BlobMetadata
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		meta, err := readMetadata(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if meta.PatientID == patientID {
			matched = append(matched, meta)
		}
	}
	sortNewestFirst(matched)
	return matched, nil
}
