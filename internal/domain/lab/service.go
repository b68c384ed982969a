package lab

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/ward/internal/platform/apperr"
	"github.com/ehr/ward/internal/platform/blobstore"
)

type Service struct {
	repo  Repository
	blobs blobstore.BlobStore
}

func NewService(repo Repository, blobs blobstore.BlobStore) *Service {
	return &Service{repo: repo, blobs: blobs}
}

func normalize(r *Result) error {
	if r.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if _, err := time.Parse(time.DateOnly, r.Date); err != nil {
		return apperr.Validation("date must be a date formatted YYYY-MM-DD")
	}
	if r.ResultType == "" {
		r.ResultType = TypeQuantitative
	}
	if !validTypes[r.ResultType] {
		return apperr.Validation("invalid result_type: %q", r.ResultType)
	}
	if strings.TrimSpace(r.Category) == "" {
		r.Category = CategoryGeneral
	}
	return nil
}

func validateResult(r *Result) error {
	if err := normalize(r); err != nil {
		return err
	}
	if strings.TrimSpace(r.TestName) == "" {
		return apperr.Validation("test_name is required")
	}
	switch r.ResultType {
	case TypeQuantitative:
		if r.Value == nil {
			return apperr.Validation("value is required for quantitative results")
		}
	case TypeQualitative:
		if strings.TrimSpace(r.TextValue) == "" {
			return apperr.Validation("text_value is required for qualitative results")
		}
		r.Value = nil
	}
	return nil
}

func (s *Service) CreateResult(ctx context.Context, r *Result) error {
	if err := validateResult(r); err != nil {
		return err
	}
	return s.repo.Create(ctx, r)
}

// ImportResult stores a result copied from a bed lab section. It applies
// the defaults of CreateResult but accepts whatever value the section held.
func (s *Service) ImportResult(ctx context.Context, r *Result) error {
	if err := normalize(r); err != nil {
		return err
	}
	return s.repo.Create(ctx, r)
}

func (s *Service) GetResult(ctx context.Context, id uuid.UUID) (*Result, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, resultType string) ([]*Result, error) {
	if resultType != "" && !validTypes[resultType] {
		return nil, apperr.Validation("invalid result_type: %q", resultType)
	}
	return s.repo.ListByPatient(ctx, patientID, resultType)
}

func (s *Service) UpdateResult(ctx context.Context, id uuid.UUID, in *ResultInput) (*Result, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(r)
	if err := validateResult(r); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) DeleteResult(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ChartableTests lists the distinct test names that have at least one
// numeric value, sorted alphabetically.
func (s *Service) ChartableTests(ctx context.Context, patientID uuid.UUID) ([]string, error) {
	items, err := s.repo.ListByPatient(ctx, patientID, TypeQuantitative)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	names := []string{}
	for _, r := range items {
		if r.Value == nil || seen[r.TestName] {
			continue
		}
		seen[r.TestName] = true
		names = append(names, r.TestName)
	}
	sort.Strings(names)
	return names, nil
}

// Trend returns the numeric readings of testName in ascending date order.
func (s *Service) Trend(ctx context.Context, patientID uuid.UUID, testName string) ([]TrendPoint, error) {
	if strings.TrimSpace(testName) == "" {
		return nil, apperr.Validation("test is required")
	}
	items, err := s.repo.ListByPatient(ctx, patientID, TypeQuantitative)
	if err != nil {
		return nil, err
	}
	var picked []*Result
	for _, r := range items {
		if r.Value != nil && r.TestName == testName {
			picked = append(picked, r)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].Date != picked[j].Date {
			return picked[i].Date < picked[j].Date
		}
		return picked[i].CreatedAt.Before(picked[j].CreatedAt)
	})
	points := make([]TrendPoint, 0, len(picked))
	for _, r := range picked {
		points = append(points, TrendPoint{Date: r.Date, Value: *r.Value, Unit: r.Unit, IsAbnormal: r.IsAbnormal})
	}
	return points, nil
}

// AttachFile stores content in the blob store and links it to the result.
func (s *Service) AttachFile(ctx context.Context, id uuid.UUID, fileName, contentType, uploadedBy string, content io.Reader) (*Result, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    fileName,
		ContentType: contentType,
		PatientID:   r.PatientID.String(),
		Category:    blobstore.CategoryLabReport,
		CreatedBy:   uploadedBy,
	}, content)
	if err != nil {
		return nil, err
	}
	r.FileName = meta.FileName
	r.FileURL = meta.URL
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
