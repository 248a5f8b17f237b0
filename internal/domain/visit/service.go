package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dentiq/dentiq/internal/continuity"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateVisit(ctx context.Context, v *Visit) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.VisitID == "" {
		v.VisitID = uuid.NewString()
	}
	if v.Tag == "" {
		v.Tag = TagNew
	}
	if v.Tag != TagNew && v.Tag != TagFollowUp {
		return fmt.Errorf("invalid tag: %s", v.Tag)
	}
	if v.Tag == TagFollowUp {
		if v.AnchorVisitID == nil || *v.AnchorVisitID == "" {
			return fmt.Errorf("follow-up visit requires anchor_visit_id")
		}
		if *v.AnchorVisitID == v.VisitID {
			return fmt.Errorf("visit cannot anchor to itself")
		}
		if _, err := s.repo.GetByVisitID(ctx, v.PatientID, *v.AnchorVisitID); err != nil {
			return fmt.Errorf("anchor visit %s not found: %w", *v.AnchorVisitID, err)
		}
	}
	if v.VisitDate.IsZero() {
		v.VisitDate = time.Now().UTC()
	}
	if v.CreatedAt == 0 {
		v.CreatedAt = time.Now().UTC().UnixMilli()
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetVisitByVisitID(ctx context.Context, patientID uuid.UUID, visitID string) (*Visit, error) {
	return s.repo.GetByVisitID(ctx, patientID, visitID)
}

func (s *Service) UpdateVisit(ctx context.Context, v *Visit) error {
	if v.Tag == TagFollowUp {
		if v.AnchorVisitID == nil || *v.AnchorVisitID == "" {
			return fmt.Errorf("follow-up visit requires anchor_visit_id")
		}
		if *v.AnchorVisitID == v.VisitID {
			return fmt.Errorf("visit cannot anchor to itself")
		}
	}
	now := time.Now().UTC().UnixMilli()
	v.UpdatedAt = &now
	return s.repo.Update(ctx, v)
}

func (s *Service) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListVisits(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// MetasForPatient loads every visit of the patient projected into the shape
// chain resolution consumes.
func (s *Service) MetasForPatient(ctx context.Context, patientID uuid.UUID) ([]continuity.VisitMeta, error) {
	visits, _, err := s.repo.ListByPatient(ctx, patientID, 10000, 0)
	if err != nil {
		return nil, err
	}
	metas := make([]continuity.VisitMeta, 0, len(visits))
	for _, v := range visits {
		metas = append(metas, v.Meta())
	}
	return metas, nil
}

// ImportResult summarizes a bulk import of legacy visit records.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportVisits normalizes and stores raw records exported from older clinic
// software. Records that cannot be normalized are skipped, not fatal; the
// caller gets a per-record error list.
func (s *Service) ImportVisits(ctx context.Context, patientID uuid.UUID, raw []map[string]interface{}) (*ImportResult, error) {
	res := &ImportResult{}
	for i, record := range raw {
		v, err := Normalize(record)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		v.PatientID = patientID
		if existing, err := s.repo.GetByVisitID(ctx, patientID, v.VisitID); err == nil && existing != nil {
			res.Skipped++
			continue
		}
		if err := s.repo.Create(ctx, v); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("record %d (%s): %v", i, v.VisitID, err))
			continue
		}
		res.Imported++
	}
	return res, nil
}
