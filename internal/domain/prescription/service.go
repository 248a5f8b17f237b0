package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dentiq/dentiq/internal/continuity"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByVisit(ctx context.Context, patientID uuid.UUID, visitID string) (*Prescription, error) {
	return s.repo.GetByVisit(ctx, patientID, visitID)
}

func (s *Service) UpdatePrescription(ctx context.Context, p *Prescription) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// LinesForVisit returns the rendering-shape lines for a visit's prescription.
// A visit without a prescription yields no lines and no error.
func (s *Service) LinesForVisit(ctx context.Context, patientID uuid.UUID, visitID string) ([]continuity.Line, error) {
	p, err := s.repo.GetByVisit(ctx, patientID, visitID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.RenderLines(), nil
}

func (s *Service) validate(p *Prescription) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.VisitID == "" {
		return fmt.Errorf("visit_id is required")
	}
	if len(p.Lines) == 0 && len(p.Teeth) == 0 {
		return fmt.Errorf("prescription needs at least one line or tooth detail")
	}
	for i, l := range p.Lines {
		if strings.TrimSpace(l.Medicine) == "" {
			return fmt.Errorf("line %d: medicine is required", i)
		}
	}
	for i, td := range p.Teeth {
		if !ValidFDITooth(td.Tooth) {
			return fmt.Errorf("tooth detail %d: invalid FDI tooth number %q", i, td.Tooth)
		}
		if strings.TrimSpace(td.Procedure) == "" {
			return fmt.Errorf("tooth detail %d: procedure is required", i)
		}
	}
	return nil
}
