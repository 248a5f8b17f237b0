package printing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dentiq/dentiq/internal/continuity"
	"github.com/dentiq/dentiq/internal/domain/prescription"
)

// VisitSource supplies the patient's visit records in chain-resolution shape.
type VisitSource interface {
	MetasForPatient(ctx context.Context, patientID uuid.UUID) ([]continuity.VisitMeta, error)
}

// ContentStore supplies per-visit prescription content.
type ContentStore interface {
	GetByVisit(ctx context.Context, patientID uuid.UUID, visitID string) (*prescription.Prescription, error)
}

// Service assembles print plans: it resolves the continuity chain, loads
// prescription content for every chain member, measures it, and paginates.
type Service struct {
	visits       VisitSource
	content      ContentStore
	measurer     *continuity.Measurer
	safetyMargin float64
}

func NewService(visits VisitSource, content ContentStore, measurer *continuity.Measurer, safetyMargin float64) *Service {
	return &Service{
		visits:       visits,
		content:      content,
		measurer:     measurer,
		safetyMargin: safetyMargin,
	}
}

// Options control plan assembly. History mirrors the clinic UI's "print with
// history" toggle; Mode selects between the full layout and the current-only
// projection of that same layout.
type Options struct {
	History bool
	Mode    string // "full" or "current"
}

// BlockView is one rendered visit block in a plan page.
type BlockView struct {
	VisitID      string                   `json:"visit_id"`
	VisitDate    time.Time                `json:"visit_date"`
	Reason       string                   `json:"reason,omitempty"`
	Lines        []continuity.Line        `json:"lines"`
	ToothDetails []continuity.ToothDetail `json:"tooth_details,omitempty"`
	Current      bool                     `json:"current"`
	Visible      bool                     `json:"visible"`
}

// PageView is one printed page of the plan.
type PageView struct {
	Index  int         `json:"index"`
	Blocks []BlockView `json:"blocks"`
}

// PlanResponse is the print-plan payload the rendering client consumes.
type PlanResponse struct {
	PatientID      string     `json:"patient_id"`
	CurrentVisitID string     `json:"current_visit_id"`
	AnchorID       string     `json:"anchor_id,omitempty"`
	Mode           string     `json:"mode"`
	Pages          []PageView `json:"pages"`
	Notes          string     `json:"notes,omitempty"`
	NotesOnLast    bool       `json:"notes_on_last"`
	HideChrome     bool       `json:"hide_chrome"`
	Degraded       bool       `json:"degraded"`
}

// contentSource adapts the prescription store to the block builder. The
// current visit's prescription is pre-loaded; historical visits are fetched
// on demand.
type contentSource struct {
	store     ContentStore
	patientID uuid.UUID
	current   *prescription.Prescription
}

func (cs *contentSource) CurrentLines() []continuity.Line {
	if cs.current == nil {
		return nil
	}
	return cs.current.RenderLines()
}

func (cs *contentSource) CurrentToothDetails() []continuity.ToothDetail {
	if cs.current == nil {
		return nil
	}
	return cs.current.RenderTeeth()
}

func (cs *contentSource) LinesForVisit(ctx context.Context, visitID string) ([]continuity.Line, error) {
	p, err := cs.store.GetByVisit(ctx, cs.patientID, visitID)
	if err != nil {
		return nil, err
	}
	return p.RenderLines(), nil
}

// BuildPlan produces the full print plan for a visit. Measurement failures
// never fail the request: the plan degrades to a single unmeasured page and
// self-corrects on the next call.
func (s *Service) BuildPlan(ctx context.Context, patientID uuid.UUID, visitID string, opts Options) (*PlanResponse, error) {
	metas, err := s.visits.MetasForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	var currentMeta *continuity.VisitMeta
	for i := range metas {
		if metas[i].VisitID == visitID {
			currentMeta = &metas[i]
			break
		}
	}

	var chain continuity.Chain
	if opts.History {
		chain = continuity.ResolveChain(metas, nil, visitID)
	} else {
		// Collapse to the current visit alone but keep its own metadata.
		chain = continuity.ResolveChain(nil, currentMeta, visitID)
	}

	current, err := s.content.GetByVisit(ctx, patientID, visitID)
	if err != nil {
		// A visit without a prescription still renders an empty block.
		current = nil
	}

	src := &contentSource{store: s.content, patientID: patientID, current: current}
	blocks, err := continuity.BuildBlocks(ctx, chain, visitID, src)
	if err != nil {
		return nil, err
	}

	notes := ""
	if current != nil && current.Notes != nil {
		notes = *current.Notes
	}

	var m continuity.Measurements
	if s.measurer != nil {
		measured, err := s.measurer.Measure(ctx, blocks, notes, len(chain.IDs) > 1)
		switch {
		case err == nil:
			m = measured
		case errors.Is(err, continuity.ErrNoSurface), errors.Is(err, continuity.ErrStale):
			// Leave m zero; the planner falls back to a degraded plan.
		default:
			return nil, err
		}
	}

	planIn := continuity.PlanInput{
		Visits:         metas,
		CurrentVisitID: visitID,
		ShowHistory:    opts.History,
		Blocks:         blocks,
		Notes:          notes,
		Measurements:   m,
		SafetyMargin:   s.safetyMargin,
	}
	if !opts.History {
		planIn.Override = currentMeta
	}
	plan := continuity.ComputePagePlan(planIn)

	return s.assemble(patientID, visitID, opts, chain, blocks, notes, plan), nil
}

func (s *Service) assemble(patientID uuid.UUID, visitID string, opts Options, chain continuity.Chain, blocks []continuity.Block, notes string, plan continuity.PagePlan) *PlanResponse {
	blockByID := make(map[string]continuity.Block, len(blocks))
	for _, b := range blocks {
		blockByID[b.VisitID] = b
	}

	resp := &PlanResponse{
		PatientID:      patientID.String(),
		CurrentVisitID: visitID,
		AnchorID:       plan.AnchorID,
		Mode:           opts.Mode,
		Notes:          notes,
		NotesOnLast:    notes != "",
		Degraded:       plan.Degraded,
	}

	if opts.Mode == "current" {
		proj := continuity.ProjectCurrentOnly(plan.Pages, visitID)
		resp.HideChrome = proj.HideChrome
		page := PageView{Index: proj.PageIndex}
		for _, pb := range proj.Blocks {
			view := blockView(blockByID[pb.VisitID])
			view.Visible = pb.Visible
			page.Blocks = append(page.Blocks, view)
		}
		resp.Pages = []PageView{page}
		return resp
	}

	for i, ids := range plan.Pages {
		page := PageView{Index: i}
		for _, id := range ids {
			view := blockView(blockByID[id])
			view.Visible = true
			page.Blocks = append(page.Blocks, view)
		}
		resp.Pages = append(resp.Pages, page)
	}
	return resp
}

func blockView(b continuity.Block) BlockView {
	return BlockView{
		VisitID:      b.VisitID,
		VisitDate:    b.VisitDate,
		Reason:       b.Reason,
		Lines:        b.Lines,
		ToothDetails: b.ToothDetails,
		Current:      b.Current,
	}
}
