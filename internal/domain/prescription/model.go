package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/dentiq/dentiq/internal/continuity"
)

// Prescription maps to the prescription table: one record per visit holding
// the medicine lines and tooth-wise procedure details written that day.
type Prescription struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	PatientID uuid.UUID     `db:"patient_id" json:"patient_id"`
	VisitID   string        `db:"visit_id" json:"visit_id"`
	Lines     []Line        `db:"-" json:"lines"`
	Teeth     []ToothDetail `db:"-" json:"tooth_details,omitempty"`
	Notes     *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// Line maps to the prescription_line table.
type Line struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Medicine       string    `db:"medicine" json:"medicine"`
	Dosage         *string   `db:"dosage" json:"dosage,omitempty"`
	Frequency      *string   `db:"frequency" json:"frequency,omitempty"`
	Duration       *string   `db:"duration" json:"duration,omitempty"`
	Instructions   *string   `db:"instructions" json:"instructions,omitempty"`
	Position       int       `db:"position" json:"position"`
}

// ToothDetail maps to the prescription_tooth table. Tooth uses FDI two-digit
// notation.
type ToothDetail struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Tooth          string    `db:"tooth" json:"tooth"`
	Procedure      string    `db:"procedure" json:"procedure"`
	Note           *string   `db:"note" json:"note,omitempty"`
}

// RenderLines projects the prescription's lines into the rendering shape, in
// stored order.
func (p *Prescription) RenderLines() []continuity.Line {
	lines := make([]continuity.Line, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, continuity.Line{
			Medicine:     l.Medicine,
			Dosage:       strVal(l.Dosage),
			Frequency:    strVal(l.Frequency),
			Duration:     strVal(l.Duration),
			Instructions: strVal(l.Instructions),
		})
	}
	return lines
}

// RenderTeeth projects the tooth details into the rendering shape.
func (p *Prescription) RenderTeeth() []continuity.ToothDetail {
	teeth := make([]continuity.ToothDetail, 0, len(p.Teeth))
	for _, td := range p.Teeth {
		teeth = append(teeth, continuity.ToothDetail{
			Tooth:     td.Tooth,
			Procedure: td.Procedure,
			Note:      strVal(td.Note),
		})
	}
	return teeth
}

// ValidFDITooth reports whether the code is a legal FDI tooth number:
// permanent quadrants 11-18, 21-28, 31-38, 41-48 or deciduous 51-55, 61-65,
// 71-75, 81-85.
func ValidFDITooth(code string) bool {
	if len(code) != 2 {
		return false
	}
	q, p := code[0], code[1]
	switch {
	case q >= '1' && q <= '4':
		return p >= '1' && p <= '8'
	case q >= '5' && q <= '8':
		return p >= '1' && p <= '5'
	}
	return false
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
