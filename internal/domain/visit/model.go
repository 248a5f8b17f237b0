package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/dentiq/dentiq/internal/continuity"
)

// Visit tags. A follow-up visit points at its anchor via AnchorVisitID.
const (
	TagNew      = "NEW"
	TagFollowUp = "FOLLOWUP"
)

// Visit maps to the visit table. VisitID is the human-facing identifier used
// on printed prescriptions and in continuity chains; ID is the row key.
type Visit struct {
	ID            uuid.UUID `db:"id" json:"id"`
	VisitID       string    `db:"visit_id" json:"visit_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	AnchorVisitID *string   `db:"anchor_visit_id" json:"anchor_visit_id,omitempty"`
	Tag           string    `db:"tag" json:"tag"`
	OPDNumber     *string   `db:"opd_number" json:"opd_number,omitempty"`
	VisitDate     time.Time `db:"visit_date" json:"visit_date"`
	Reason        *string   `db:"reason" json:"reason,omitempty"`
	DoctorName    *string   `db:"doctor_name" json:"doctor_name,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     int64     `db:"created_at_ms" json:"created_at"`
	UpdatedAt     *int64    `db:"updated_at_ms" json:"updated_at,omitempty"`
}

// Meta projects the visit into the chain-resolution shape.
func (v *Visit) Meta() continuity.VisitMeta {
	m := continuity.VisitMeta{
		VisitID:   v.VisitID,
		Tag:       continuity.Tag(v.Tag),
		CreatedAt: v.CreatedAt,
		VisitDate: v.VisitDate,
	}
	if v.AnchorVisitID != nil {
		m.AnchorVisitID = *v.AnchorVisitID
	}
	if v.UpdatedAt != nil {
		m.UpdatedAt = *v.UpdatedAt
	}
	if v.Reason != nil {
		m.Reason = *v.Reason
	}
	return m
}

// IsFollowUp reports whether the visit is tagged as a follow-up.
func (v *Visit) IsFollowUp() bool { return v.Tag == TagFollowUp }
