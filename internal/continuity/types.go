// Package continuity implements prescription continuity rendering for the
// clinic's printable prescription sheets: reconstructing the chain of
// clinically-related visits behind a prescription, and laying the chain's
// content out across fixed-size pages without ever splitting one visit's
// block between two pages. Everything here is pure computation over plain
// data; fetching, drawing, and persistence belong to the callers.
package continuity

import "time"

// Tag classifies a visit within a care episode.
type Tag string

const (
	TagNew      Tag = "NEW"
	TagFollowUp Tag = "FOLLOWUP"
)

// VisitMeta is the canonical, normalized view of a visit record that the
// resolver operates on. Store-side field aliases are mapped to this shape
// before the data reaches this package.
type VisitMeta struct {
	VisitID       string    `json:"visit_id"`
	AnchorVisitID string    `json:"anchor_visit_id,omitempty"`
	Tag           Tag       `json:"tag,omitempty"`
	CreatedAt     int64     `json:"created_at"` // unix milliseconds, creation order
	UpdatedAt     int64     `json:"updated_at,omitempty"`
	VisitDate     time.Time `json:"visit_date"`
	Reason        string    `json:"reason,omitempty"`
}

// Line is one medicine row of a prescription block.
type Line struct {
	Medicine     string `json:"medicine"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// ToothDetail is one tooth/procedure row, FDI notation.
type ToothDetail struct {
	Tooth     string `json:"tooth"`
	Procedure string `json:"procedure"`
	Note      string `json:"note,omitempty"`
}

// Block is the renderable unit for one visit in a chain. A block is atomic:
// the paginator never splits it across pages.
type Block struct {
	VisitID      string        `json:"visit_id"`
	VisitDate    time.Time     `json:"visit_date"`
	Reason       string        `json:"reason,omitempty"`
	Lines        []Line        `json:"lines"`
	ToothDetails []ToothDetail `json:"tooth_details,omitempty"`
	Current      bool          `json:"current"`
}
