package continuity

import (
	"context"
	"strings"
)

// Fixed A4 portrait geometry at 96dpi. The physical page format is a
// configuration constant of the system, not negotiated at runtime.
const (
	pageHeightPx = 1123
	pageMarginPx = 57 // 15mm top and bottom

	letterheadPx         = 170 // clinic letterhead, first page only
	patientHeaderPx      = 64  // patient / doctor header row, first page only
	continuationHeaderPx = 36  // slim "continued" strip on later pages

	blockHeaderPx = 30 // visit date + reason row
	linePx        = 22 // one medicine row
	wrappedRowPx  = 18 // extra row when instructions wrap under a medicine
	toothTitlePx  = 24
	toothRowPx    = 20
	blockGapPx    = 14 // inter-block margin, measured as part of the block

	notesTitlePx    = 26
	notesLinePx     = 18
	notesWrapChars  = 92
	reasonWrapChars = 90
)

// MetricsSurface is the deterministic server-side rendering surface: it
// computes settled heights from fixed font metrics instead of a live layout
// engine. Layout is always settled, so WaitSettled returns immediately.
type MetricsSurface struct{}

func NewMetricsSurface() *MetricsSurface {
	return &MetricsSurface{}
}

func (s *MetricsSurface) PageCapacities(ctx context.Context) (first, next float64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	usable := float64(pageHeightPx - 2*pageMarginPx)
	first = usable - letterheadPx - patientHeaderPx
	next = usable - continuationHeaderPx
	return first, next, nil
}

func (s *MetricsSurface) BlockHeight(ctx context.Context, b Block) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	h := float64(blockHeaderPx)
	h += float64(wrappedLines(b.Reason, reasonWrapChars)-1) * wrappedRowPx
	for _, line := range b.Lines {
		h += linePx
		if line.Instructions != "" {
			h += wrappedRowPx
		}
	}
	if len(b.ToothDetails) > 0 {
		h += toothTitlePx + float64(len(b.ToothDetails))*toothRowPx
	}
	h += blockGapPx
	return h, nil
}

func (s *MetricsSurface) NotesHeight(ctx context.Context, notes string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(notes) == "" {
		return 0, nil
	}
	return notesTitlePx + float64(wrappedLines(notes, notesWrapChars))*notesLinePx, nil
}

func (s *MetricsSurface) WaitSettled(ctx context.Context) error {
	return ctx.Err()
}

// wrappedLines approximates how many rows text occupies at the given wrap
// width. Explicit newlines wrap too.
func wrappedLines(text string, width int) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 1
	}
	rows := 0
	for _, part := range strings.Split(text, "\n") {
		n := len([]rune(part))
		if n == 0 {
			rows++
			continue
		}
		rows += (n + width - 1) / width
	}
	return rows
}
