package continuity

import "context"

// ContentSource supplies renderable prescription content for chain blocks.
// The current visit's content is already loaded by the caller; historical
// visits are fetched lazily, one call per non-current chain id.
type ContentSource interface {
	CurrentLines() []Line
	CurrentToothDetails() []ToothDetail
	LinesForVisit(ctx context.Context, visitID string) ([]Line, error)
}

// BuildBlocks assembles one Block per chain entry, in chain order. The
// current visit's lines and tooth details come straight from the source's
// loaded snapshot; other visits get their lines fetched. A failed fetch
// degrades that block to an empty one rather than failing the whole chain.
func BuildBlocks(ctx context.Context, chain Chain, currentVisitID string, src ContentSource) ([]Block, error) {
	blocks := make([]Block, 0, len(chain.IDs))
	for _, meta := range chain.Metas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := Block{
			VisitID:   meta.VisitID,
			VisitDate: meta.VisitDate,
			Reason:    meta.Reason,
		}
		if meta.VisitID == currentVisitID {
			b.Current = true
			b.Lines = src.CurrentLines()
			b.ToothDetails = src.CurrentToothDetails()
		} else {
			lines, err := src.LinesForVisit(ctx, meta.VisitID)
			if err == nil {
				b.Lines = lines
			}
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
