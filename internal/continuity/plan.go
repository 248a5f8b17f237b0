package continuity

// DefaultSafetyMargin is the height buffer subtracted from page capacities to
// absorb sub-pixel measurement error, in pixels. The config layer applies it;
// ComputePagePlan takes whatever margin it is handed, including zero.
const DefaultSafetyMargin = 12.0

// PlanInput carries everything ComputePagePlan needs. ShowHistory mirrors the
// clinic UI's "print with history" toggle as an explicit input: when false the
// chain collapses to the current visit alone and no real pagination happens.
type PlanInput struct {
	Visits         []VisitMeta
	Override       *VisitMeta
	CurrentVisitID string
	ShowHistory    bool
	Blocks         []Block // parallel to the resolved chain
	Notes          string
	Measurements   Measurements
	SafetyMargin   float64 // pixels held back from each page; negatives clamp to 0
}

// PagePlan is the pagination result: an ordered list of pages, each an
// ordered list of chain ids. Degraded marks the single-page fallback used
// when measurement was unavailable, partial, or stale; it self-corrects on
// the next successful measurement pass.
type PagePlan struct {
	ChainIDs []string   `json:"chain_ids"`
	AnchorID string     `json:"anchor_id,omitempty"`
	Pages    [][]string `json:"pages"`
	Degraded bool       `json:"degraded"`
}

// ComputePagePlan is the composed entry point: chain resolution followed by
// pagination, with every degraded path of the measurement contract handled.
// It is pure and idempotent; identical inputs always produce identical plans.
func ComputePagePlan(in PlanInput) PagePlan {
	var chain Chain
	if in.ShowHistory {
		chain = ResolveChain(in.Visits, in.Override, in.CurrentVisitID)
	} else {
		// History off still honors the override so the lone block keeps the
		// current visit's real metadata.
		chain = ResolveChain(nil, in.Override, in.CurrentVisitID)
	}

	margin := in.SafetyMargin
	if margin < 0 {
		margin = 0
	}

	m := in.Measurements
	if !measurementsUsable(m, chain, in.Blocks, in.Notes) {
		return PagePlan{
			ChainIDs: chain.IDs,
			AnchorID: chain.AnchorID,
			Pages:    [][]string{append([]string(nil), chain.IDs...)},
			Degraded: true,
		}
	}

	pages := Paginate(chain.IDs, m.BlockHeights, PageCaps{
		First:        m.FirstPageCapacity,
		Next:         m.NextPageCapacity,
		SafetyMargin: margin,
	}, m.NotesHeight, in.Notes != "")

	return PagePlan{
		ChainIDs: chain.IDs,
		AnchorID: chain.AnchorID,
		Pages:    pages,
	}
}

// measurementsUsable rejects measurements that are absent, partial (height
// count does not match the chain), or computed against different inputs.
// All of these are transient states during async settling, not errors.
func measurementsUsable(m Measurements, chain Chain, blocks []Block, notes string) bool {
	if m.FirstPageCapacity <= 0 {
		return false
	}
	if len(m.BlockHeights) != len(chain.IDs) {
		return false
	}
	if m.Key != "" && m.Key != SnapshotKey(blocks, notes) {
		return false
	}
	return true
}
