package continuity

import "sort"

// Chain is the ordered, deduplicated, time-truncated list of visits relevant
// to viewing one visit's prescription history. Metas is parallel to IDs;
// visits with no known record are represented by a placeholder carrying only
// the id.
type Chain struct {
	IDs      []string
	Metas    []VisitMeta
	AnchorID string
}

// ResolveChain reconstructs the continuity chain for currentVisitID from the
// patient's visit records. override, when non-nil, is the freshest record of
// the current visit and takes precedence over whatever all contains for the
// same id.
//
// The chain starts at the anchor visit (the current visit itself unless it is
// a follow-up, in which case its anchor), continues through the anchor's
// follow-ups in creation order, and is truncated after the current visit so
// that follow-ups created later never leak into the printed history.
func ResolveChain(all []VisitMeta, override *VisitMeta, currentVisitID string) Chain {
	byID := make(map[string]VisitMeta, len(all)+1)
	sourceIDs := make([]string, 0, len(all)+1)
	for _, v := range all {
		if v.VisitID == "" {
			continue
		}
		if _, seen := byID[v.VisitID]; !seen {
			sourceIDs = append(sourceIDs, v.VisitID)
		}
		byID[v.VisitID] = v
	}
	if override != nil && override.VisitID != "" {
		if _, seen := byID[override.VisitID]; !seen {
			sourceIDs = append(sourceIDs, override.VisitID)
		}
		byID[override.VisitID] = *override
	}

	current, haveCurrent := byID[currentVisitID]
	anchorID := ""
	if haveCurrent {
		if current.Tag == TagFollowUp {
			anchorID = current.AnchorVisitID
		} else {
			anchorID = currentVisitID
		}
	}
	if anchorID == "" {
		// Not enough metadata to walk the episode; the current visit stands alone.
		return Chain{
			IDs:   []string{currentVisitID},
			Metas: []VisitMeta{metaOrPlaceholder(byID, currentVisitID)},
		}
	}

	var chain []VisitMeta
	if anchor, ok := byID[anchorID]; ok {
		chain = append(chain, anchor)
	}

	// Follow-ups of the anchor, in creation order. Scanning sourceIDs rather
	// than the map keeps ties in source order.
	var followUps []VisitMeta
	for _, id := range sourceIDs {
		v := byID[id]
		if v.AnchorVisitID == anchorID && v.VisitID != anchorID {
			followUps = append(followUps, v)
		}
	}
	sort.SliceStable(followUps, func(i, j int) bool {
		return createdBefore(followUps[i], followUps[j])
	})
	chain = append(chain, followUps...)

	if !containsID(chain, currentVisitID) {
		chain = append(chain, metaOrPlaceholder(byID, currentVisitID))
	}

	// Re-normalize order after the unconditional append, then dedup keeping
	// first occurrence.
	sort.SliceStable(chain, func(i, j int) bool {
		return createdBefore(chain[i], chain[j])
	})
	deduped := chain[:0:0]
	seen := make(map[string]bool, len(chain))
	for _, v := range chain {
		if seen[v.VisitID] {
			continue
		}
		seen[v.VisitID] = true
		deduped = append(deduped, v)
	}

	// Truncate after the current visit: anything created later is future
	// history from the viewpoint of the visit being printed.
	cut := len(deduped)
	for i, v := range deduped {
		if v.VisitID == currentVisitID {
			cut = i + 1
			break
		}
	}
	deduped = deduped[:cut]

	ids := make([]string, len(deduped))
	for i, v := range deduped {
		ids[i] = v.VisitID
	}
	return Chain{IDs: ids, Metas: deduped, AnchorID: anchorID}
}

// createdBefore orders visits by CreatedAt, tie-broken by UpdatedAt (0 when
// unknown). Full ties keep source order via the stable sorts above.
func createdBefore(a, b VisitMeta) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.UpdatedAt < b.UpdatedAt
}

func containsID(metas []VisitMeta, id string) bool {
	for _, v := range metas {
		if v.VisitID == id {
			return true
		}
	}
	return false
}

func metaOrPlaceholder(byID map[string]VisitMeta, id string) VisitMeta {
	if v, ok := byID[id]; ok {
		return v
	}
	return VisitMeta{VisitID: id}
}
