package continuity

// PageBlock is one block slot of a projected page. Invisible blocks still
// occupy their measured height so that the visible block keeps the exact
// position it has in the full-history document.
type PageBlock struct {
	VisitID string `json:"visit_id"`
	Visible bool   `json:"visible"`
}

// Projection is the "print only this visit" view of a page plan: the single
// page holding the current visit, with every other block kept in place but
// marked invisible, and page chrome (letterhead, headers, separators, notes)
// suppressed without being removed.
type Projection struct {
	PageIndex  int         `json:"page_index"`
	PageIDs    []string    `json:"page_ids"`
	Blocks     []PageBlock `json:"blocks"`
	HideChrome bool        `json:"hide_chrome"`
}

// ProjectCurrentOnly locates the page containing currentVisitID and returns
// it with visibility flags. If the id is on no page (which the resolver's
// invariants rule out) the first page is returned.
func ProjectCurrentOnly(pages [][]string, currentVisitID string) Projection {
	pageIndex := 0
	for i, page := range pages {
		for _, id := range page {
			if id == currentVisitID {
				pageIndex = i
			}
		}
	}

	var ids []string
	if pageIndex < len(pages) {
		ids = pages[pageIndex]
	}
	blocks := make([]PageBlock, len(ids))
	for i, id := range ids {
		blocks[i] = PageBlock{VisitID: id, Visible: id == currentVisitID}
	}
	return Projection{
		PageIndex:  pageIndex,
		PageIDs:    ids,
		Blocks:     blocks,
		HideChrome: true,
	}
}
