package continuity

// PageCaps holds the usable content heights of the printed page, in pixels of
// the fixed physical page format. The first page is shorter because it
// carries the clinic letterhead. SafetyMargin absorbs sub-pixel measurement
// error and is subtracted from every capacity check.
type PageCaps struct {
	First        float64
	Next         float64
	SafetyMargin float64
}

// backfillPasses bounds the repacking loop. Two pages never need more than a
// handful of passes; three matches the worst chains seen in practice.
const backfillPasses = 3

// Paginate distributes chainIDs across pages so that no block is ever split
// between two pages. heights is parallel to chainIDs (measured pixel heights
// including inter-block margins). When hasNotes is set, notesHeight is
// reserved on the last page before blocks are assigned to it.
//
// The result is a partition of chainIDs: every id appears exactly once and
// the original relative order is preserved across pages. A block taller than
// a whole page is still placed, alone, on an overflowing page.
func Paginate(chainIDs []string, heights []float64, caps PageCaps, notesHeight float64, hasNotes bool) [][]string {
	if len(chainIDs) == 0 {
		return nil
	}
	if len(heights) != len(chainIDs) {
		// Partially measured chain; callers treat this as measurement-not-ready.
		return [][]string{append([]string(nil), chainIDs...)}
	}

	heightOf := make(map[string]float64, len(chainIDs))
	for i, id := range chainIDs {
		heightOf[id] = heights[i]
	}

	// Greedy forward pass.
	var pages [][]string
	var page []string
	used := 0.0
	capacity := caps.First
	for i, id := range chainIDs {
		if len(page) > 0 && used+heights[i] > capacity-caps.SafetyMargin {
			pages = append(pages, page)
			page = nil
			used = 0
			capacity = caps.Next
		}
		page = append(page, id)
		used += heights[i]
	}
	if len(page) > 0 {
		pages = append(pages, page)
	}

	// Backfill: pull leading blocks of each page back onto the previous one
	// while they fit. Greedy breaks early when a single large block closes a
	// page that still had room for the smaller blocks behind it.
	for pass := 0; pass < backfillPasses; pass++ {
		moved := false
		for p := 0; p+1 < len(pages); p++ {
			capacity := caps.Next
			if p == 0 {
				capacity = caps.First
			}
			for len(pages[p+1]) > 0 {
				head := pages[p+1][0]
				if pageHeight(pages[p], heightOf)+heightOf[head] > capacity-caps.SafetyMargin {
					break
				}
				pages[p] = append(pages[p], head)
				pages[p+1] = pages[p+1][1:]
				moved = true
			}
		}
		pages = dropEmpty(pages)
		if !moved {
			break
		}
	}

	// Notes live on the last page only; its usable capacity shrinks by the
	// notes height. Blocks that no longer fit move to a trailing page.
	if hasNotes && notesHeight > 0 {
		for {
			last := len(pages) - 1
			capacity := caps.Next
			if last == 0 {
				capacity = caps.First
			}
			if pageHeight(pages[last], heightOf)+notesHeight <= capacity-caps.SafetyMargin {
				break
			}
			var trailing []string
			for len(pages[last]) > 1 &&
				pageHeight(pages[last], heightOf)+notesHeight > capacity-caps.SafetyMargin {
				n := len(pages[last])
				trailing = append([]string{pages[last][n-1]}, trailing...)
				pages[last] = pages[last][:n-1]
			}
			if len(trailing) == 0 {
				// A single block plus notes overflows the page; nothing left
				// to move, so the page overflows rather than losing content.
				break
			}
			pages = append(pages, trailing)
		}
	}

	return pages
}

func pageHeight(ids []string, heightOf map[string]float64) float64 {
	total := 0.0
	for _, id := range ids {
		total += heightOf[id]
	}
	return total
}

func dropEmpty(pages [][]string) [][]string {
	out := pages[:0]
	for _, p := range pages {
		if len(p) > 0 {
			out = append(out, p)
		}
	}
	return out
}
