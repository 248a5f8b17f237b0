package continuity

import (
	"reflect"
	"testing"
)

var testCaps = PageCaps{First: 700, Next: 900, SafetyMargin: 10}

func TestPaginate_GreedySplit(t *testing.T) {
	ids := []string{"b1", "b2", "b3"}
	heights := []float64{300, 300, 300}

	pages := Paginate(ids, heights, testCaps, 0, false)

	want := [][]string{{"b1", "b2"}, {"b3"}}
	if !reflect.DeepEqual(pages, want) {
		t.Fatalf("expected %v, got %v", want, pages)
	}
}

func TestPaginate_BackfillRespectsSafetyMargin(t *testing.T) {
	// Greedy leaves page 1 sparse after the 600px block; backfill tries to
	// pull b2 back but 600+100=700 exceeds 700-10.
	ids := []string{"b1", "b2", "b3"}
	heights := []float64{600, 100, 100}

	pages := Paginate(ids, heights, testCaps, 0, false)

	want := [][]string{{"b1"}, {"b2", "b3"}}
	if !reflect.DeepEqual(pages, want) {
		t.Fatalf("expected %v, got %v", want, pages)
	}
}

func TestPaginate_BackfillPullsFittingBlocks(t *testing.T) {
	ids := []string{"b1", "b2", "b3"}
	heights := []float64{500, 100, 100}

	pages := Paginate(ids, heights, testCaps, 0, false)

	// 500+100+100 = 700 > 690 so greedy splits after b2; backfill cannot
	// pull b3 (700 > 690) either.
	want := [][]string{{"b1", "b2"}, {"b3"}}
	if !reflect.DeepEqual(pages, want) {
		t.Fatalf("expected %v, got %v", want, pages)
	}

	heights = []float64{500, 100, 80}
	pages = Paginate(ids, heights, testCaps, 0, false)
	want = [][]string{{"b1", "b2", "b3"}}
	if !reflect.DeepEqual(pages, want) {
		t.Fatalf("expected %v, got %v", want, pages)
	}
}

func TestPaginate_OversizedBlockStillPlaced(t *testing.T) {
	ids := []string{"huge"}
	heights := []float64{5000}

	pages := Paginate(ids, heights, testCaps, 0, false)

	if len(pages) != 1 || len(pages[0]) != 1 || pages[0][0] != "huge" {
		t.Fatalf("expected oversized block alone on one page, got %v", pages)
	}
}

func TestPaginate_OversizedBlockAmongOthers(t *testing.T) {
	ids := []string{"a", "huge", "b"}
	heights := []float64{100, 2000, 100}

	pages := Paginate(ids, heights, testCaps, 0, false)

	want := [][]string{{"a"}, {"huge"}, {"b"}}
	if !reflect.DeepEqual(pages, want) {
		t.Fatalf("expected %v, got %v", want, pages)
	}
}

func TestPaginate_PartitionProperty(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	heights := []float64{250, 410, 120, 680, 90, 330, 505}

	pages := Paginate(ids, heights, testCaps, 0, false)

	var flat []string
	for _, p := range pages {
		flat = append(flat, p...)
	}
	if !reflect.DeepEqual(flat, ids) {
		t.Fatalf("pages are not an order-preserving partition: %v", pages)
	}
}

func TestPaginate_AtomicityProperty(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	heights := []float64{300, 150, 620, 90, 330, 410}
	heightOf := make(map[string]float64)
	for i, id := range ids {
		heightOf[id] = heights[i]
	}

	pages := Paginate(ids, heights, testCaps, 0, false)

	for p, page := range pages {
		capacity := testCaps.Next
		if p == 0 {
			capacity = testCaps.First
		}
		total := 0.0
		for _, id := range page {
			total += heightOf[id]
		}
		if len(page) > 1 && total > capacity-testCaps.SafetyMargin {
			t.Errorf("page %d overfull: %v totals %g against cap %g", p, page, total, capacity)
		}
	}
}

func TestPaginate_NotesOnLastPage(t *testing.T) {
	ids := []string{"a", "b"}
	heights := []float64{300, 300}

	// 600 + 200 notes > 690: b must move to a trailing page with the notes.
	pages := Paginate(ids, heights, testCaps, 200, true)

	want := [][]string{{"a"}, {"b"}}
	if !reflect.DeepEqual(pages, want) {
		t.Fatalf("expected %v, got %v", want, pages)
	}

	// Trailing page: 300 + 200 <= 890, notes fit.
	if 300.0+200.0 > testCaps.Next-testCaps.SafetyMargin {
		t.Fatal("test fixture broken: notes cannot fit at all")
	}
}

func TestPaginate_NotesFitWithoutMove(t *testing.T) {
	ids := []string{"a", "b"}
	heights := []float64{200, 200}

	pages := Paginate(ids, heights, testCaps, 150, true)

	want := [][]string{{"a", "b"}}
	if !reflect.DeepEqual(pages, want) {
		t.Fatalf("expected %v, got %v", want, pages)
	}
}

func TestPaginate_Idempotent(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	heights := []float64{410, 330, 220, 540, 160}

	first := Paginate(ids, heights, testCaps, 120, true)
	second := Paginate(ids, heights, testCaps, 120, true)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("pagination not idempotent: %v vs %v", first, second)
	}
}

func TestPaginate_HeightMismatchFallsBackToSinglePage(t *testing.T) {
	ids := []string{"a", "b", "c"}
	heights := []float64{100, 100} // partial measurement

	pages := Paginate(ids, heights, testCaps, 0, false)

	want := [][]string{{"a", "b", "c"}}
	if !reflect.DeepEqual(pages, want) {
		t.Fatalf("expected single-page fallback, got %v", pages)
	}
}

func TestPaginate_Empty(t *testing.T) {
	if pages := Paginate(nil, nil, testCaps, 0, false); pages != nil {
		t.Fatalf("expected nil pages for empty chain, got %v", pages)
	}
}

func TestProjectCurrentOnly_SecondPage(t *testing.T) {
	pages := [][]string{{"a", "b"}, {"c", "d"}}

	proj := ProjectCurrentOnly(pages, "d")

	if proj.PageIndex != 1 {
		t.Fatalf("expected page index 1, got %d", proj.PageIndex)
	}
	if !reflect.DeepEqual(proj.PageIDs, []string{"c", "d"}) {
		t.Fatalf("expected page ids [c d], got %v", proj.PageIDs)
	}
	for _, b := range proj.Blocks {
		if b.VisitID == "d" && !b.Visible {
			t.Error("current block must be visible")
		}
		if b.VisitID != "d" && b.Visible {
			t.Errorf("block %s must be present but invisible", b.VisitID)
		}
	}
	if !proj.HideChrome {
		t.Error("expected chrome suppressed in current-only mode")
	}
}

func TestProjectCurrentOnly_MissingIDDefaultsToFirstPage(t *testing.T) {
	pages := [][]string{{"a"}, {"b"}}

	proj := ProjectCurrentOnly(pages, "zz")

	if proj.PageIndex != 0 {
		t.Fatalf("expected fallback to page 0, got %d", proj.PageIndex)
	}
	if !reflect.DeepEqual(proj.PageIDs, []string{"a"}) {
		t.Fatalf("expected page ids [a], got %v", proj.PageIDs)
	}
}
