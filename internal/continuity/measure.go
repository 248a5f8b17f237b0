package continuity

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
)

var (
	// ErrNoSurface marks environments without layout capability (headless
	// batch jobs, tests without a fake surface). Callers fall back to the
	// unpaginated single-page plan; this is a degraded mode, not a failure.
	ErrNoSurface = errors.New("continuity: no rendering surface available")

	// ErrStale marks a measurement whose inputs changed while it was in
	// flight. Its results must be discarded, never applied.
	ErrStale = errors.New("continuity: measurement superseded by newer inputs")
)

// Surface is the host rendering surface's measurement primitive: it lays a
// subtree out off-screen and reports settled pixel heights in the coordinate
// space of the fixed physical page.
type Surface interface {
	// PageCapacities reports the usable content heights of the first page
	// (letterhead present) and of continuation pages.
	PageCapacities(ctx context.Context) (first, next float64, err error)
	// BlockHeight reports the settled height of one chain block laid out
	// exactly as it would appear on a live page, inter-block margin included.
	BlockHeight(ctx context.Context, b Block) (float64, error)
	// NotesHeight reports the height of the trailing notes section, or 0 for
	// empty notes.
	NotesHeight(ctx context.Context, notes string) (float64, error)
	// WaitSettled blocks until fonts are loaded and layout is stable enough
	// for heights to be trusted.
	WaitSettled(ctx context.Context) error
}

// Measurements is one settled measurement pass over a chain. Key identifies
// the inputs it was computed against; consumers must verify the key still
// matches their inputs before trusting the heights.
type Measurements struct {
	FirstPageCapacity float64
	NextPageCapacity  float64
	NotesHeight       float64
	BlockHeights      []float64
	Key               string
	Generation        uint64
}

// settlePasses bounds how many times a measurement re-runs waiting for two
// consecutive passes to agree.
const settlePasses = 3

// Measurer runs off-screen measurement passes against a Surface. Staleness is
// scoped to a pass's own inputs: Invalidate, or a newer Measure call for the
// same snapshot, supersedes an in-flight pass, which then returns ErrStale.
// Passes over unrelated inputs never interact, so one Measurer is safe to
// share across concurrent renders.
type Measurer struct {
	surface Surface

	mu     sync.Mutex
	passes map[string]*passState
}

// passState tracks the in-flight passes for one snapshot key. The entry is
// removed once the last pass drains.
type passState struct {
	gen      uint64
	inflight int
}

func NewMeasurer(surface Surface) *Measurer {
	return &Measurer{surface: surface}
}

// Invalidate discards any in-flight measurement of the given inputs. Wire it
// to the host's relayout/content-change observer.
func (m *Measurer) Invalidate(blocks []Block, notes string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st := m.passes[SnapshotKey(blocks, notes)]; st != nil {
		st.gen++
	}
}

func (m *Measurer) begin(key string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.passes == nil {
		m.passes = make(map[string]*passState)
	}
	st := m.passes[key]
	if st == nil {
		st = &passState{}
		m.passes[key] = st
	}
	st.gen++
	st.inflight++
	return st.gen
}

// finish reports whether the pass that started at gen is still the newest for
// its snapshot, dropping the bookkeeping entry once every pass has drained.
func (m *Measurer) finish(key string, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.passes[key]
	if st == nil {
		return false
	}
	st.inflight--
	if st.inflight <= 0 {
		delete(m.passes, key)
	}
	return st.gen == gen
}

// Measure renders every block of the chain once, plus the notes section and
// both page skeletons, and returns the settled heights. The continuation
// skeleton is skipped when includeContinuation is false (the no-history path
// never paginates, so it only needs the first page).
func (m *Measurer) Measure(ctx context.Context, blocks []Block, notes string, includeContinuation bool) (Measurements, error) {
	if m == nil || m.surface == nil {
		return Measurements{}, ErrNoSurface
	}
	key := SnapshotKey(blocks, notes)
	gen := m.begin(key)

	res, err := m.settle(ctx, blocks, notes, includeContinuation)
	if !m.finish(key, gen) {
		return Measurements{}, ErrStale
	}
	if err != nil {
		return Measurements{}, err
	}
	res.Key = key
	res.Generation = gen
	return res, nil
}

// settle re-measures until two consecutive passes agree; fonts and async
// content may settle after the first layout.
func (m *Measurer) settle(ctx context.Context, blocks []Block, notes string, includeContinuation bool) (Measurements, error) {
	if err := m.surface.WaitSettled(ctx); err != nil {
		return Measurements{}, fmt.Errorf("wait for layout: %w", err)
	}

	prev, err := m.pass(ctx, blocks, notes, includeContinuation)
	if err != nil {
		return Measurements{}, err
	}
	for i := 0; i < settlePasses; i++ {
		if err := m.surface.WaitSettled(ctx); err != nil {
			return Measurements{}, fmt.Errorf("wait for layout: %w", err)
		}
		cur, err := m.pass(ctx, blocks, notes, includeContinuation)
		if err != nil {
			return Measurements{}, err
		}
		converged := passesEqual(prev, cur)
		prev = cur
		if converged {
			break
		}
	}
	return prev, nil
}

func (m *Measurer) pass(ctx context.Context, blocks []Block, notes string, includeContinuation bool) (Measurements, error) {
	first, next, err := m.surface.PageCapacities(ctx)
	if err != nil {
		return Measurements{}, fmt.Errorf("measure page skeletons: %w", err)
	}
	if !includeContinuation {
		next = first
	}

	heights := make([]float64, len(blocks))
	for i, b := range blocks {
		h, err := m.surface.BlockHeight(ctx, b)
		if err != nil {
			return Measurements{}, fmt.Errorf("measure block %s: %w", b.VisitID, err)
		}
		heights[i] = h
	}

	notesHeight := 0.0
	if notes != "" {
		if notesHeight, err = m.surface.NotesHeight(ctx, notes); err != nil {
			return Measurements{}, fmt.Errorf("measure notes: %w", err)
		}
	}

	return Measurements{
		FirstPageCapacity: first,
		NextPageCapacity:  next,
		NotesHeight:       notesHeight,
		BlockHeights:      heights,
	}, nil
}

func passesEqual(a, b Measurements) bool {
	if a.FirstPageCapacity != b.FirstPageCapacity ||
		a.NextPageCapacity != b.NextPageCapacity ||
		a.NotesHeight != b.NotesHeight ||
		len(a.BlockHeights) != len(b.BlockHeights) {
		return false
	}
	for i := range a.BlockHeights {
		if a.BlockHeights[i] != b.BlockHeights[i] {
			return false
		}
	}
	return true
}

// SnapshotKey fingerprints the measurement inputs: chain identity, per-block
// line and tooth-detail counts, current flag, and notes length. Anything that
// changes one of these requires a fresh measurement.
func SnapshotKey(blocks []Block, notes string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "n%d|", len(notes))
	for _, b := range blocks {
		fmt.Fprintf(h, "%s:%d:%d:%t|", b.VisitID, len(b.Lines), len(b.ToothDetails), b.Current)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
