package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"revstore/internal/compress"
	"revstore/internal/textdiff"
)

// ErrRevisionNotFound reports a revision id absent from the graph, or a
// date query with no revision at or before it.
var ErrRevisionNotFound = errors.New("revision not found")

// Codec maps a user value to and from its canonical text. Encodings must be
// deterministic: equal values must yield byte-equal text, and decoding must
// round-trip exactly for the values the store accepts, because revision
// identity is a hash of the encoded form.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(s string) (T, error)
}

// Compressor is a lossless text-to-text compressor for stored patch blobs.
// Decompress must invert Compress for blobs produced by the same version.
type Compressor interface {
	Compress(s string) string
	Decompress(s string) (string, error)
}

// Patch is a portable compressed patch between two revisions, suitable for
// exchange between stores.
type Patch struct {
	Data string `json:"data" yaml:"data"`
}

// Size reports the compressed footprint. For interoperability comparisons
// prefer the length of the decompressed portable text.
func (p Patch) Size() int { return len(p.Data) }

type settings struct {
	comp   Compressor
	engine *textdiff.Engine
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Repository at construction time.
type Option func(*settings)

// WithCompressor replaces the default zstd patch-blob compressor.
func WithCompressor(c Compressor) Option { return func(s *settings) { s.comp = c } }

// WithEngine replaces the default diff/match/patch engine.
func WithEngine(e *textdiff.Engine) Option { return func(s *settings) { s.engine = e } }

// WithLogger attaches a logger; compaction and fuzzy-apply events are
// reported at debug/warn. The default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(s *settings) { s.logger = l } }

// WithClock overrides the time source used for snapshot timestamps.
func WithClock(now func() time.Time) Option { return func(s *settings) { s.now = now } }

// Repository is the caller-facing store: an append-only history of
// revisions of a single value, delta-compressed behind the scenes.
// It is not safe for concurrent use; each store belongs to one caller.
type Repository[T any] struct {
	codec Codec[T]
	comp  Compressor
	eng   *textdiff.Engine
	log   zerolog.Logger
	now   func() time.Time

	history []string
	snaps   map[string]snapshot
}

// New builds an empty repository around the given codec.
func New[T any](codec Codec[T], opts ...Option) *Repository[T] {
	s := settings{
		comp:   compress.Zstd{},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(&s)
	}
	if s.engine == nil {
		eng := textdiff.NewEngine()
		// Stored deltas favor fewer, larger hunks over minimal scripts.
		eng.DiffEditCost = 6
		s.engine = eng
	}
	return &Repository[T]{
		codec: codec,
		comp:  s.comp,
		eng:   s.engine,
		log:   s.logger,
		now:   s.now,
		snaps: make(map[string]snapshot),
	}
}

// Snapshot records v as the newest revision and returns its id. If the
// previous head can be rewritten as a smaller reverse delta against the new
// text, it is compacted; compaction never fails the call, it is simply
// skipped when it cannot win.
func (r *Repository[T]) Snapshot(v T) (string, error) {
	text, err := r.codec.Encode(v)
	if err != nil {
		return "", fmt.Errorf("codec: %w", err)
	}
	rev := hashText(text)
	r.snaps[rev] = &completeSnapshot{rev: rev, at: r.now(), text: text}
	r.history = append(r.history, rev)
	if len(r.history) > 1 {
		r.compactPrevious(rev, text)
	}
	return rev, nil
}

// compactPrevious tries to rewrite the predecessor of the just-appended
// revision as a reverse delta keyed on it.
func (r *Repository[T]) compactPrevious(rev, text string) {
	prevRev := r.history[len(r.history)-2]
	if prevRev == rev {
		return
	}
	prev := r.snaps[prevRev]
	prevText, err := r.resolveText(prevRev)
	if err != nil {
		r.log.Warn().Err(err).Str("revision", prevRev).Msg("skipping compaction")
		return
	}
	patches := r.eng.MakePatches(text, prevText)
	blob := r.comp.Compress(textdiff.PatchesToText(patches))
	cand := &deltaSnapshot{rev: prevRev, at: prev.created(), futureRev: rev, blob: blob}
	if cand.size() >= prev.size() {
		r.log.Debug().
			Str("revision", prevRev).
			Str("size", humanize.Bytes(uint64(prev.size()))).
			Msg("kept complete snapshot")
		return
	}
	r.log.Debug().
		Str("revision", prevRev).
		Str("delta", humanize.Bytes(uint64(cand.size()))).
		Str("gain", humanize.Bytes(uint64(prev.size()-cand.size()))).
		Msg("compacted snapshot to reverse delta")
	r.snaps[prevRev] = cand
}

// Restore reconstructs and decodes the value at rev.
func (r *Repository[T]) Restore(rev string) (T, error) {
	var zero T
	text, err := r.resolveText(rev)
	if err != nil {
		return zero, err
	}
	v, err := r.codec.Decode(text)
	if err != nil {
		return zero, fmt.Errorf("codec: %w", err)
	}
	return v, nil
}

// resolveText walks forward through reverse deltas to the nearest complete
// snapshot and applies patches backward to rebuild the revision's text.
func (r *Repository[T]) resolveText(rev string) (string, error) {
	return r.resolve(rev, make(map[string]bool))
}

func (r *Repository[T]) resolve(rev string, seen map[string]bool) (string, error) {
	if seen[rev] {
		return "", fmt.Errorf("delta chain cycle at revision %s", rev)
	}
	seen[rev] = true
	snap, ok := r.snaps[rev]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
	}
	switch s := snap.(type) {
	case *completeSnapshot:
		return s.text, nil
	case *deltaSnapshot:
		futureText, err := r.resolve(s.futureRev, seen)
		if err != nil {
			return "", err
		}
		patchText, err := r.comp.Decompress(s.blob)
		if err != nil {
			return "", fmt.Errorf("revision %s: %w", rev, err)
		}
		patches, err := textdiff.PatchesFromText(patchText)
		if err != nil {
			return "", fmt.Errorf("revision %s: %w", rev, err)
		}
		text, results := r.eng.ApplyPatches(patches, futureText)
		for _, applied := range results {
			if !applied {
				// Each stored delta was computed against the exact text of
				// its future revision, so a miss here means the graph is
				// corrupt.
				return "", fmt.Errorf("revision %s: delta did not apply cleanly against %s", rev, s.futureRev)
			}
		}
		return text, nil
	}
	return "", fmt.Errorf("revision %s: unknown snapshot kind", rev)
}

// PatchBetween builds a portable compressed patch that transforms the value
// at rev1 into the value at rev2.
func (r *Repository[T]) PatchBetween(rev1, rev2 string) (Patch, error) {
	text1, err := r.resolveText(rev1)
	if err != nil {
		return Patch{}, err
	}
	text2, err := r.resolveText(rev2)
	if err != nil {
		return Patch{}, err
	}
	patches := r.eng.MakePatches(text1, text2)
	return Patch{Data: r.comp.Compress(textdiff.PatchesToText(patches))}, nil
}

// ApplyPatch applies an external patch to the latest revision with fuzzy
// tolerance, snapshots the result, and returns the new value. Hunks that
// fail to apply are logged and skipped; they never abort the batch.
func (r *Repository[T]) ApplyPatch(p Patch) (T, error) {
	var zero T
	if len(r.history) == 0 {
		return zero, fmt.Errorf("%w: empty history", ErrRevisionNotFound)
	}
	text, err := r.resolveText(r.LatestRev())
	if err != nil {
		return zero, err
	}
	patchText, err := r.comp.Decompress(p.Data)
	if err != nil {
		return zero, err
	}
	patches, err := textdiff.PatchesFromText(patchText)
	if err != nil {
		return zero, err
	}
	newText, results := r.eng.ApplyPatches(patches, text)
	for i, applied := range results {
		if !applied {
			r.log.Warn().Int("hunk", i).Msg("patch hunk did not apply")
		}
	}
	v, err := r.codec.Decode(newText)
	if err != nil {
		return zero, fmt.Errorf("codec: %w", err)
	}
	if _, err := r.Snapshot(v); err != nil {
		return zero, err
	}
	return v, nil
}

// History returns the revision ids in snapshot order.
func (r *Repository[T]) History() []string {
	return append([]string(nil), r.history...)
}

// LatestRev returns the newest revision id, or "" for an empty store.
func (r *Repository[T]) LatestRev() string {
	if len(r.history) == 0 {
		return ""
	}
	return r.history[len(r.history)-1]
}

// Latest restores the newest revision.
func (r *Repository[T]) Latest() (T, error) {
	var zero T
	if len(r.history) == 0 {
		return zero, fmt.Errorf("%w: empty history", ErrRevisionNotFound)
	}
	return r.Restore(r.LatestRev())
}

// RevisionBefore returns the last revision created at or before t.
func (r *Repository[T]) RevisionBefore(t time.Time) (string, error) {
	result := ""
	for _, rev := range r.history {
		if r.snaps[rev].created().After(t) {
			break
		}
		result = rev
	}
	if result == "" {
		return "", fmt.Errorf("%w: no revision at or before %s", ErrRevisionNotFound, t.Format(time.RFC3339))
	}
	return result, nil
}

// RestoreBefore restores the value as of time t.
func (r *Repository[T]) RestoreBefore(t time.Time) (T, error) {
	var zero T
	rev, err := r.RevisionBefore(t)
	if err != nil {
		return zero, err
	}
	return r.Restore(rev)
}

// CreatedAt returns the creation time of a revision.
func (r *Repository[T]) CreatedAt(rev string) (time.Time, error) {
	snap, ok := r.snaps[rev]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
	}
	return snap.created(), nil
}

// Size returns the total storage footprint of the graph.
func (r *Repository[T]) Size() int {
	total := 0
	for _, snap := range r.snaps {
		total += snap.size()
	}
	return total
}

// SnapshotState is the serializable form of one graph entry.
type SnapshotState struct {
	Revision  string    `json:"revision" yaml:"revision"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Complete  bool      `json:"complete" yaml:"complete"`
	Text      string    `json:"text,omitempty" yaml:"text,omitempty"`
	FutureRev string    `json:"futureRev,omitempty" yaml:"futureRev,omitempty"`
	Delta     string    `json:"delta,omitempty" yaml:"delta,omitempty"`
}

// State is the serializable form of a whole repository, consumed by the
// persistence layer. Snapshots are emitted in history order with duplicates
// collapsed, so the encoding is deterministic.
type State struct {
	History   []string        `json:"history" yaml:"history"`
	Snapshots []SnapshotState `json:"snapshots" yaml:"snapshots"`
}

// State exports the revision graph.
func (r *Repository[T]) State() State {
	st := State{History: append([]string(nil), r.history...)}
	emitted := make(map[string]bool, len(r.snaps))
	for _, rev := range r.history {
		if emitted[rev] {
			continue
		}
		emitted[rev] = true
		switch s := r.snaps[rev].(type) {
		case *completeSnapshot:
			st.Snapshots = append(st.Snapshots, SnapshotState{
				Revision:  s.rev,
				CreatedAt: s.at,
				Complete:  true,
				Text:      s.text,
			})
		case *deltaSnapshot:
			st.Snapshots = append(st.Snapshots, SnapshotState{
				Revision:  s.rev,
				CreatedAt: s.at,
				FutureRev: s.futureRev,
				Delta:     s.blob,
			})
		}
	}
	return st
}

// LoadState replaces the repository's graph with a previously exported
// state, validating the graph invariants: every history entry has a
// snapshot, and every delta chain reaches a complete snapshot.
func (r *Repository[T]) LoadState(st State) error {
	snaps := make(map[string]snapshot, len(st.Snapshots))
	for _, s := range st.Snapshots {
		if s.Complete {
			snaps[s.Revision] = &completeSnapshot{rev: s.Revision, at: s.CreatedAt, text: s.Text}
		} else {
			snaps[s.Revision] = &deltaSnapshot{rev: s.Revision, at: s.CreatedAt, futureRev: s.FutureRev, blob: s.Delta}
		}
	}
	for _, rev := range st.History {
		if _, ok := snaps[rev]; !ok {
			return fmt.Errorf("history revision %s has no snapshot", rev)
		}
	}
	for rev := range snaps {
		seen := map[string]bool{}
		cur := rev
		for {
			if seen[cur] {
				return fmt.Errorf("delta chain cycle at revision %s", cur)
			}
			seen[cur] = true
			snap, ok := snaps[cur]
			if !ok {
				return fmt.Errorf("delta chain from %s references missing revision %s", rev, cur)
			}
			d, isDelta := snap.(*deltaSnapshot)
			if !isDelta {
				break
			}
			cur = d.futureRev
		}
	}
	r.history = append([]string(nil), st.History...)
	r.snaps = snaps
	return nil
}
