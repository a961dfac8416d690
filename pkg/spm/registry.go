package spm

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// Candidate is a format together with the score it gave a file.
type Candidate struct {
	Format Format
	Score  int
}

// ID returns the candidate's format id.
func (c Candidate) ID() string {
	return c.Format.Info().ID
}

// Registry is an immutable, ordered set of formats. It is safe for
// concurrent use.
type Registry struct {
	formats []Format
	byID    map[string]Format
}

// NewRegistry builds a registry. Order matters: when two formats give a file
// the same score, the one registered first wins. Duplicate or empty ids
// panic.
func NewRegistry(formats ...Format) *Registry {
	r := &Registry{
		formats: slices.Clone(formats),
		byID:    make(map[string]Format, len(formats)),
	}
	for _, f := range formats {
		id := f.Info().ID
		if id == "" {
			panic("spm: format with empty id")
		}
		if _, dup := r.byID[id]; dup {
			panic(fmt.Sprintf("spm: duplicate format id %q", id))
		}
		r.byID[id] = f
	}
	return r
}

// Formats returns the registered formats in registration order.
func (r *Registry) Formats() []Format {
	return slices.Clone(r.formats)
}

func (r *Registry) Lookup(id string) (Format, bool) {
	f, ok := r.byID[id]
	return f, ok
}

// Detect scores info against every format and returns those with a positive
// score, best first. With onlyName set, only file names are considered.
func (r *Registry) Detect(info *DetectInfo, onlyName bool) []Candidate {
	var out []Candidate
	for _, f := range r.formats {
		var score int
		if onlyName {
			score = f.DetectName(info)
		} else {
			score = f.DetectContent(info)
		}
		score = min(max(score, ScoreNone), ScoreMax)
		if score > ScoreNone {
			out = append(out, Candidate{Format: f, Score: score})
		}
	}
	slices.SortStableFunc(out, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// Best returns the winning candidate for info.
func (r *Registry) Best(info *DetectInfo, onlyName bool) (Candidate, bool) {
	c := r.Detect(info, onlyName)
	if len(c) == 0 {
		return Candidate{}, false
	}
	return c[0], true
}

// Load detects the format of in and decodes it. Candidates are tried best
// first; the first successful load is returned. When every candidate fails
// the error of the best one is returned.
func (r *Registry) Load(ctx context.Context, in *Input) (*Result, error) {
	cands := r.Detect(NewDetectInfo(in.Name, in.Data), false)
	if len(cands) == 0 {
		return nil, ErrNoImporter
	}
	var first error
	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.loadWith(ctx, c.Format, in)
		if err == nil {
			return res, nil
		}
		if first == nil {
			first = err
		}
	}
	return nil, first
}

// LoadAs decodes in with the format id, skipping detection.
func (r *Registry) LoadAs(ctx context.Context, id string, in *Input) (*Result, error) {
	f, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown format %q", id)
	}
	return r.loadWith(ctx, f, in)
}

func (r *Registry) loadWith(ctx context.Context, f Format, in *Input) (*Result, error) {
	id := f.Info().ID
	res, err := f.Load(ctx, in)
	if err != nil {
		return nil, Wrap(id, err)
	}
	if res.Format == "" {
		res.Format = id
	}
	if len(res.Channels) == 0 {
		return nil, Errorf(id, ErrNoData, "no channels")
	}
	for i, ch := range res.Channels {
		if ch.Grid == nil {
			return nil, Errorf(id, ErrNoData, "channel %d has no data", i)
		}
		if err := ch.Grid.Validate(); err != nil {
			return nil, Wrap(id, fmt.Errorf("channel %d: %w", i, err))
		}
	}
	return res, nil
}
