// Package importer runs detection and decoding for files and uploaded
// buffers, logging what the registry decided.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/samcharles93/spmio/internal/logger"
	"github.com/samcharles93/spmio/internal/mapfile"
	"github.com/samcharles93/spmio/pkg/spm"
)

// ErrUnknownFormat is returned when a forced format id is not registered.
var ErrUnknownFormat = errors.New("unknown format")

type Importer struct {
	reg *spm.Registry
	log logger.Logger
}

// New returns an Importer over reg. A nil log falls back to the context
// logger at call time.
func New(reg *spm.Registry, log logger.Logger) *Importer {
	return &Importer{reg: reg, log: log}
}

func (im *Importer) Registry() *spm.Registry { return im.reg }

func (im *Importer) logger(ctx context.Context) logger.Logger {
	if im.log != nil {
		return im.log
	}
	return logger.FromContext(ctx)
}

// Detect scores a buffer. With nameOnly set, data is ignored.
func (im *Importer) Detect(ctx context.Context, name string, data []byte, nameOnly bool) []spm.Candidate {
	info := spm.NameOnly(name)
	if !nameOnly {
		info = spm.NewDetectInfo(name, data)
	}
	cands := im.reg.Detect(info, nameOnly)
	im.logCandidates(ctx, name, cands)
	return cands
}

// DetectFile scores a file on disk, reading only its head and tail.
func (im *Importer) DetectFile(ctx context.Context, path string, nameOnly bool) ([]spm.Candidate, error) {
	name := filepath.Base(path)
	if nameOnly {
		return im.Detect(ctx, name, nil, true), nil
	}
	head, tail, size, err := mapfile.Probe(path, spm.DetectBufferSize)
	if err != nil {
		return nil, err
	}
	info := spm.NameOnly(name)
	info.FileSize = size
	info.Head = head
	info.Tail = tail
	cands := im.reg.Detect(info, false)
	im.logCandidates(ctx, name, cands)
	return cands, nil
}

func (im *Importer) logCandidates(ctx context.Context, name string, cands []spm.Candidate) {
	log := im.logger(ctx)
	if len(cands) == 0 {
		log.Debug("no format claims file", "file", name)
		return
	}
	for _, c := range cands {
		log.Debug("candidate", "file", name, "format", c.ID(), "score", c.Score)
	}
	if len(cands) > 1 && cands[0].Score == cands[1].Score {
		log.Debug("detection tie, first registered wins",
			"file", name, "winner", cands[0].ID(), "other", cands[1].ID(), "score", cands[0].Score)
	}
}

// Load decodes a buffer. An empty formatID means detect.
func (im *Importer) Load(ctx context.Context, name string, data []byte, formatID string) (*spm.Result, error) {
	log := im.logger(ctx).With("file", name)
	in := &spm.Input{Name: name, Data: data}

	var (
		res *spm.Result
		err error
	)
	if formatID != "" {
		if _, ok := im.reg.Lookup(formatID); !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownFormat, formatID)
		}
		res, err = im.reg.LoadAs(ctx, formatID, in)
	} else {
		if log.Slog().Enabled(ctx, slog.LevelDebug) {
			im.logCandidates(ctx, name, im.reg.Detect(spm.NewDetectInfo(name, data), false))
		}
		res, err = im.reg.Load(ctx, in)
	}
	if err != nil {
		log.Debug("load failed", "error", err)
		return nil, err
	}

	for _, w := range res.Warnings {
		log.Warn(w, "format", res.Format)
	}
	log.Info("loaded", "format", res.Format, "channels", len(res.Channels))
	return res, nil
}

// LoadFile maps path and decodes it. The mapping is released before return;
// results never alias the file bytes.
func (im *Importer) LoadFile(ctx context.Context, path, formatID string) (*spm.Result, error) {
	f, err := mapfile.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			im.logger(ctx).Warn("unmap failed", "file", path, "error", cerr)
		}
	}()
	return im.Load(ctx, filepath.Base(path), f.Data, formatID)
}
