package export

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/spmio/pkg/spm"
)

// WriteJSON writes res as an indented JSON document.
func WriteJSON(w io.Writer, res *spm.Result, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res, opts)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML writes the geometry, statistics and metadata of res. Sample data
// is never included.
func WriteYAML(w io.Writer, res *spm.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(res, Options{Stats: true})); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Write encodes res as kind. For GSF only the channel at index is written.
func Write(w io.Writer, res *spm.Result, kind Kind, channel int, opts Options) error {
	switch kind {
	case KindJSON:
		return WriteJSON(w, res, opts)
	case KindYAML:
		return WriteYAML(w, res)
	case KindGSF:
		if channel < 0 || channel >= len(res.Channels) {
			return fmt.Errorf("channel %d out of range (file has %d)", channel, len(res.Channels))
		}
		return WriteGSF(w, res.Channels[channel])
	default:
		return fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
}
