package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samcharles93/spmio/internal/export"
)

const envExportDir = "SPMIO_EXPORT_DIR"

// collectInputs expands directories among args into the regular files they
// contain, recursively and in lexical order. Hidden files are skipped.
func collectInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one file is required")
	}
	var out []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, filepath.Clean(arg))
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if path != arg && strings.HasPrefix(name, ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.Sort(found)
		out = append(out, found...)
	}
	return out, nil
}

// resolveExportOut picks the output path for an export. "-" means stdout and
// is returned as "". Without --out the input's base name gets the kind's
// extension, in $SPMIO_EXPORT_DIR when set or next to the input otherwise.
func resolveExportOut(in, outFlag string, kind export.Kind, channel int) (string, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag == "-" {
		return "", nil
	}
	if outFlag != "" {
		out := filepath.Clean(outFlag)
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return "", err
		}
		return out, nil
	}

	base := filepath.Base(in)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		return "", fmt.Errorf("cannot derive output name from %q", in)
	}
	name := stem + "." + string(kind)
	if kind == export.KindGSF && channel > 0 {
		name = fmt.Sprintf("%s-%d.gsf", stem, channel)
	}

	dir := strings.TrimSpace(os.Getenv(envExportDir))
	if dir == "" {
		dir = filepath.Dir(in)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(dir, name)
	if filepath.Clean(out) == filepath.Clean(in) {
		return "", fmt.Errorf("output %s would overwrite the input", out)
	}
	return out, nil
}
