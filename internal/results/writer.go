package results

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DirWriter persists trial records as JSON files, one file per trial, and
// optionally dumps the rendered context alongside. Methods are safe for
// concurrent use: each record maps to a distinct file.
type DirWriter struct {
	ResultsDir  string
	ContextsDir string // empty disables context dumps
}

// Record writes the record (and optionally its context) to disk.
func (w DirWriter) Record(_ context.Context, rec Record) error {
	if err := WriteRecord(w.ResultsDir, rec); err != nil {
		return err
	}
	if w.ContextsDir != "" && rec.Context != "" {
		return WriteContext(w.ContextsDir, rec, rec.Context)
	}
	return nil
}

// recordFileName builds the per-trial result file name, e.g.
// gpt-4.1-mini_len_4000_depth_50_results.json. Repeats beyond the first
// get a _rep_N suffix so concurrent repeats never clobber each other.
func recordFileName(rec Record) string {
	model := strings.NewReplacer("/", "_", ":", "_", " ", "_").Replace(rec.Model)
	name := fmt.Sprintf("%s_len_%d_depth_%s", model, rec.Length, formatDepth(rec.Depth))
	if rec.Repeat > 0 {
		name += "_rep_" + strconv.Itoa(rec.Repeat)
	}
	return name
}

// formatDepth renders a depth percent without a trailing ".0" for whole
// numbers, matching the historical result file layout.
func formatDepth(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// WriteRecord persists one trial record as a JSON file under dir.
// The directory is created if needed.
func WriteRecord(dir string, rec Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("results: create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, recordFileName(rec)+"_results.json")
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("results: marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("results: write %s: %w", path, err)
	}
	return nil
}

// WriteContext persists the rendered haystack for one trial under dir.
// Contexts get very long; this is off by default and opt-in via config.
func WriteContext(dir string, rec Record, context string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("results: create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, recordFileName(rec)+"_context.txt")
	if err := os.WriteFile(path, []byte(context), 0o644); err != nil {
		return fmt.Errorf("results: write %s: %w", path, err)
	}
	return nil
}

// WriteMatrixJSON writes the matrix as a flat JSON array of cell rows.
func WriteMatrixJSON(w io.Writer, m Matrix) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.rows()); err != nil {
		return fmt.Errorf("results: encode matrix: %w", err)
	}
	return nil
}

// WriteMatrixCSV writes the matrix as a depth × length pivot table:
// one row per depth, one column per context length, empty cells for
// missing (failed) combinations.
func WriteMatrixCSV(w io.Writer, m Matrix) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(m.Lengths)+1)
	header = append(header, "depth_percent")
	for _, l := range m.Lengths {
		header = append(header, strconv.Itoa(l))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("results: write csv header: %w", err)
	}

	for _, d := range m.Depths {
		row := make([]string, 0, len(m.Lengths)+1)
		row = append(row, formatDepth(d))
		for _, l := range m.Lengths {
			if v, ok := m.Cells[Cell{Length: l, Depth: d}]; ok {
				row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("results: write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("results: flush csv: %w", err)
	}
	return nil
}
