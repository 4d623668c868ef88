package results

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "whole depth",
			rec:  Record{Model: "gpt-4.1-mini", Length: 4000, Depth: 50},
			want: "gpt-4.1-mini_len_4000_depth_50",
		},
		{
			name: "fractional depth",
			rec:  Record{Model: "gpt-4o", Length: 1000, Depth: 33.4},
			want: "gpt-4o_len_1000_depth_33.4",
		},
		{
			name: "repeat suffix",
			rec:  Record{Model: "gpt-4o", Length: 1000, Depth: 0, Repeat: 2},
			want: "gpt-4o_len_1000_depth_0_rep_2",
		},
		{
			name: "slashed model name sanitised",
			rec:  Record{Model: "org/model:free", Length: 2000, Depth: 100},
			want: "org_model_free_len_2000_depth_100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := recordFileName(tt.rec); got != tt.want {
				t.Errorf("recordFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDirWriter_Record(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := DirWriter{
		ResultsDir:  filepath.Join(dir, "results"),
		ContextsDir: filepath.Join(dir, "contexts"),
	}

	rec := Record{
		Model:   "test-model",
		Length:  1000,
		Depth:   50,
		Score:   ScoreOf(10),
		Status:  StatusOK,
		Context: "the rendered haystack",
	}
	if err := w.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "results", "test-model_len_1000_depth_50_results.json"))
	if err != nil {
		t.Fatalf("reading result file: %v", err)
	}
	var loaded Record
	if err := json.Unmarshal(raw, &loaded); err != nil {
		t.Fatalf("unmarshal result file: %v", err)
	}
	if loaded.Score != rec.Score || loaded.Status != rec.Status {
		t.Errorf("loaded record = %+v, want score and status preserved", loaded)
	}
	// The rendered context is excluded from the record JSON.
	if strings.Contains(string(raw), "rendered haystack") {
		t.Error("result JSON contains the context text")
	}

	ctxRaw, err := os.ReadFile(filepath.Join(dir, "contexts", "test-model_len_1000_depth_50_context.txt"))
	if err != nil {
		t.Fatalf("reading context file: %v", err)
	}
	if string(ctxRaw) != "the rendered haystack" {
		t.Errorf("context file = %q, want the rendered haystack", ctxRaw)
	}
}

func TestDirWriter_NoContextDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := DirWriter{ResultsDir: dir}

	rec := Record{Model: "m", Length: 1000, Depth: 0, Context: "text", Status: StatusOK}
	if err := w.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("wrote %d files, want 1 (no context dump)", len(entries))
	}
}

func TestWriteMatrixCSV(t *testing.T) {
	t.Parallel()

	m := Matrix{
		Lengths: []int{1000, 2000},
		Depths:  []float64{0, 50},
		Cells: map[Cell]float64{
			{Length: 1000, Depth: 0}:  10,
			{Length: 2000, Depth: 0}:  7.5,
			{Length: 1000, Depth: 50}: 5,
			// (2000, 50) missing: all its trials failed.
		},
	}

	var buf bytes.Buffer
	if err := WriteMatrixCSV(&buf, m); err != nil {
		t.Fatalf("WriteMatrixCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}

	want := [][]string{
		{"depth_percent", "1000", "2000"},
		{"0", "10.00", "7.50"},
		{"50", "5.00", ""},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("rows[%d][%d] = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestWriteMatrixJSON(t *testing.T) {
	t.Parallel()

	m := Matrix{
		Lengths: []int{1000},
		Depths:  []float64{25},
		Cells:   map[Cell]float64{{Length: 1000, Depth: 25}: 7},
	}

	var buf bytes.Buffer
	if err := WriteMatrixJSON(&buf, m); err != nil {
		t.Fatalf("WriteMatrixJSON() error = %v", err)
	}

	var rows []struct {
		Length int     `json:"context_length"`
		Depth  float64 `json:"depth_percent"`
		Score  float64 `json:"score"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 1 || rows[0].Length != 1000 || rows[0].Depth != 25 || rows[0].Score != 7 {
		t.Errorf("rows = %+v, want one cell (1000, 25, 7)", rows)
	}
}
