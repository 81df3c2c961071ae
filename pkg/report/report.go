// Package report renders batch results for people and for downstream
// tooling: a JSON document keyed by filename, and a text summary table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/clearpath/voicedrop-go/pkg/batch"
	"github.com/clearpath/voicedrop-go/pkg/engine"
)

// Record is one file's entry in the JSON document.
type Record struct {
	Decision *engine.Decision `json:"decision,omitempty"`
	Error    string           `json:"error,omitempty"`
	Elapsed  float64          `json:"elapsed_s"`
}

// Document is the full batch output, keyed by base filename.
type Document struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Files       map[string]Record `json:"files"`
}

// NewDocument builds a Document from batch results.
func NewDocument(results []batch.FileResult) Document {
	doc := Document{
		GeneratedAt: time.Now().UTC(),
		Files:       make(map[string]Record, len(results)),
	}
	for _, r := range results {
		rec := Record{Elapsed: round2(r.Elapsed.Seconds())}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		} else {
			d := r.Decision
			rec.Decision = &d
		}
		doc.Files[filepath.Base(r.Path)] = rec
	}
	return doc
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteTable writes a human-readable summary: one row per file plus
// aggregate counts and the average drop time across decided files.
func WriteTable(w io.Writer, results []batch.FileResult) error {
	sorted := make([]batch.FileResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tDROP\tREASON\tCONFIDENCE\tCOMPLIANT")

	var decided, failed int
	var dropSum float64
	for _, r := range sorted {
		name := filepath.Base(r.Path)
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\terror\t%v\t\t\n", name, r.Err)
			continue
		}
		decided++
		dropSum += r.Decision.DropAt
		fmt.Fprintf(tw, "%s\t%.2fs\t%s\t%.2f\t%v\n",
			name, r.Decision.DropAt, r.Decision.Reason, r.Decision.Confidence, r.Decision.Compliant)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	fmt.Fprintf(w, "\n%d decided, %d failed", decided, failed)
	if decided > 0 {
		fmt.Fprintf(w, ", average drop %.2fs", dropSum/float64(decided))
	}
	fmt.Fprintln(w)
	return nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// Writer renders batch results in one output format.
type Writer interface {
	Write(w io.Writer, results []batch.FileResult) error
}

// JSONWriter renders the machine-readable document.
type JSONWriter struct{}

func (JSONWriter) Write(w io.Writer, results []batch.FileResult) error {
	return WriteJSON(w, NewDocument(results))
}

// TableWriter renders the human-readable summary.
type TableWriter struct{}

func (TableWriter) Write(w io.Writer, results []batch.FileResult) error {
	return WriteTable(w, results)
}
