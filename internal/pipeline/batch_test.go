package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medrec/medrec/internal/domain/record"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBatch_Run(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a-note.txt", "Patient has hypertension.")
	writeFile(t, dir, "b-adt.hl7",
		"MSH|^~\\&|S|F|R|F|20240115083000||ADT^A01|M1|P|2.5.1\r"+
			"DG1|1||I10^Essential (primary) hypertension^I10|||F\r")
	writeFile(t, dir, "c-blob.bin", "\x00\x01\x02")
	writeFile(t, dir, ".hidden", "ignored")

	rec := &termRecognizer{terms: map[string]string{"hypertension": "diagnosis"}, conf: 0.9}
	orch := newOrchestrator(&stubOCR{}, rec)

	paths, err := DocumentPaths(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths (dotfile skipped), got %v", paths)
	}

	var buf bytes.Buffer
	sink := NewJSONLSink(&buf)

	summary, err := NewBatch(orch, 2, zerolog.Nop()).Run(context.Background(), paths, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Processed != 3 {
		t.Errorf("processed = %d, want 3", summary.Processed)
	}
	if summary.Complete != 2 || summary.Failed != 1 {
		t.Errorf("complete/failed = %d/%d, want 2/1 (summary: %+v)", summary.Complete, summary.Failed, summary)
	}
	if _, ok := summary.Errors["c-blob.bin"]; !ok {
		t.Errorf("expected an error summary entry for the binary file, got %+v", summary.Errors)
	}

	// One JSON record per input document on the sink.
	var lines int
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		lines++
		var out record.MedicalRecord
		if err := json.Unmarshal(scanner.Bytes(), &out); err != nil {
			t.Fatalf("sink line %d is not a record: %v", lines, err)
		}
		if out.Status == "" {
			t.Errorf("record %s missing status", out.DocumentName)
		}
	}
	if lines != 3 {
		t.Errorf("expected 3 sink records, got %d", lines)
	}
}

func TestBatch_UnreadablePathBecomesFailedRecord(t *testing.T) {
	rec := &termRecognizer{}
	orch := newOrchestrator(&stubOCR{}, rec)

	var buf bytes.Buffer
	summary, err := NewBatch(orch, 1, zerolog.Nop()).
		Run(context.Background(), []string{"/nonexistent/file.txt"}, NewJSONLSink(&buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Processed != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if buf.Len() == 0 {
		t.Error("failed document must still reach the sink")
	}
}

func TestBatch_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		writeFile(t, dir, name, "note text")
	}
	paths, err := DocumentPaths(dir)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &termRecognizer{}
	orch := newOrchestrator(&stubOCR{}, rec)

	var buf bytes.Buffer
	_, err = NewBatch(orch, 2, zerolog.Nop()).Run(ctx, paths, NewJSONLSink(&buf))
	if err == nil {
		t.Fatal("cancelled run must report the context error")
	}
}
