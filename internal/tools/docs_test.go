package tools

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"toolgate/internal/domain"
)

func TestRenderPDF_ShouldProduceValidPDFBytes(t *testing.T) {
	data, err := renderPDF("Quarterly Report", "First paragraph.\n\nSecond paragraph.")
	if err != nil {
		t.Fatalf("renderPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("Expected PDF magic bytes, got %q", data[:8])
	}
}

func TestSafeFilename_ShouldFlattenUnsafeRunes(t *testing.T) {
	cases := map[string]string{
		"Quarterly Report":  "Quarterly_Report",
		"a/b\\c":            "abc",
		"notes-2024_v2":     "notes-2024_v2",
		"..":                "document",
		"":                  "document",
		"résumé":            "rsum",
	}
	for in, want := range cases {
		if got := safeFilename(in); got != want {
			t.Errorf("safeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDocsService_ListFiles_ShouldListFolderUnderRoot(t *testing.T) {
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	if err := os.Mkdir(uploads, 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(uploads, "report.pdf"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	svc := NewDocsService(nil, nil, root)
	payload, err := svc.listFiles(context.Background(), domain.Args{"folder_prefix": "uploads"})
	if err != nil {
		t.Fatalf("listFiles: %v", err)
	}
	result := payload.(map[string]any)
	if result["count"] != 1 {
		t.Errorf("Expected 1 file, got %v", result["count"])
	}
}

func TestDocsService_ListFiles_ShouldRejectTraversalOutsideRoot(t *testing.T) {
	svc := NewDocsService(nil, nil, t.TempDir())

	_, err := svc.listFiles(context.Background(), domain.Args{"folder_prefix": "../etc"})
	if err == nil {
		t.Error("Expected containment error for path traversal")
	}
}
