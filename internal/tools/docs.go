package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"toolgate/internal/domain"
)

// DocsService covers document generation, workspace file listings and
// text embeddings.
type DocsService struct {
	slack  *SlackService
	openAI *OpenAIService
	root   string
}

func NewDocsService(slack *SlackService, openAI *OpenAIService, root string) *DocsService {
	return &DocsService{slack: slack, openAI: openAI, root: root}
}

func (d *DocsService) Tools() []Tool {
	return []Tool{
		{
			Def: domain.ToolDefinition{
				Name:        "send_as_pdf",
				Description: "Render text as a PDF document and upload it to a Slack channel",
				Params: []domain.ParameterSpec{
					{Name: "text", Kind: domain.KindString, Description: "Text content of the document", Required: true},
					{Name: "chat_id", Kind: domain.KindString, Description: "Slack channel ID to receive the file", Required: true},
					{Name: "title", Kind: domain.KindString, Description: "Document title, also used as the file name", Required: true},
					{Name: "ts", Kind: domain.KindString, Description: "Optional thread timestamp for threaded upload"},
				},
			},
			Handler: domain.HandlerFunc(d.sendAsPDF),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "list_files",
				Description: "List files available under a folder of the shared file area",
				Params: []domain.ParameterSpec{
					{Name: "folder_prefix", Kind: domain.KindString, Description: "Folder to list, relative to the shared file area", Default: "uploads"},
				},
			},
			Handler: domain.HandlerFunc(d.listFiles),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "get_embedding",
				Description: "Compute the embedding vector for a piece of text",
				Params: []domain.ParameterSpec{
					{Name: "text", Kind: domain.KindString, Description: "Text to embed", Required: true},
					{Name: "model", Kind: domain.KindString, Description: "Embedding model to use", Default: "text-embedding-3-small"},
				},
			},
			Handler: domain.HandlerFunc(d.embedding),
		},
	}
}

func (d *DocsService) sendAsPDF(ctx context.Context, args domain.Args) (any, error) {
	title := argString(args, "title")
	data, err := renderPDF(title, argString(args, "text"))
	if err != nil {
		return nil, err
	}

	filename := safeFilename(title) + ".pdf"
	summary, err := d.slack.Upload(ctx, argString(args, "chat_id"), title, filename, data, argString(args, "ts"))
	if err != nil {
		return nil, fmt.Errorf("slack upload failed: %w", err)
	}
	return map[string]any{
		"file_id":  summary.ID,
		"filename": filename,
		"size":     len(data),
	}, nil
}

func (d *DocsService) listFiles(ctx context.Context, args domain.Args) (any, error) {
	dir := d.root
	if prefix := argString(args, "folder_prefix"); prefix != "" {
		dir = filepath.Join(d.root, prefix)
		// Joined path must stay inside the shared file area.
		rel, err := filepath.Rel(d.root, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("folder %q is outside the shared file area", prefix)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not list files: %w", err)
	}

	files := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, map[string]any{
			"name":     entry.Name(),
			"is_dir":   entry.IsDir(),
			"size":     info.Size(),
			"modified": info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return map[string]any{"files": files, "count": len(files)}, nil
}

func (d *DocsService) embedding(ctx context.Context, args domain.Args) (any, error) {
	vector, err := d.openAI.Embed(ctx, argString(args, "text"), argString(args, "model"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"embedding": vector, "dimensions": len(vector)}, nil
}

// renderPDF lays out title and body on A4 pages.
func renderPDF(title, content string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 10, title, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	for _, paragraph := range strings.Split(content, "\n") {
		if paragraph == "" {
			pdf.Ln(4)
			continue
		}
		pdf.MultiCell(0, 6, paragraph, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// safeFilename flattens a title into a filesystem-friendly name.
func safeFilename(title string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, title)
	if mapped == "" {
		return "document"
	}
	return mapped
}
