package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MarkdownTool writes a finished document into the output directory.
// It exists so plans can end with an explicit "deliver the report"
// step instead of leaving the result buried in step artifacts.
type MarkdownTool struct {
	OutputDir string
}

func NewMarkdownTool(outputDir string) *MarkdownTool {
	if outputDir == "" {
		outputDir = "output"
	}
	return &MarkdownTool{OutputDir: outputDir}
}

func (m *MarkdownTool) Name() string {
	return "markdown"
}

func (m *MarkdownTool) Description() string {
	return "Save a markdown document to the output directory. Use for final reports, summaries, and other deliverables."
}

func (m *MarkdownTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Document title, used for the heading and the filename",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The markdown body of the document",
			},
		},
		"required": []string{"title", "content"},
	}
}

func (m *MarkdownTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Content) == "" {
		return "", fmt.Errorf("empty content")
	}

	if err := os.MkdirAll(m.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := slugify(args.Title)
	if name == "" {
		name = fmt.Sprintf("document_%d", time.Now().Unix())
	}
	path := filepath.Join(m.OutputDir, name+".md")

	doc := args.Content
	if args.Title != "" && !strings.HasPrefix(strings.TrimSpace(doc), "#") {
		doc = "# " + args.Title + "\n\n" + doc
	}

	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	absPath, _ := filepath.Abs(path)
	return fmt.Sprintf("Document saved to %s", absPath), nil
}

func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
