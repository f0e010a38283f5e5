package extract

import (
	"bytes"
	"strings"

	"github.com/fumiama/go-docx"
)

// extractDOCX collects the run text of every paragraph, one line per
// paragraph. Tables, drawings and other non-text content are skipped.
func extractDOCX(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var parts []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if text := paragraphText(para); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func paragraphText(para *docx.Paragraph) string {
	var sb strings.Builder
	for _, child := range para.Children {
		switch node := child.(type) {
		case *docx.Run:
			writeRunText(&sb, node)
		case *docx.Hyperlink:
			writeRunText(&sb, &node.Run)
		}
	}
	return strings.TrimSpace(sb.String())
}

func writeRunText(sb *strings.Builder, run *docx.Run) {
	for _, child := range run.Children {
		if t, ok := child.(*docx.Text); ok {
			sb.WriteString(t.Text)
		}
	}
}

func init() {
	Register("docx", extractDOCX)
}
