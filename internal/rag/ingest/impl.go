package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
)

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".md", ".markdown":
		return commonModels.MD
	case ".txt":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

func extractText(path string, contentType commonModels.DocType) (string, error) {
	switch contentType {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX:
		return extractWithCat(path)
	case commonModels.MD, commonModels.TXT:
		return readPlainText(path)
	default:
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}
}

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// normalizeText collapses runs of spaces and tabs and squeezes blank-line
// runs down to a single blank line. Paragraph breaks survive because the
// chunker prefers cutting on them.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
