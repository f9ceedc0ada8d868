package essay

import (
	"bytes"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

// ExtractText pulls plain text out of an uploaded essay file (PDF, DOCX,
// etc.) using docconv, keyed by the upload's content type.
func ExtractText(data []byte, contentType string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), contentType, false)
	if err != nil {
		return "", fmt.Errorf("docconv: extraction failed for content type %q: %w", contentType, err)
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return "", fmt.Errorf("docconv: extracted empty text for content type %q", contentType)
	}
	return text, nil
}
