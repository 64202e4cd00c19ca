package media

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of a file is inspected to detect its type.
const sniffLen = 3072

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

var allowedDescription = humanReadableList([]string{"PNG", "JPEG", "WebP", "GIF"})

// detectImage sniffs head and returns the canonical mime type and file
// extension when it is an accepted image format.
func detectImage(head []byte) (string, string, error) {
	if len(head) == 0 {
		return "", "", fmt.Errorf("file is empty")
	}
	detected := mimetype.Detect(head)
	for _, allowed := range allowedImageTypes {
		if detected.Is(allowed) {
			return allowed, detected.Extension(), nil
		}
	}
	return "", "", fmt.Errorf("unsupported file type %s; allowed: %s", detected.String(), allowedDescription)
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}
