package extractor

import "strings"

// JoinPages joins page texts with a blank line between pages.
func JoinPages(pages []string) string {
	return strings.Join(pages, "\n\n")
}
