package categorizer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName title-cases a lower-case merchant key for presentation.
func DisplayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	// Casers carry state and are not shared between goroutines.
	return cases.Title(language.English).String(strings.ToLower(name))
}
