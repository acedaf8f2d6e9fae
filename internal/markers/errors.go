package markers

import (
	"fmt"
	"strings"
)

// MarkerError describes a marker that failed parsing or schema validation
type MarkerError struct {
	Kind     Kind
	Location SourceLocation
	Message  string
	Examples []string
}

// Error implements the error interface
func (e *MarkerError) Error() string {
	var sb strings.Builder
	if e.Location.File != "" {
		fmt.Fprintf(&sb, "%s: ", e.Location)
	}
	fmt.Fprintf(&sb, "marker %q %s", e.Kind, e.Message)
	if len(e.Examples) > 0 {
		fmt.Fprintf(&sb, " (e.g. %s)", e.Examples[0])
	}
	return sb.String()
}

// ErrNotMarker is returned when a comment is not a needlr marker at all
var ErrNotMarker = fmt.Errorf("not a needlr marker")
