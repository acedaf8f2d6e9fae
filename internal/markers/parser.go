package markers

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Prefix is the comment prefix that introduces a needlr marker
const Prefix = "needlr::"

// markerLine is the participle grammar for the fixed head of a marker
// line; the tail (positionals, parameters, flags) is tokenized separately
// because parameter values may contain commas, dots and slashes.
type markerLine struct {
	Comment   string `parser:"@Comment"`
	Needlr    string `parser:"@Needlr"`
	Separator string `parser:"@Separator"`
	Kind      string `parser:"@Ident"`
}

// Parser parses needlr:: markers from doc comments
type Parser struct {
	head     *participle.Parser[markerLine]
	registry *Registry
}

// NewParser creates a marker parser backed by the built-in schema registry
func NewParser() *Parser {
	lex := lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `//`},
		{Name: "Needlr", Pattern: `needlr`},
		{Name: "Separator", Pattern: `::`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	head := participle.MustBuild[markerLine](
		participle.Lexer(lex),
		participle.Elide("Whitespace"),
	)

	return &Parser{
		head:     head,
		registry: NewRegistry(),
	}
}

// Registry exposes the schema registry backing this parser
func (p *Parser) Registry() *Registry {
	return p.registry
}

// IsMarker reports whether a comment line looks like a needlr marker
func IsMarker(comment string) bool {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment), "//"))
	return strings.HasPrefix(text, Prefix)
}

// Parse parses one comment line into a marker attached to the given
// target declaration. Returns ErrNotMarker for ordinary comments.
func (p *Parser) Parse(comment, target string, loc SourceLocation) (*ParsedMarker, error) {
	if !IsMarker(comment) {
		return nil, ErrNotMarker
	}

	trimmed := strings.TrimSpace(comment)
	body := strings.TrimSpace(strings.TrimPrefix(trimmed, "//"))
	body = strings.TrimPrefix(body, Prefix)

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil, &MarkerError{Location: loc, Message: "is empty"}
	}

	// Validate the head through the grammar so malformed prefixes are
	// rejected consistently with how the tail is tokenized.
	if _, err := p.head.ParseString(loc.File, "//"+Prefix+fields[0]); err != nil {
		return nil, &MarkerError{Location: loc, Message: fmt.Sprintf("has a malformed head: %v", err)}
	}

	kind, err := ParseKind(fields[0])
	if err != nil {
		return nil, &MarkerError{Location: loc, Message: err.Error()}
	}

	marker := &ParsedMarker{
		Kind:       kind,
		Target:     target,
		Parameters: make(map[string]string),
		Location:   loc,
		Raw:        trimmed,
	}

	for _, field := range fields[1:] {
		if strings.HasPrefix(field, "-") {
			name := strings.TrimPrefix(field, "-")
			if idx := strings.Index(name, "="); idx >= 0 {
				marker.Parameters[name[:idx]] = unquote(name[idx+1:])
			} else {
				// Bare flag: presence is the value.
				marker.Parameters[name] = "true"
			}
		} else {
			marker.Positional = append(marker.Positional, unquote(field))
		}
	}

	if err := p.registry.Validate(marker); err != nil {
		return nil, err
	}

	return marker, nil
}

// ParseAll parses every marker line in a doc comment block, skipping
// ordinary comment lines. The first malformed marker aborts the block.
func (p *Parser) ParseAll(lines []string, target string, loc SourceLocation) ([]*ParsedMarker, error) {
	var out []*ParsedMarker
	for i, line := range lines {
		lineLoc := loc
		lineLoc.Line = loc.Line + i
		marker, err := p.Parse(line, target, lineLoc)
		if err != nil {
			if err == ErrNotMarker {
				continue
			}
			return nil, err
		}
		out = append(out, marker)
	}
	return out, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
