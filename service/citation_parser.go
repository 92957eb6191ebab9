package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"legalresearch-backend/models"
)

// ErrUnparseableCitation is matched by every ParseError
var ErrUnparseableCitation = errors.New("unparseable citation")

// citationPattern matches "<volume> <reporter> <page>", e.g. "410 U.S. 113"
var citationPattern = regexp.MustCompile(`(\d+)\s+([A-Za-z.&]+)\s+(\d+)`)

// ParseError reports a string that does not contain a citation
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("can't parse citation: %q", e.Raw)
}

// Is makes errors.Is(err, ErrUnparseableCitation) succeed for ParseError
func (e *ParseError) Is(target error) bool {
	return target == ErrUnparseableCitation
}

// ParseCitation extracts volume, reporter and page from the first citation
// found in raw. The reporter is uppercased.
func ParseCitation(raw string) (models.ParsedCitation, error) {
	m := citationPattern.FindStringSubmatch(raw)
	if m == nil {
		return models.ParsedCitation{}, &ParseError{Raw: raw}
	}

	return models.ParsedCitation{
		Volume:   m[1],
		Reporter: strings.ToUpper(m[2]),
		Page:     m[3],
	}, nil
}
