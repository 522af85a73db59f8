package entities

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"decklens/internal/domain"
)

// AnalysisPayload mirrors the JSON schema the analysis prompt asks the model
// to emit. Missing fields arrive as null.
type AnalysisPayload struct {
	StartupName      *string  `json:"startup_name"`
	ValueProposition *string  `json:"value_proposition"`
	NumberOfFounders *int     `json:"number_of_founders"`
	Founders         []string `json:"founders"`
	Problem          *string  `json:"problem"`
	Solution         *string  `json:"solution"`
	TargetMarket     *string  `json:"target_market"`
	Traction         *string  `json:"traction"`
	Funding          *string  `json:"funding"`
	NotablePoints    *string  `json:"notable_points"`
	Summary          *string  `json:"summary"`
}

// Parser extracts founder entities from analysis output. The output is
// markdown that should carry a fenced JSON payload; the parser decodes the
// payload strictly and only falls back to pattern matching when no JSON
// object can be located at all.
type Parser struct{}

// NewParser creates an entity parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse returns the founder entities named in the analysis text, in order.
// A missing, null or empty founders field yields an empty slice and no
// error. A located but undecodable payload yields a *ParseError.
func (p *Parser) Parse(analysis string) ([]domain.Entity, error) {
	payload, err := p.ParsePayload(analysis)
	switch {
	case errors.Is(err, ErrNoPayload):
		return foundersFragment(analysis), nil
	case err != nil:
		return nil, err
	}

	ents := make([]domain.Entity, 0, len(payload.Founders))
	for _, name := range payload.Founders {
		if name = strings.TrimSpace(name); name != "" {
			ents = append(ents, domain.Entity{Name: name})
		}
	}
	return ents, nil
}

// ParsePayload locates and decodes the structured payload in the analysis
// text. Returns ErrNoPayload when the text carries no JSON object at all.
func (p *Parser) ParsePayload(analysis string) (*AnalysisPayload, error) {
	raw, ok := locatePayload(analysis)
	if !ok {
		return nil, ErrNoPayload
	}

	var payload AnalysisPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &ParseError{
			Reason: "decoding analysis payload",
			Raw:    truncate(raw, 200),
			Err:    err,
		}
	}
	return &payload, nil
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// locatePayload finds the JSON object in the analysis text: a fenced code
// block when present, otherwise the first balanced brace span.
func locatePayload(analysis string) (string, bool) {
	if m := fencedJSONRe.FindStringSubmatch(analysis); len(m) > 1 {
		return m[1], true
	}

	start := strings.IndexByte(analysis, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(analysis); i++ {
		c := analysis[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return analysis[start : i+1], true
				}
			}
		}
	}
	return "", false
}

var (
	foundersArrayRe = regexp.MustCompile(`"founders"\s*:\s*\[([^\]]*)\]`)
	quotedStringRe  = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// foundersFragment recovers founder names from a bare "founders": [...]
// fragment when the surrounding text never formed a decodable object.
func foundersFragment(analysis string) []domain.Entity {
	ents := make([]domain.Entity, 0, 4)
	m := foundersArrayRe.FindStringSubmatch(analysis)
	if len(m) < 2 {
		return ents
	}
	for _, q := range quotedStringRe.FindAllStringSubmatch(m[1], -1) {
		if name := strings.TrimSpace(q[1]); name != "" {
			ents = append(ents, domain.Entity{Name: name})
		}
	}
	return ents
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
