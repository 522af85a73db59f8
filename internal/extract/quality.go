package extract

import (
	"strings"

	"decklens/internal/domain"
)

// Thresholds over the share of runes outside the printable 7-bit range.
// Enhancement is warranted past 30%; a vision OCR round trip past 10%.
const (
	enhanceNonPrintableMax  = 0.30
	artifactNonPrintableMax = 0.10
)

// glyphMarker appears in native text when the font's character map could not
// resolve a glyph to a code point.
const glyphMarker = "(cid:"

// entityMarker appears when escaped character entities leak into the text
// layer instead of being decoded.
const entityMarker = "&#"

// NeedsEnhancement reports whether a page's native text warrants recovery
// attempts, with the quality flags that fired.
func NeedsEnhancement(text string) (bool, []domain.QualityFlag) {
	var flags []domain.QualityFlag
	if strings.TrimSpace(text) == "" {
		flags = append(flags, domain.FlagEmptyText)
	}
	if strings.Contains(text, glyphMarker) {
		flags = append(flags, domain.FlagGlyphArtifacts)
	}
	if computeNonPrintableRatio(text) > enhanceNonPrintableMax {
		flags = append(flags, domain.FlagLowPrintable)
	}
	return len(flags) > 0, flags
}

// HasArtifacts reports whether native text shows encoding damage strong
// enough to justify a vision OCR round trip after the cheaper recovery
// attempts, with the quality flags that fired.
func HasArtifacts(text string) (bool, []domain.QualityFlag) {
	var flags []domain.QualityFlag
	if strings.Contains(text, entityMarker) {
		flags = append(flags, domain.FlagEscapedEntities)
	}
	if computeNonPrintableRatio(text) > artifactNonPrintableMax {
		flags = append(flags, domain.FlagNonASCIIHeavy)
	}
	return len(flags) > 0, flags
}

// computeNonPrintableRatio returns the share of runes outside the printable
// 7-bit range. Tab, newline and carriage return count as printable; empty
// text counts as fully printable.
func computeNonPrintableRatio(text string) float64 {
	total := 0
	outside := 0
	for _, r := range text {
		total++
		if r >= 0x20 && r <= 0x7E {
			continue
		}
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		outside++
	}
	if total == 0 {
		return 0
	}
	return float64(outside) / float64(total)
}
