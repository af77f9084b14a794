package textnorm

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled expressions, in application order.
var (
	scriptTag   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	comments    = regexp.MustCompile(`(?s)<!--.*?-->`)
	allTags     = regexp.MustCompile(`<[^>]+>`)

	// Carriage-return artifact left behind by spreadsheet exports.
	x000d = regexp.MustCompile(`(?i)_x000d_\n?`)

	// Retained character sets. Everything else becomes a space.
	keepAccentSet  = regexp.MustCompile(`[^a-zA-Z0-9áéíóúÁÉÍÓÚüÜñÑ\s.,!?]`)
	stripAccentSet = regexp.MustCompile(`[^a-zA-Z0-9\s.,!?]`)

	whitespace = regexp.MustCompile(`\s+`)
)

// StripArtifacts removes the _x000d_ artifact only, leaving markup and
// casing intact. Used on answer text served to clients, which keeps its
// original HTML.
func StripArtifacts(raw string) string {
	return x000d.ReplaceAllString(raw, "")
}

// Normalize turns a raw HTML-bearing field into clean embedding input:
// markup and script/style content are stripped with single-space separators,
// the _x000d_ artifact is removed, characters outside the retained set are
// dropped, the text is lowercased and whitespace is collapsed.
//
// The keepAccents flag selects the accent-preserving character set. Callers
// must use one variant consistently per corpus; mixing them fragments the
// trained vocabulary.
//
// Normalize is a pure function and idempotent:
// Normalize(Normalize(x, k), k) == Normalize(x, k).
func Normalize(raw string, keepAccents bool) string {
	text := scriptTag.ReplaceAllString(raw, " ")
	text = styleTag.ReplaceAllString(text, " ")
	text = noscriptTag.ReplaceAllString(text, " ")
	text = comments.ReplaceAllString(text, " ")
	text = allTags.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)

	text = x000d.ReplaceAllString(text, "")

	if keepAccents {
		text = keepAccentSet.ReplaceAllString(text, " ")
	} else {
		text = stripAccentSet.ReplaceAllString(text, " ")
	}

	text = strings.ToLower(text)
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
