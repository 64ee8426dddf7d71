// Package normalizer blanks volatile per-request tokens out of response
// bodies before they are hashed, so that two renderings of the same page
// differing only in CSRF tokens or nonces produce the same content digest.
//
// Matching is a best-effort text scan with regular expressions, not an HTML
// parser. The rules only need to hit the known volatile fields; the rest of
// the document is hashed as-is.
package normalizer

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Rule blanks one kind of volatile value. Pattern must capture the text
// surrounding the value so Replace can keep it, e.g. a pattern of
// `(content=")[^"]*(")` with a replace of `${1}${2}`.
type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`

	re *regexp.Regexp
}

type Rules []Rule

// Default returns the built-in rule set. The rules are applied in order and
// tolerate any attribute order inside the matched tag, hence the reversed
// variants.
func Default() Rules {
	return Rules{
		mustRule("csrf-token-meta",
			`(?i)(<meta\b[^>]*\bname="csrf-token"[^>]*\bcontent=")[^"]*(")`,
			`${1}${2}`),
		mustRule("csrf-token-meta-reversed",
			`(?i)(<meta\b[^>]*\bcontent=")[^"]*("[^>]*\bname="csrf-token")`,
			`${1}${2}`),
		mustRule("authenticity-token-input",
			`(?i)(<input\b[^>]*\bname="authenticity_token"[^>]*\b(?:value|content)=")[^"]*(")`,
			`${1}${2}`),
		mustRule("authenticity-token-input-reversed",
			`(?i)(<input\b[^>]*\b(?:value|content)=")[^"]*("[^>]*\bname="authenticity_token")`,
			`${1}${2}`),
		mustRule("csp-nonce-meta",
			`(?i)(<meta\b[^>]*\bname="csp-nonce"[^>]*\bcontent=")[^"]*(")`,
			`${1}${2}`),
		mustRule("csp-nonce-meta-reversed",
			`(?i)(<meta\b[^>]*\bcontent=")[^"]*("[^>]*\bname="csp-nonce")`,
			`${1}${2}`),
		mustRule("nonce-attribute",
			`(?i)(\bnonce=")[^"]*(")`,
			`${1}${2}`),
	}
}

// Parse compiles user-supplied rules, preserving their order.
func Parse(rules []Rule) (Rules, error) {
	compiled := make(Rules, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		rule.re = re
		compiled = append(compiled, rule)
	}
	return compiled, nil
}

// Apply runs every rule in order and returns the normalized result.
// The input slice is never modified.
func (r Rules) Apply(body []byte) []byte {
	normalized := body
	for _, rule := range r {
		if rule.re == nil {
			continue
		}
		normalized = rule.re.ReplaceAll(normalized, []byte(rule.Replace))
	}
	return normalized
}

// IsText reports whether a body with the given Content-Type should be
// normalized before hashing. The rules target markup, so only text-like
// content qualifies. An absent Content-Type falls back to sniffing the body.
func IsText(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	mediatype := contentType
	if idx := strings.Index(mediatype, ";"); idx >= 0 {
		mediatype = mediatype[:idx]
	}
	mediatype = strings.ToLower(strings.TrimSpace(mediatype))
	if strings.HasPrefix(mediatype, "text/") {
		return true
	}
	switch mediatype {
	case "application/xhtml+xml", "application/xml", "application/json", "application/javascript":
		return true
	}
	return strings.HasSuffix(mediatype, "+xml") || strings.HasSuffix(mediatype, "+json")
}

func mustRule(name, pattern, replace string) Rule {
	return Rule{
		Name:    name,
		Pattern: pattern,
		Replace: replace,
		re:      regexp.MustCompile(pattern),
	}
}
