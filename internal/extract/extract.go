// Package extract recovers a call-back request (name, phone, service) from a
// free-text chat transcript.
//
// Each field is resolved by an ordered list of matchers. Matchers run in
// order over the whole transcript and the first one that yields an accepted
// value wins; later matchers are never consulted, even if they would produce
// a "better" answer.
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"parker-electrical/internal/domain"
)

const (
	minNameLen    = 2
	maxNameLen    = 50
	minServiceLen = 4
)

// Candidate is the provisional booking tuple recovered from a transcript.
// Empty fields were not found.
type Candidate struct {
	Name    string
	Phone   string
	Service string
}

// Complete reports whether all three fields are present after trimming.
func (c Candidate) Complete() bool {
	return strings.TrimSpace(c.Name) != "" &&
		strings.TrimSpace(c.Phone) != "" &&
		strings.TrimSpace(c.Service) != ""
}

// Missing lists the absent field names, in name/phone/service order.
func (c Candidate) Missing() []string {
	var out []string
	if strings.TrimSpace(c.Name) == "" {
		out = append(out, "name")
	}
	if strings.TrimSpace(c.Phone) == "" {
		out = append(out, "phone")
	}
	if strings.TrimSpace(c.Service) == "" {
		out = append(out, "service")
	}
	return out
}

// matcher returns the first acceptable value it finds in text.
type matcher func(text string) (string, bool)

// pattern builds a matcher from a regexp whose first group is the value.
// Matches are tried left to right and the first one accept keeps is returned.
func pattern(re *regexp.Regexp, accept func(string) (string, bool)) matcher {
	return func(text string) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			if v, ok := accept(m[1]); ok {
				return v, true
			}
		}
		return "", false
	}
}

func firstMatch(matchers []matcher, text string) string {
	for _, m := range matchers {
		if v, ok := m(text); ok {
			return v
		}
	}
	return ""
}

// capitalised one or two word name, e.g. "Alice" or "Alice Smith".
const nameCapture = `([A-Z][A-Za-z'\-]*(?:[ \t]+[A-Z][A-Za-z'\-]*)?)`

var (
	nameIsRE  = regexp.MustCompile(`(?i:\bname(?:\s+is|'s|\s*:))\s*` + nameCapture)
	introRE   = regexp.MustCompile(`(?i:\b(?:i['’]m|i\s+am))\s+` + nameCapture)
	callMeRE  = regexp.MustCompile(`(?i:\bcall\s+me)\s+` + nameCapture)
	bareNameR = regexp.MustCompile(`\b([A-Z][a-z]+[ \t]+[A-Z][a-z]+)\b`)

	phoneCueRE  = regexp.MustCompile(`(?i:\b(?:phone|call|number|mobile|contact|reach\s+me))[^\d+\n]{0,25}(\+?\d[\d \t]{7,16}\d)`)
	ukMobileRE  = regexp.MustCompile(`\b(07\d{3}[ \t]?\d{3}[ \t]?\d{3})\b`)
	barePhoneRE = regexp.MustCompile(`\b(\d{3}[ \t]?\d{3}[ \t]?\d{3,})\b`)

	serviceCueRE = regexp.MustCompile(`(?i)\b(?:need|want|require|install|service|help\s+with|looking\s+for)\s+(?:an?\s+|the\s+|some\s+)?([a-z0-9][a-z0-9&/' \t\-]*?)(?:[.,!?;\n]|[ \t]+(?:and|on|please)\b|$)`)
	keywordRE    = regexp.MustCompile(`(?i)\b(rewire|eicr|testing|emergency|charger|commercial|domestic)\b`)
)

// nonServiceLeads are opening words of an assistant question ("which
// service you need?", "what do you need?") rather than a job description.
var nonServiceLeads = map[string]struct{}{
	"you": {}, "your": {}, "yours": {}, "you're": {}, "yourself": {},
	"do": {}, "does": {}, "are": {}, "is": {}, "would": {}, "can": {}, "could": {}, "will": {},
	"it": {}, "that": {}, "this": {}, "them": {}, "me": {},
	"anything": {}, "something": {},
}

// Extractor scans transcripts. The zero value is usable.
type Extractor struct {
	ignoredPhones map[string]struct{}
	// ignoredNames holds the lower-cased words of each excluded name.
	ignoredNames []map[string]struct{}
}

type Option func(*Extractor)

// WithIgnoredPhones excludes numbers (typically the business's own line,
// which the assistant repeats) from phone matches.
func WithIgnoredPhones(phones ...string) Option {
	return func(e *Extractor) {
		if e.ignoredPhones == nil {
			e.ignoredPhones = make(map[string]struct{}, len(phones))
		}
		for _, p := range phones {
			if n := normalizePhone(p); n != "" {
				e.ignoredPhones[n] = struct{}{}
			}
		}
	}
}

// WithIgnoredNames excludes the business's own identities (company, lead
// electrician, assistant), which the assistant's turns mention, from name
// matches. A match is rejected when all of its words belong to one ignored
// name, so "Parker Electrical" is rejected for "Parker Electrical Solutions".
func WithIgnoredNames(names ...string) Option {
	return func(e *Extractor) {
		for _, n := range names {
			words := nameWords(n)
			if len(words) == 0 {
				continue
			}
			set := make(map[string]struct{}, len(words))
			for _, w := range words {
				set[w] = struct{}{}
			}
			e.ignoredNames = append(e.ignoredNames, set)
		}
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scan resolves all three fields independently.
func (e *Extractor) Scan(transcript string) Candidate {
	return Candidate{
		Name:    e.Name(transcript),
		Phone:   e.Phone(transcript),
		Service: e.Service(transcript),
	}
}

func (e *Extractor) Name(transcript string) string {
	return firstMatch([]matcher{
		pattern(nameIsRE, e.acceptName),
		pattern(introRE, e.acceptName),
		pattern(callMeRE, e.acceptName),
		pattern(bareNameR, e.acceptName),
	}, transcript)
}

func (e *Extractor) Phone(transcript string) string {
	return firstMatch([]matcher{
		pattern(phoneCueRE, e.acceptPhone),
		pattern(ukMobileRE, e.acceptPhone),
		pattern(barePhoneRE, e.acceptPhone),
	}, transcript)
}

func (e *Extractor) Service(transcript string) string {
	return firstMatch([]matcher{
		pattern(serviceCueRE, acceptService),
		pattern(keywordRE, acceptService),
	}, transcript)
}

// Transcript flattens turns of both roles into one scan-able text.
func Transcript(msgs []domain.ChatMessage) string {
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if t := strings.TrimSpace(m.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n")
}

func (e *Extractor) acceptName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < minNameLen || n > maxNameLen {
		return "", false
	}
	words := nameWords(s)
	for _, ignored := range e.ignoredNames {
		if containsAll(ignored, words) {
			return "", false
		}
	}
	return s, true
}

func acceptService(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < minServiceLen {
		return "", false
	}
	if f := strings.Fields(strings.ToLower(s)); len(f) > 0 {
		if _, ok := nonServiceLeads[strings.ReplaceAll(f[0], "’", "'")]; ok {
			return "", false
		}
	}
	return s, true
}

func nameWords(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func containsAll(set map[string]struct{}, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

func (e *Extractor) acceptPhone(s string) (string, bool) {
	s = stripSpace(s)
	if s == "" {
		return "", false
	}
	if _, ignored := e.ignoredPhones[normalizePhone(s)]; ignored {
		return "", false
	}
	return s, true
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// normalizePhone folds +44 / 44 prefixes onto the national 0 form so the
// same line written two ways compares equal.
func normalizePhone(s string) string {
	s = stripSpace(s)
	switch {
	case strings.HasPrefix(s, "+44"):
		return "0" + s[3:]
	case strings.HasPrefix(s, "44") && len(s) == 12:
		return "0" + s[2:]
	}
	return s
}
