// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity decides which raw records genuinely belong to the
// target person. It is the gate against namesake pollution and runs
// before any record reaches scoring or synthesis.
package identity

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/profile-engine/pkg/types"
)

// folder strips diacritics: NFD decomposition, drop combining marks,
// recompose.
var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold returns a lowercased, diacritic-free form for comparison.
func Fold(s string) string {
	out, _, err := transform.String(folder, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Resolve checks every record against the person and returns one
// admission decision per record, in input order. Records are never
// mutated; rejected records carry the failing check in Reason.
func Resolve(person types.Person, records []types.RawRecord) []types.AdmissionDecision {
	decisions := make([]types.AdmissionDecision, 0, len(records))
	for _, r := range records {
		admitted, reason := check(person, r)
		decisions = append(decisions, types.AdmissionDecision{
			Record:   r,
			Admitted: admitted,
			Reason:   reason,
		})
	}
	return decisions
}

// Admitted filters decisions down to the admitted records.
func Admitted(decisions []types.AdmissionDecision) []types.RawRecord {
	var out []types.RawRecord
	for _, d := range decisions {
		if d.Admitted {
			out = append(out, d.Record)
		}
	}
	return out
}

func check(person types.Person, r types.RawRecord) (bool, string) {
	switch r.Kind {
	case types.RecordBiography:
		return checkBiography(person, r)
	default:
		return checkPublication(person, r)
	}
}

func checkPublication(person types.Person, r types.RawRecord) (bool, string) {
	if !anyAuthorMatches(person.CanonicalName, r.Authors) {
		return false, "no exact or near-exact author name match"
	}

	// Identity lock: records from generic name searches must be traceable
	// to the locked external id.
	if person.ExternalID != "" {
		if r.AuthorID() != person.ExternalID {
			return false, fmt.Sprintf("not traceable to locked identity %s", person.ExternalID)
		}
		return true, "author match, traceable to locked identity"
	}

	if len(person.AffiliationKeywords) > 0 {
		if kw := matchKeyword(person.AffiliationKeywords, r.Venue, r.Abstract, r.Affiliation); kw != "" {
			return true, fmt.Sprintf("author match, affiliation keyword %q", kw)
		}
		return false, "author match but no affiliation keyword in venue/abstract/affiliation"
	}

	// No lock and no keywords configured: the name check is the only
	// applicable gate.
	return true, "author match (no identity lock or affiliation keywords configured)"
}

func checkBiography(person types.Person, r types.RawRecord) (bool, string) {
	if !nameMatches(person.CanonicalName, r.Title) {
		return false, "biography subject does not match person name"
	}
	if len(person.AffiliationKeywords) > 0 {
		if kw := matchKeyword(person.AffiliationKeywords, r.Abstract, r.Affiliation); kw != "" {
			return true, fmt.Sprintf("subject match, affiliation keyword %q", kw)
		}
		return false, "subject match but no affiliation keyword in biography"
	}
	return true, "subject match (no affiliation keywords configured)"
}

func anyAuthorMatches(target string, authors []string) bool {
	for _, a := range authors {
		if nameMatches(target, a) {
			return true
		}
	}
	return false
}

// nameMatches reports an exact or near-exact match between two personal
// names after diacritic folding. Near-exact covers initialized given
// names ("K. L. Keller" vs "Kevin Lane Keller") and omitted middle names
// ("Kevin Keller"). Substring matching is deliberately not performed: a
// partial-name collision must not admit a namesake's record.
func nameMatches(target, candidate string) bool {
	t := nameParts(target)
	c := nameParts(candidate)
	if len(t) == 0 || len(c) == 0 {
		return false
	}

	// Surnames must match exactly.
	if t[len(t)-1] != c[len(c)-1] {
		return false
	}
	tGiven, cGiven := t[:len(t)-1], c[:len(c)-1]

	// A bare surname on either side is a partial name, not a match.
	if (len(tGiven) == 0) != (len(cGiven) == 0) {
		return false
	}

	// Every given-name part present on both sides must agree, allowing a
	// single-letter initial to stand in for the full name.
	shorter, longer := tGiven, cGiven
	if len(cGiven) < len(tGiven) {
		shorter, longer = cGiven, tGiven
	}
	for i, part := range shorter {
		if !givenPartMatches(part, longer[i]) {
			return false
		}
	}
	// The longer side may only add trailing middle names.
	return true
}

func givenPartMatches(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) == 1 {
		return strings.HasPrefix(b, a)
	}
	if len(b) == 1 {
		return strings.HasPrefix(a, b)
	}
	return false
}

func nameParts(name string) []string {
	folded := Fold(name)
	folded = strings.NewReplacer(".", " ", ",", " ").Replace(folded)
	return strings.Fields(folded)
}

// matchKeyword returns the first affiliation keyword found in any of the
// haystack fields, or "".
func matchKeyword(keywords []string, fields ...string) string {
	hay := Fold(strings.Join(fields, " "))
	for _, kw := range keywords {
		if kw = Fold(kw); kw != "" && strings.Contains(hay, kw) {
			return kw
		}
	}
	return ""
}
