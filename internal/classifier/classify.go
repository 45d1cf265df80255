// Package classifier turns the free-form French text of a news entry into typed
// updates, each carrying the invader codes its action word applies to.
package classifier

import (
	"regexp"
	"strings"

	"invader-notifier/internal/normalize"
)

// Canonical action words as they appear on the site.
var actionWords = []struct {
	Word string
	Kind UpdateKind
}{
	{"Ajout", KindAddition},
	{"Réactivation", KindReactivation},
	{"Destruction", KindDestruction},
	{"Dégradation", KindDegradation},
}

var (
	// Codes attributed to a single action. Single-letter prefixes are allowed here.
	actionCodePattern = regexp.MustCompile(`[A-Z]+_\d+`)
	// Codes counted as invaders mentioned anywhere in an entry.
	itemCodePattern = regexp.MustCompile(`[A-Z]{2,}_\d+`)
)

type foldedAction struct {
	folded string
	kind   UpdateKind
}

var foldedActions = foldActionWords()

func foldActionWords() []foldedAction {
	out := make([]foldedAction, 0, len(actionWords))
	for _, a := range actionWords {
		out = append(out, foldedAction{
			folded: normalize.Fold(a.Word),
			kind:   a.Kind,
		})
	}
	return out
}

// occurrence is one action word found in the source text, as byte offsets into it.
type occurrence struct {
	start int
	end   int
	kind  UpdateKind
}

// findOccurrences scans the folded text once, left to right. Matches do not
// overlap and come out sorted by start offset.
func findOccurrences(text string) []occurrence {
	f := normalize.FoldWithOffsets(text)

	var out []occurrence
	for i := 0; i < len(f.Text); {
		matched := false
		for _, a := range foldedActions {
			if strings.HasPrefix(f.Text[i:], a.folded) {
				out = append(out, occurrence{
					start: f.SourceOffset(i),
					end:   f.SourceOffset(i + len(a.folded)),
					kind:  a.kind,
				})
				i += len(a.folded)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return out
}

// Classify returns the updates described by text, in order of appearance of
// their action words.
//
// Each action word owns the text up to the next action word (or the end) and
// yields an update only if that span contains at least one code. When no
// action yields anything but the text still mentions invaders, they are all
// returned as a single KindOther update.
func Classify(text string) []Update {
	occs := findOccurrences(text)

	var updates []Update
	for i, occ := range occs {
		spanEnd := len(text)
		if i+1 < len(occs) {
			spanEnd = occs[i+1].start
		}
		if spanEnd <= occ.end {
			continue
		}

		codes := dedupe(actionCodePattern.FindAllString(text[occ.end:spanEnd], -1))
		if len(codes) == 0 {
			continue
		}
		updates = append(updates, Update{Kind: occ.kind, Codes: codes})
	}

	if len(updates) == 0 {
		if codes := ExtractCodes(text); len(codes) > 0 {
			updates = append(updates, Update{Kind: KindOther, Codes: codes})
		}
	}

	return updates
}

// ExtractCodes returns every distinct invader code in text, in order of first appearance.
func ExtractCodes(text string) []ItemCode {
	return dedupe(itemCodePattern.FindAllString(text, -1))
}

func dedupe(codes []string) []ItemCode {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]ItemCode, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
