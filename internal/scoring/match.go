// Package scoring implements answer matching, raw-to-band conversion and
// band aggregation for the auto-marked and examiner-marked sections.
package scoring

import (
	"strings"

	"github.com/pavelanni/bandscore/internal/model"
)

var punctuation = strings.NewReplacer(".", "", ",", "", "!", "", "?", "")

// Normalize lower-cases s, removes the characters . , ! ? and trims
// surrounding whitespace. Normalize is idempotent.
func Normalize(s string) string {
	return strings.TrimSpace(punctuation.Replace(strings.ToLower(s)))
}

// IsCorrect reports whether the student's answer matches the key.
//
// A list key requires a list answer of the same length that matches
// position by position; a single-value answer against a list key matches
// if it equals any entry. A single key matches the normalized key or any
// acceptable alternative. A blank answer never matches.
func IsCorrect(student, correct model.Answer, acceptable []string) bool {
	if student.IsEmpty() {
		return false
	}
	if correct.IsMulti() {
		return matchList(student, correct.Values())
	}
	if student.IsMulti() {
		vals := student.Values()
		if len(vals) != 1 {
			return false
		}
		student = model.Single(vals[0])
	}
	got := Normalize(student.Text())
	if got == "" {
		return false
	}
	if got == Normalize(correct.Text()) {
		return true
	}
	for _, alt := range acceptable {
		if got == Normalize(alt) {
			return true
		}
	}
	return false
}

func matchList(student model.Answer, keys []string) bool {
	if len(keys) == 0 {
		return false
	}
	if !student.IsMulti() {
		got := Normalize(student.Text())
		if got == "" {
			return false
		}
		for _, k := range keys {
			if got == Normalize(k) {
				return true
			}
		}
		return false
	}
	got := student.Values()
	if len(got) != len(keys) {
		return false
	}
	for i := range keys {
		g := Normalize(got[i])
		if g == "" || g != Normalize(keys[i]) {
			return false
		}
	}
	return true
}
