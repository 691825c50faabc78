// Package mood reduces facial expression readings and free text to a single
// mood query for the suggestion gateway.
package mood

import (
	"math"
	"strings"
)

// Expression is one of the canonical facial expression labels.
type Expression string

// Canonical expression labels.
const (
	Neutral   Expression = "neutral"
	Happy     Expression = "happy"
	Sad       Expression = "sad"
	Angry     Expression = "angry"
	Fearful   Expression = "fearful"
	Disgusted Expression = "disgusted"
	Surprised Expression = "surprised"
)

// Expressions lists the canonical labels in canonical order.
// Ties in Resolve go to the label that appears first here.
var Expressions = []Expression{Neutral, Happy, Sad, Angry, Fearful, Disgusted, Surprised}

// Reading maps expression labels to detector confidence in [0,1].
// A nil or empty Reading means no face was detected.
type Reading map[Expression]float64

// Query is a non-empty, trimmed mood description.
type Query string

// String returns the query text.
func (q Query) String() string {
	return string(q)
}

// Expression returns the canonical label the query names, if any.
func (q Query) Expression() (Expression, bool) {
	return ParseExpression(string(q))
}

// ParseExpression looks up a canonical label, ignoring case and surrounding whitespace.
func ParseExpression(s string) (Expression, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range Expressions {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

// ParseQuery validates manually entered text.
// Returns false if nothing is left after trimming.
func ParseQuery(text string) (Query, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return Query(text), true
}

// Resolve returns the dominant expression of a reading as a query.
// The label with the strictly greatest confidence wins; ties go to the
// earliest label in canonical order. Labels outside the canonical set and
// non-finite scores are ignored. Returns false for nil or empty readings.
func Resolve(r Reading) (Query, bool) {
	e, ok := Dominant(r)
	if !ok {
		return "", false
	}
	return Query(e), true
}

// Dominant returns the expression with the highest confidence in r.
func Dominant(r Reading) (Expression, bool) {
	if len(r) == 0 {
		return "", false
	}

	var (
		best      Expression
		bestScore float64
		found     bool
	)
	for _, e := range Expressions {
		score, ok := r[e]
		if !ok || math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = e, score, true
		}
	}
	return best, found
}
