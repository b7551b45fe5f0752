package coach

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ahabook/linguaflow/internal/practice"
	"github.com/ahabook/linguaflow/internal/scoring"
)

// Field aliases seen in model output, preferred name first.
var (
	replyKeys     = []string{"reply", "response", "message", "assistant_reply"}
	feedbackKeys  = []string{"feedback", "comment", "notes"}
	nonTargetKeys = []string{"non_target_language", "nonTargetLanguage", "has_non_target_language", "hasNonTargetLanguage"}
	scoreKeys     = []string{"scores", "score", "dimensions"}
)

// parseAssessment extracts an assessment from model JSON. It accepts
// scores nested under "scores" or flat at the top level, numbers encoded
// as strings ("85", "85%", "85/100") and a missing feedback field.
// Individual unreadable dimensions score 0; no readable dimension at all,
// or no reply, is ErrMalformedResult.
func parseAssessment(raw []byte) (*practice.Assessment, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: not JSON", ErrMalformedResult)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedResult)
	}

	reply := strings.TrimSpace(first(root, replyKeys).String())
	if reply == "" {
		return nil, fmt.Errorf("%w: missing reply", ErrMalformedResult)
	}

	scores := first(root, scoreKeys)
	if !scores.IsObject() {
		scores = root
	}

	var (
		d     scoring.Dimensions
		found int
	)
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"communication", &d.Communication},
		{"accuracy", &d.Accuracy},
		{"scenario", &d.Scenario},
		{"fluency", &d.Fluency},
	} {
		if v, ok := number(scores.Get(f.key)); ok {
			*f.dst = v
			found++
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("%w: missing scores", ErrMalformedResult)
	}

	return &practice.Assessment{
		Scores:            d.Clamp(),
		Feedback:          text(first(root, feedbackKeys)),
		Reply:             reply,
		NonTargetLanguage: first(root, nonTargetKeys).Bool(),
	}, nil
}

// first returns the first key of keys present in obj.
func first(obj gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if r := obj.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

// number reads r as a rounded integer score.
func number(r gjson.Result) (int, bool) {
	switch r.Type {
	case gjson.Number:
		return toScore(r.Num), true
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		s = strings.TrimSuffix(s, "%")
		if num, _, ok := strings.Cut(s, "/"); ok {
			s = strings.TrimSpace(num)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return toScore(f), true
	}
	return 0, false
}

// toScore rounds f after bounding it to the score range, so huge values
// cannot overflow int.
func toScore(f float64) int {
	f = math.Max(float64(scoring.MinScore), math.Min(float64(scoring.MaxScore), f))
	return int(math.Round(f))
}

// text reads r as a string, joining arrays of strings with spaces.
func text(r gjson.Result) string {
	if r.IsArray() {
		var parts []string
		for _, item := range r.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return strings.TrimSpace(r.String())
}
