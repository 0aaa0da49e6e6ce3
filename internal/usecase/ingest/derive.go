package ingest

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/agridex/internal/domain/record"
)

// deriveLearnings builds quality-conditioned observations from the record.
func deriveLearnings(rec *record.Record) []string {
	out := rec.Outcome()
	var learnings []string

	if out.Quality.IsPositive() {
		learnings = append(learnings, fmt.Sprintf("%s work achieved a good result", rec.Category()))
		if w := rec.Weather(); w != nil && w.Condition != "" {
			learnings = append(learnings, fmt.Sprintf("working under %s conditions was effective", w.Condition))
		}
		return learnings
	}

	learnings = append(learnings, fmt.Sprintf("%s work has room for improvement", rec.Category()))
	if len(out.Issues) > 0 {
		learnings = append(learnings, "issues: "+strings.Join(out.Issues, ", "))
	}
	return learnings
}

// deriveRecommendations builds forward-looking suggestions: a caution for
// poor working weather, material effect tracking, and an echo of any
// recorded improvement ideas.
func deriveRecommendations(rec *record.Record) []string {
	var recs []string

	if w := rec.Weather(); w != nil && isPoorWorkingWeather(w.Condition) {
		recs = append(recs, fmt.Sprintf("work during %s weather may be less effective", w.Condition))
	}
	if materials := rec.Materials(); len(materials) > 0 {
		recs = append(recs, fmt.Sprintf("track the effect of %s over the coming weeks", materials[0].Name))
	}
	for _, imp := range rec.Outcome().Improvements {
		recs = append(recs, "suggested improvement: "+imp)
	}
	return recs
}

func isPoorWorkingWeather(condition string) bool {
	c := strings.ToLower(condition)
	return strings.Contains(c, "rain") || strings.Contains(c, "storm") || strings.Contains(c, "snow")
}
