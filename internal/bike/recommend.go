package bike

import (
	"fmt"
	"math"
	"time"

	"github.com/kacan98/weather/internal/common"
)

// Deterioration thresholds. A drop of deteriorationDrop within the scan
// window counts as meaningful worsening; the scan looks at most
// deteriorationWindow intervals ahead.
const (
	deteriorationDrop   = 1.5
	deteriorationWindow = 16
)

// Recommendation is the synthesized advice across a series of departure
// options: a short label plus one sentence of quantitative reasoning.
type Recommendation struct {
	BestIndex        int     `json:"bestIndex"`
	Label            string  `json:"recommendation"`
	Reasoning        string  `json:"reasoning"`
	ScoreNow         float64 `json:"scoreNow"`
	ScoreBest        float64 `json:"scoreBest"`
	ScoreDifference  float64 `json:"scoreDifference"`
	MinutesToBest    int     `json:"minutesToBest"`
	Worsening        bool    `json:"worsening"`
	WorseningMinutes int     `json:"worseningMinutes,omitempty"`
	WorseningScore   float64 `json:"worseningScore,omitempty"`
}

// Recommend scans the ordered departure options and produces one
// recommended choice, honoring an optional preferred departure time and
// warning about upcoming deterioration. The first option is taken as
// "now".
func Recommend(options []DepartureOption, intervalMinutes int, preferred *time.Time) (Recommendation, error) {
	if len(options) == 0 {
		return Recommendation{}, fmt.Errorf("no departure options to recommend from")
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 15
	}

	bestIndex := 0
	for i, opt := range options {
		if opt.Overall.Score > options[bestIndex].Overall.Score {
			bestIndex = i
		}
	}

	nowScore := options[0].Overall.Score
	bestScore := options[bestIndex].Overall.Score
	improvement := common.Round1(bestScore - nowScore)
	minutesToBest := bestIndex * intervalMinutes

	rec := Recommendation{
		BestIndex:       bestIndex,
		ScoreNow:        nowScore,
		ScoreBest:       bestScore,
		ScoreDifference: improvement,
		MinutesToBest:   minutesToBest,
	}

	// Deterioration: first interval where the score drops meaningfully
	// below current conditions.
	for i := 1; i < len(options) && i <= deteriorationWindow; i++ {
		if nowScore-options[i].Overall.Score >= deteriorationDrop {
			rec.Worsening = true
			rec.WorseningMinutes = i * intervalMinutes
			rec.WorseningScore = options[i].Overall.Score
			break
		}
	}

	if preferred != nil {
		if idx, ok := preferredIndex(*preferred, options[0].DepartureTime, intervalMinutes, len(options)); ok {
			applyPreferred(&rec, options, idx, intervalMinutes)
			return rec, nil
		}
	}

	applyDefault(&rec)
	return rec, nil
}

// preferredIndex converts a preferred departure instant into an interval
// index. Preferences outside the generated window are ignored and the
// caller falls back to the default recommendation.
func preferredIndex(preferred, first time.Time, intervalMinutes, count int) (int, bool) {
	minutes := preferred.Sub(first).Minutes()
	idx := int(math.Round(minutes / float64(intervalMinutes)))
	if idx < 0 || idx >= count {
		return 0, false
	}
	return idx, true
}

func applyPreferred(rec *Recommendation, options []DepartureOption, idx, intervalMinutes int) {
	prefScore := options[idx].Overall.Score
	prefMinutes := idx * intervalMinutes
	nowScore := rec.ScoreNow

	switch {
	case idx == rec.BestIndex:
		rec.Label = "Your preferred time is optimal"
		rec.Reasoning = fmt.Sprintf(
			"Your preferred departure in %d minutes has the best conditions of the whole window (score %.1f vs %.1f now).",
			prefMinutes, prefScore, nowScore)
	case prefScore-nowScore >= 1.0:
		rec.Label = "Wait for your preferred time"
		rec.Reasoning = fmt.Sprintf(
			"Conditions improve from %.1f now to %.1f at your preferred departure in %d minutes.",
			nowScore, prefScore, prefMinutes)
	case math.Abs(prefScore-rec.ScoreBest) <= 0.5:
		rec.Label = "Your preferred time works well"
		rec.Reasoning = fmt.Sprintf(
			"Your preferred departure in %d minutes scores %.1f, within 0.5 of the best window's %.1f.",
			prefMinutes, prefScore, rec.ScoreBest)
	case prefScore-nowScore <= -1.0:
		rec.Label = "Leave now instead"
		rec.Reasoning = fmt.Sprintf(
			"Conditions drop from %.1f now to %.1f at your preferred time in %d minutes; going earlier avoids the worst of it.",
			nowScore, prefScore, prefMinutes)
	default:
		rec.Label = "Either time is fine"
		rec.Reasoning = fmt.Sprintf(
			"Your preferred departure in %d minutes scores %.1f against %.1f now; the difference is minor.",
			prefMinutes, prefScore, nowScore)
	}
}

func applyDefault(rec *Recommendation) {
	worseningFirst := rec.Worsening && rec.WorseningMinutes < rec.MinutesToBest

	switch {
	case rec.Worsening && rec.ScoreNow >= 6:
		rec.Label = "Leave soon"
		rec.Reasoning = fmt.Sprintf(
			"Conditions drop from %.1f to %.1f in %d minutes; current conditions are good, so go while they last.",
			rec.ScoreNow, rec.WorseningScore, rec.WorseningMinutes)
	case rec.BestIndex == 0:
		rec.Label = "Go now"
		rec.Reasoning = fmt.Sprintf(
			"Current conditions score %.1f and no later departure improves on that (best %.1f, 0 minutes away).",
			rec.ScoreNow, rec.ScoreBest)
	case rec.ScoreDifference < 0.5:
		rec.Label = "Leave now"
		if rec.Worsening {
			rec.Reasoning = fmt.Sprintf(
				"Waiting %d minutes gains only %.1f points (%.1f now vs %.1f) and conditions worsen to %.1f within %d minutes.",
				rec.MinutesToBest, rec.ScoreDifference, rec.ScoreNow, rec.ScoreBest, rec.WorseningScore, rec.WorseningMinutes)
		} else {
			rec.Reasoning = fmt.Sprintf(
				"Waiting %d minutes gains only %.1f points (%.1f now vs %.1f); there is no real benefit to delaying.",
				rec.MinutesToBest, rec.ScoreDifference, rec.ScoreNow, rec.ScoreBest)
		}
	case rec.ScoreDifference < 1.5:
		if worseningFirst {
			rec.Label = "Leave now"
			rec.Reasoning = fmt.Sprintf(
				"Conditions dip to %.1f in %d minutes before the better window (%.1f) arrives; leaving now at %.1f avoids riding through the dip.",
				rec.WorseningScore, rec.WorseningMinutes, rec.ScoreBest, rec.ScoreNow)
		} else {
			rec.Label = "Consider waiting"
			rec.Reasoning = fmt.Sprintf(
				"Conditions improve from %.1f to %.1f if you wait %d minutes.",
				rec.ScoreNow, rec.ScoreBest, rec.MinutesToBest)
		}
	default:
		if worseningFirst {
			rec.Label = "Leave now"
			rec.Reasoning = fmt.Sprintf(
				"Conditions dip to %.1f in %d minutes before the much better window (%.1f) arrives; leaving now at %.1f avoids the dip.",
				rec.WorseningScore, rec.WorseningMinutes, rec.ScoreBest, rec.ScoreNow)
		} else {
			rec.Label = fmt.Sprintf("Wait %d minutes", rec.MinutesToBest)
			rec.Reasoning = fmt.Sprintf(
				"Score improves from %.1f to %.1f if you depart in %d minutes.",
				rec.ScoreNow, rec.ScoreBest, rec.MinutesToBest)
		}
	}
}
