package bike

import (
	"github.com/kacan98/weather/internal/common"
	"github.com/kacan98/weather/internal/weather"
)

// Rating is the 1-10 cycling-suitability score for one weather sample plus
// the labels of every condition that influenced it.
type Rating struct {
	Score   float64  `json:"score"`
	Factors []string `json:"factors"`
}

// Score rates a normalized weather sample for cycling. The algorithm is
// deterministic and identical for every provider: base 10.0, additive
// banded penalties with the first matching band per category, every
// intermediate result rounded to one decimal, final value clamped to
// [1,10]. Gust is preferred over sustained wind when reported.
func Score(sample weather.Sample) Rating {
	score := 10.0
	var factors []string

	apply := func(delta float64, factor string) {
		score = common.Round1(score + delta)
		factors = append(factors, factor)
	}

	// Temperature.
	switch {
	case sample.Temperature < -5:
		apply(-4, "Extremely cold temperature")
	case sample.Temperature < 0:
		apply(-3, "Very cold temperature")
	case sample.Temperature < 5:
		apply(-2, "Cold temperature")
	case sample.Temperature < 10:
		apply(-1, "Chilly temperature")
	case sample.Temperature > 35:
		apply(-3, "Extremely hot temperature")
	case sample.Temperature > 30:
		apply(-2, "Very hot temperature")
	case sample.Temperature > 25:
		apply(-1, "Hot temperature")
	}

	// Wind, preferring gust when reported.
	wind := sample.WindSpeed
	if sample.WindGust > 0 {
		wind = sample.WindGust
	}
	switch {
	case wind > 50:
		apply(-3, "Dangerous wind speeds")
	case wind > 35:
		apply(-2, "Very strong wind")
	case wind > 25:
		apply(-1, "Strong wind")
	case wind > 20:
		apply(-0.5, "Moderate wind")
	}

	// Precipitation. Frozen precipitation dominates and skips rain scoring.
	if common.HasAny(sample.Condition, "snow", "sleet", "blizzard") {
		apply(-5, "Snow or sleet - not suitable for biking")
	} else {
		impact := 0.0
		var rainFactors []string

		switch {
		case sample.Precipitation > 5:
			impact += 4
			rainFactors = append(rainFactors, "Heavy rain")
		case sample.Precipitation > 2:
			impact += 3
			rainFactors = append(rainFactors, "Moderate rain")
		case sample.Precipitation > 0.5:
			impact += 2
			rainFactors = append(rainFactors, "Light rain")
		case sample.Precipitation > 0.1:
			impact += 1
			rainFactors = append(rainFactors, "Drizzle")
		}

		// Probability only matters while there is no measurable rain yet.
		if sample.Precipitation <= 0.1 {
			switch {
			case sample.RainChance > 80:
				impact += 1.5
				rainFactors = append(rainFactors, "Very high chance of rain")
			case sample.RainChance > 60:
				impact += 1
				rainFactors = append(rainFactors, "High chance of rain")
			case sample.RainChance > 40:
				impact += 0.5
				rainFactors = append(rainFactors, "Moderate chance of rain")
			}
		}

		if impact > 4 {
			impact = 4
		}
		if impact > 0 {
			score = common.Round1(score - impact)
			factors = append(factors, rainFactors...)
		}
	}

	// Visibility.
	switch {
	case sample.Visibility < 0.5:
		apply(-4, "Extremely poor visibility")
	case sample.Visibility < 1:
		apply(-3, "Very poor visibility")
	case sample.Visibility < 5:
		apply(-1, "Poor visibility")
	}

	// UV index. Only the extreme band carries a penalty.
	switch {
	case sample.UVIndex >= 11:
		apply(-0.5, "Extreme UV - avoid midday sun")
	case sample.UVIndex >= 8:
		factors = append(factors, "Very high UV - wear sunscreen")
	case sample.UVIndex >= 6:
		factors = append(factors, "High UV - wear sunscreen")
	}

	// Perfect-conditions bonus.
	if sample.Temperature >= 15 && sample.Temperature <= 24 &&
		sample.WindSpeed < 10 && sample.RainChance < 10 && sample.Precipitation == 0 {
		apply(1, "Perfect biking weather!")
	}

	return Rating{
		Score:   common.Clamp(score, 1, 10),
		Factors: factors,
	}
}
