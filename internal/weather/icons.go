package weather

import (
	"math"
	"strings"
)

// FallbackIcon is shown for icon codes outside the known set.
const FallbackIcon = "help-circle-outline"

// DefaultGradient is the background for unknown codes and for screens with no weather loaded.
var DefaultGradient = []string{"#4c669f", "#3b5998", "#192f6a"}

var conditionByPrefix = map[string]Condition{
	"01": ConditionClear,
	"02": ConditionFewClouds,
	"03": ConditionScatteredClouds,
	"04": ConditionBrokenClouds,
	"09": ConditionShowers,
	"10": ConditionRain,
	"11": ConditionStorm,
	"13": ConditionSnow,
	"50": ConditionMist,
}

type look struct {
	icon     string
	gradient []string
}

type lookKey struct {
	condition Condition
	daypart   Daypart
}

var looks = map[lookKey]look{
	{ConditionClear, Day}:             {"weather-sunny", []string{"#f7b733", "#fc9d3a", "#fc4a1a"}},
	{ConditionClear, Night}:           {"weather-night", []string{"#2c3e7a", "#1a2456", "#0b1030"}},
	{ConditionFewClouds, Day}:         {"weather-partly-cloudy", []string{"#56ccf2", "#4a9fe0", "#2f80ed"}},
	{ConditionFewClouds, Night}:       {"weather-night-partly-cloudy", []string{"#3a4a7a", "#283660", "#141e3c"}},
	{ConditionScatteredClouds, Day}:   {"weather-cloudy", []string{"#8fa8c8", "#6f8bb0", "#4f6f98"}},
	{ConditionScatteredClouds, Night}: {"weather-cloudy", []string{"#4b5a75", "#36435a", "#222c3f"}},
	{ConditionBrokenClouds, Day}:      {"weather-cloudy", []string{"#7f8c9d", "#66788c", "#4d6179"}},
	{ConditionBrokenClouds, Night}:    {"weather-cloudy", []string{"#3e4756", "#2c3440", "#1b212b"}},
	{ConditionShowers, Day}:           {"weather-pouring", []string{"#5f7d95", "#476579", "#2f4d5e"}},
	{ConditionShowers, Night}:         {"weather-pouring", []string{"#34495e", "#263747", "#18242f"}},
	{ConditionRain, Day}:              {"weather-rainy", []string{"#6a8ee0", "#4a6fbe", "#2a4f9c"}},
	{ConditionRain, Night}:            {"weather-night-rainy", []string{"#2e3f6e", "#1f2d55", "#111b3b"}},
	{ConditionStorm, Day}:             {"weather-lightning-rainy", []string{"#616161", "#4b4b5e", "#373b44"}},
	{ConditionStorm, Night}:           {"weather-lightning-rainy", []string{"#3a3a4a", "#2a2a38", "#141420"}},
	{ConditionSnow, Day}:              {"weather-snowy", []string{"#e6f0fa", "#b8d0e8", "#8fb1d6"}},
	{ConditionSnow, Night}:            {"weather-snowy", []string{"#8e9eb8", "#6c7d99", "#4b5c7a"}},
	{ConditionMist, Day}:              {"weather-fog", []string{"#bdc3c7", "#a4acb2", "#8a949b"}},
	{ConditionMist, Night}:            {"weather-fog", []string{"#5d6d7e", "#4a5866", "#37434e"}},
}

// ParseIconCode splits a provider icon code such as "10n" into its
// condition and daypart. ok is false for anything outside the known set.
func ParseIconCode(code string) (Condition, Daypart, bool) {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return ConditionUnknown, Day, false
	}
	cond, ok := conditionByPrefix[code[:2]]
	if !ok {
		return ConditionUnknown, Day, false
	}
	switch Daypart(code[2:]) {
	case Day:
		return cond, Day, true
	case Night:
		return cond, Night, true
	}
	return ConditionUnknown, Day, false
}

// IconName maps an icon code to a display icon name.
func IconName(code string) string {
	cond, part, ok := ParseIconCode(code)
	if !ok {
		return FallbackIcon
	}
	return looks[lookKey{cond, part}].icon
}

// Gradient maps an icon code to background gradient colors. The returned
// slice is a copy.
func Gradient(code string) []string {
	cond, part, ok := ParseIconCode(code)
	if !ok {
		return append([]string(nil), DefaultGradient...)
	}
	return append([]string(nil), looks[lookKey{cond, part}].gradient...)
}

// Presentation is the render-ready form of a CurrentWeather.
type Presentation struct {
	City         string   `json:"city"`
	Icon         string   `json:"icon"`
	Gradient     []string `json:"gradient"`
	TemperatureC int      `json:"temperatureC"`
	Description  string   `json:"description"`
	Date         string   `json:"date"`
}

func Present(w CurrentWeather) Presentation {
	primary := w.Primary()
	return Presentation{
		City:     w.Name,
		Icon:     IconName(primary.Icon),
		Gradient: Gradient(primary.Icon),
		// half-up, so -2.5 displays as -2
		TemperatureC: int(math.Floor(w.Main.Temp + 0.5)),
		Description:  primary.Description,
		Date:         w.ObservedAt().Format("Jan 2, 2006"),
	}
}
