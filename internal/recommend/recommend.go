// Package recommend produces clothing and activity advisories from current conditions.
package recommend

import "strings"

// Advisory texts.
const (
	HeavyJacket  = "Wear a heavy jacket and stay warm."
	LightJacket  = "Wear a light jacket or sweater."
	SummerClothe = "Wear comfortable summer clothes."
	Umbrella     = "Carry an umbrella or a raincoat."
	BootsAndCoat = "Wear boots and a warm coat."
	Outdoors     = "A great day for outdoor activities!"
)

// Temperature band edges in degrees Celsius.
const (
	coldBelow = 10.0
	warmFrom  = 20.0
)

var keywords = []struct {
	word     string
	advisory string
}{
	{"rain", Umbrella},
	{"snow", BootsAndCoat},
	{"clear", Outdoors},
}

// Recommend returns one temperature advisory followed by any keyword advisories
// matched in condition, in the order rain, snow, clear.
func Recommend(temperature float64, condition string) []string {
	out := make([]string, 0, 1+len(keywords))
	switch {
	case temperature < coldBelow:
		out = append(out, HeavyJacket)
	case temperature < warmFrom:
		out = append(out, LightJacket)
	default:
		out = append(out, SummerClothe)
	}

	lower := strings.ToLower(condition)
	for _, k := range keywords {
		if strings.Contains(lower, k.word) {
			out = append(out, k.advisory)
		}
	}
	return out
}
