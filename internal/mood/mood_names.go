package mood

// profile places an expression on the energy/valence plane.
type profile struct {
	energy  float32
	valence float32
}

var profiles = map[Expression]profile{
	Neutral:   {energy: 0.4, valence: 0.55},
	Happy:     {energy: 0.8, valence: 0.9},
	Sad:       {energy: 0.2, valence: 0.15},
	Angry:     {energy: 0.9, valence: 0.15},
	Fearful:   {energy: 0.7, valence: 0.2},
	Disgusted: {energy: 0.65, valence: 0.1},
	Surprised: {energy: 0.85, valence: 0.65},
}

// generateMoodName names an energy/valence point using a 2x2 quadrant system.
//
// Quadrants:
//   - High Energy + High Valence = "Upbeat & Joyful"
//   - High Energy + Low Valence  = "Intense & Dark"
//   - Low Energy  + High Valence = "Calm & Content"
//   - Low Energy  + Low Valence  = "Reflective & Melancholy"
func generateMoodName(energy, valence float32) string {
	highEnergy := energy > 0.6
	highValence := valence > 0.5

	switch {
	case highEnergy && highValence:
		return "Upbeat & Joyful"
	case highEnergy && !highValence:
		return "Intense & Dark"
	case !highEnergy && highValence:
		return "Calm & Content"
	default:
		return "Reflective & Melancholy"
	}
}

// Describe returns a short vibe description for a canonical expression,
// or "" for labels without a profile.
func Describe(e Expression) string {
	p, ok := profiles[e]
	if !ok {
		return ""
	}
	return generateMoodName(p.energy, p.valence)
}

// Category describes an expression for display and prompt building.
type Category struct {
	Name        string
	Energy      float32
	Valence     float32
	Description string
}

// GetCategory returns the display category for a canonical expression.
func GetCategory(e Expression) (Category, bool) {
	p, ok := profiles[e]
	if !ok {
		return Category{}, false
	}

	var description string
	switch {
	case p.energy > 0.6 && p.valence > 0.5:
		description = "high-energy, positive songs"
	case p.energy > 0.6:
		description = "driving songs with darker emotional tones"
	case p.valence > 0.5:
		description = "relaxed, easygoing songs"
	default:
		description = "slow, introspective songs"
	}

	return Category{
		Name:        generateMoodName(p.energy, p.valence),
		Energy:      p.energy,
		Valence:     p.valence,
		Description: description,
	}, true
}
