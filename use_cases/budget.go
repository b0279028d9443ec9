package use_cases

// Video generation renders fixed 8-second clips, so a chunk's description
// count is its audio duration divided into 8-second units, rounded to the
// nearest unit with a 4-second midpoint: 19.9s -> 2, 20.0s -> 3, 28.0s -> 4.
const videoUnitSeconds = 8.0

// descriptionBudget returns how many video descriptions a chunk of the
// given spoken duration should yield. Zero is a valid result for short
// chunks: the chunk is narrated but gets no clip of its own.
func descriptionBudget(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	units := int(seconds / videoUnitSeconds)
	if seconds-float64(units)*videoUnitSeconds >= videoUnitSeconds/2 {
		units++
	}
	return units
}
