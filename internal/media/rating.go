package media

import "math"

// RatingFromTen converts a 1-10 provider rating to the 0.5-5.0 Letterboxd
// scale, rounded to the nearest half star.
func RatingFromTen(rating float64) float64 {
	if rating <= 0 {
		return 0
	}
	half := rating / 2.0
	return math.Round(half*2) / 2
}
