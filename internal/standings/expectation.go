package standings

import "math"

// pythagenpat derives the exponent from the scoring environment:
// ((for + against) / matches) ^ 0.287.
func pythagenpat(pointsFor, pointsAgainst float64, totalMatches int) float64 {
	return math.Pow((pointsFor+pointsAgainst)/float64(totalMatches), PythagenpatPower)
}

// expectation is the Pythagorean win expectation. 0 for and 0 against with
// a positive exponent gives NaN, which callers must treat as no data.
func expectation(pointsFor, pointsAgainst, exponent float64) float64 {
	f := math.Pow(pointsFor, exponent)
	a := math.Pow(pointsAgainst, exponent)
	return f / (f + a)
}
