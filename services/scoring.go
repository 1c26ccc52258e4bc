package services

import "math"

const (
	// EarthRadiusKm for great-circle distances.
	EarthRadiusKm = 6371.0

	// MaxRoundPoints is the score for a perfect guess.
	MaxRoundPoints = 5000

	// perfectGuessKm: anything under 30 m counts as a perfect guess.
	perfectGuessKm = 0.03

	// nearPerfectPoints: scores above this snap to the maximum. The check
	// runs after the hint penalty, so a hinted pin-drop still gets 5000.
	nearPerfectPoints = 4997

	// xpPerPointDivisor converts round points into XP.
	xpPerPointDivisor = 50

	// MinMaxDist is the smallest scoring falloff scale a game may use, in
	// km. Submissions below it are rejected as invalid.
	MinMaxDist = 10.0
)

// FindDistance returns the great-circle distance between two coordinates in
// kilometers (haversine). Identical and antipodal points are both fine.
func FindDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Guess carries everything needed to score one round.
type Guess struct {
	Lat      float64 // target
	Lon      float64
	GuessLat float64
	GuessLon float64
	UsedHint bool
	MaxDist  float64 // km, > 0 (callers validate against MinMaxDist)
}

// CalcPoints converts a guess into a round score in [0, 5000].
//
// The order of operations is load-bearing: the hint penalty halves the score
// before the near-perfect snap is checked, and the 30 m override runs last
// and wins over everything.
func CalcPoints(g Guess) int {
	dist := FindDistance(g.Lat, g.Lon, g.GuessLat, g.GuessLon)
	pts := float64(MaxRoundPoints) * math.Exp(-10*dist/g.MaxDist)
	if g.UsedHint {
		pts = pts / 2
	}
	if pts > nearPerfectPoints {
		pts = MaxRoundPoints
	}
	if dist < perfectGuessKm {
		pts = MaxRoundPoints
	}
	return int(math.Round(pts))
}

// CalcXP converts a round score into experience.
func CalcXP(points int) int64 {
	return int64(math.Round(float64(points) / xpPerPointDivisor))
}
