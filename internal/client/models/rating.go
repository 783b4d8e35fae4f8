package models

// Rating expresses recall difficulty: 0 is hardest, 10 is easiest.
type Rating int

const (
	MinRating     Rating = 0
	MaxRating     Rating = 10
	DefaultRating Rating = 10

	// successThreshold mirrors the service: ratings at or above it count as
	// a successful recall in session statistics.
	successThreshold Rating = 7
)

// Valid reports whether r is within [MinRating, MaxRating].
func (r Rating) Valid() bool {
	return r >= MinRating && r <= MaxRating
}

// Success reports whether the service will count r as a successful recall.
func (r Rating) Success() bool {
	return r >= successThreshold
}

// ClampRating forces r into [MinRating, MaxRating].
func ClampRating(r int) Rating {
	switch {
	case r < int(MinRating):
		return MinRating
	case r > int(MaxRating):
		return MaxRating
	default:
		return Rating(r)
	}
}
