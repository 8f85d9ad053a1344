package geospatial

var compassPoints = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassDirection converts a bearing in degrees to the closest 8-point
// compass label.
func CompassDirection(bearing float64) string {
	h := NormalizeDegrees(bearing + 22.5) // [0,45) is north, etc.
	return compassPoints[int(h/45)%len(compassPoints)]
}
