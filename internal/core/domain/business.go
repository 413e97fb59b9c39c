package domain

// Business is the advertised entity an advertisement points at. Its location
// serves as the geo-targeting fallback when neither the ad nor its campaign
// declares a point.
type Business struct {
	ID       int64
	Name     string
	Category string
	Lat      *float64
	Lng      *float64
}
