package domain

// PlacementRequest describes a single inbound ad placement call. It captures
// the targeted ad unit plus whatever context the page was able to supply:
// the viewer, their location, the page category and keywords, and the
// device. The HTTP layer constructs this struct from request data and it is
// immutable from then on.
type PlacementRequest struct {
	AdUnitID int64
	// UserID identifies the viewer when a session exists. Empty means
	// anonymous; frequency capping is skipped for anonymous requests.
	UserID   string
	Location *GeoLocation
	Category string
	Keywords []string
	Device   *Device
}

// GeoLocation is a point with an optional search radius in meters.
type GeoLocation struct {
	Lat    float64
	Lng    float64
	Radius float64 // meters; 0 means unspecified
}

// Device describes the requesting device as reported by the caller.
type Device struct {
	Type    string // mobile, desktop, tablet, tv
	OS      string
	Browser string
}
