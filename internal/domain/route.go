package domain

// Destination is one stop of a Route: a floor and how long the person
// plans to stay there before the next leg (or forever, for the last leg).
type Destination struct {
	Floor              Floor
	PlannedStaySeconds float64
}

// Route is a non-empty, immutable ordered sequence of Destinations.
type Route struct {
	destinations []Destination
}

// NewRoute validates and constructs a Route. A route with zero
// destinations is a construction-time error.
func NewRoute(destinations []Destination) (Route, error) {
	if len(destinations) == 0 {
		return Route{}, ErrRouteEmpty
	}
	cp := make([]Destination, len(destinations))
	copy(cp, destinations)
	return Route{destinations: cp}, nil
}

// Len returns the number of destinations in the route.
func (r Route) Len() int {
	return len(r.destinations)
}

// At returns the destination at the given index.
func (r Route) At(index int) Destination {
	return r.destinations[index]
}
