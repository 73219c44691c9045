package domain

// PersonType classifies a person for arrival-curve and
// destination-sampling purposes.
type PersonType string

const (
	PersonResident     PersonType = "Resident"
	PersonOfficeWorker PersonType = "OfficeWorker"
	PersonShopper      PersonType = "Shopper"
)

// PersonLifecycleState tracks a person through the system.
type PersonLifecycleState string

const (
	PersonNotSpawned PersonLifecycleState = "not-spawned"
	PersonWaiting    PersonLifecycleState = "waiting"
	PersonRiding     PersonLifecycleState = "riding"
	PersonStaying    PersonLifecycleState = "staying"
	PersonCompleted  PersonLifecycleState = "completed"
)

// Person is a single simulated traveler.
type Person struct {
	ID           int
	Type         PersonType
	CurrentFloor Floor
	Route        Route
	RouteIndex   int
	State        PersonLifecycleState
}

// NewPerson constructs a Person at the not-spawned state; the passenger
// controller transitions it to waiting when the first call is submitted.
func NewPerson(id int, personType PersonType, startFloor Floor, route Route) Person {
	return Person{
		ID:           id,
		Type:         personType,
		CurrentFloor: startFloor,
		Route:        route,
		RouteIndex:   0,
		State:        PersonNotSpawned,
	}
}

// CurrentDestination returns the destination the person is currently
// traveling toward, or false if the route has been exhausted.
func (p Person) CurrentDestination() (Destination, bool) {
	if p.RouteIndex >= p.Route.Len() {
		return Destination{}, false
	}
	return p.Route.At(p.RouteIndex), true
}
