package domain

// CallRequest is an immutable value describing a person's request for
// transport from origin to destination.
type CallRequest struct {
	CallID      int
	PersonID    int
	PersonType  PersonType
	Origin      Floor
	Destination Floor
	Direction   CallDirection
	RequestT    float64
}

// NewCallRequest builds a CallRequest, deriving Direction from the
// origin/destination pair.
func NewCallRequest(callID, personID int, personType PersonType, origin, destination Floor, requestT float64) CallRequest {
	return CallRequest{
		CallID:      callID,
		PersonID:    personID,
		PersonType:  personType,
		Origin:      origin,
		Destination: destination,
		Direction:   DirectionOf(origin, destination),
		RequestT:    requestT,
	}
}
