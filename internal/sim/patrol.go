package sim

// Waypoint is one stop on a patrol route.
type Waypoint struct {
	Pos  Vec3
	Wait float64 // seconds to hold after arrival
}

// PatrolRoute is an ordered loop of waypoints. Routes are immutable once
// built; giving an agent a new route resets its traversal index to 0.
type PatrolRoute struct {
	points []Waypoint
}

// NewPatrolRoute copies the given waypoints into a route. Returns nil for an
// empty list so "no route" stays a nil check.
func NewPatrolRoute(points ...Waypoint) *PatrolRoute {
	if len(points) == 0 {
		return nil
	}
	cp := make([]Waypoint, len(points))
	copy(cp, points)
	return &PatrolRoute{points: cp}
}

// Len returns the number of waypoints.
func (r *PatrolRoute) Len() int {
	if r == nil {
		return 0
	}
	return len(r.points)
}

// Point returns waypoint i. Callers index modulo Len.
func (r *PatrolRoute) Point(i int) Waypoint {
	return r.points[i]
}

// arrivalDist is how close an agent must get to a waypoint or search point
// to count as arrived, in meters.
const arrivalDist = 0.5
