package sim

import "math"

// Vec3 is a point or direction in world space. The arena floor is the XZ
// plane; Y points up. Units are meters.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) LengthSq() float64 { return v.Dot(v) }

// DistanceTo returns the euclidean distance between two points.
func (v Vec3) DistanceTo(o Vec3) float64 { return o.Sub(v).Length() }

// FlatDistanceTo ignores the vertical component. Used for arrival checks so
// a waypoint on the floor is reachable by an agent with eye height.
func (v Vec3) FlatDistanceTo(o Vec3) float64 {
	dx := o.X - v.X
	dz := o.Z - v.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Normalized returns the unit vector, or the zero vector for near-zero input.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1.0 / l)
}

// Lerp interpolates toward o by t in [0,1].
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + (o.X-v.X)*t,
		Y: v.Y + (o.Y-v.Y)*t,
		Z: v.Z + (o.Z-v.Z)*t,
	}
}

// YawForward returns the horizontal forward vector for a yaw angle.
// Yaw is radians, 0 = +X, pi/2 = +Z.
func YawForward(yaw float64) Vec3 {
	return Vec3{X: math.Cos(yaw), Z: math.Sin(yaw)}
}

// YawPitchDir builds a unit direction from yaw and pitch (radians,
// positive pitch looks up).
func YawPitchDir(yaw, pitch float64) Vec3 {
	cp := math.Cos(pitch)
	return Vec3{
		X: math.Cos(yaw) * cp,
		Y: math.Sin(pitch),
		Z: math.Sin(yaw) * cp,
	}
}

// YawTo returns the yaw from one point toward another on the ground plane.
func YawTo(from, to Vec3) float64 {
	return math.Atan2(to.Z-from.Z, to.X-from.X)
}

// normalizeAngle wraps an angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// turnToward rotates current toward target by at most maxStep radians and
// returns the new angle. Snaps when the remaining difference fits the step.
func turnToward(current, target, maxStep float64) float64 {
	diff := normalizeAngle(target - current)
	if math.Abs(diff) <= maxStep {
		return target
	}
	if diff > 0 {
		return normalizeAngle(current + maxStep)
	}
	return normalizeAngle(current - maxStep)
}
