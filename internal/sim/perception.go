package sim

import "math"

// Pose is an observer's eye position and facing for a perception check.
type Pose struct {
	Eye Vec3
	Yaw float64 // radians, 0 = +X
}

// OcclusionTest reports whether the path from eye to target is clear, i.e.
// the first thing a probe ray meets is the target itself. Implementations
// that cannot identify what they hit must return false: an ambiguous ray
// means "not visible", never an error.
type OcclusionTest func(eye, target Vec3, dist float64) bool

// CanPerceive decides whether an observer at pose senses a target point.
// The gates run cheapest first:
//
//  1. range: reject beyond maxRange
//  2. cone: reject when the angle between the facing and the direction to
//     the target exceeds fovDeg/2 (acos of the dot product, in degrees)
//  3. occlusion: reject when the probe ray hits something else first
//
// The returned distance is valid whenever the range gate passed.
func CanPerceive(pose Pose, target Vec3, fovDeg, maxRange float64, occlusion OcclusionTest) (bool, float64) {
	delta := target.Sub(pose.Eye)
	dist := delta.Length()
	if dist > maxRange {
		return false, dist
	}
	if dist < 1e-9 {
		// Degenerate: no direction to compare against.
		return false, dist
	}

	dir := delta.Scale(1.0 / dist)
	forward := YawForward(pose.Yaw)
	dot := math.Max(-1, math.Min(1, forward.Dot(dir)))
	angleDeg := math.Acos(dot) * 180.0 / math.Pi
	if angleDeg > fovDeg/2.0 {
		return false, dist
	}

	if occlusion != nil && !occlusion(pose.Eye, target, dist) {
		return false, dist
	}
	return true, dist
}

// alertnessGain is the accrual applied after a successful perception check:
// closer targets alarm faster, scaled by the tick's delta time.
func alertnessGain(baseRate, dist, maxRange, dt, scale float64) float64 {
	if maxRange <= 0 {
		return 0
	}
	return baseRate * (1.0 - dist/maxRange) * dt * scale
}
