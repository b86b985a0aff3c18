package sim

const (
	tracerLife = 0.12 // seconds a tracer line stays visible
	blastLife  = 0.45 // seconds a blast ring stays visible
)

// Tracer is the transient line left by a hitscan shot, from the muzzle to
// the deepest point the ray reached. Every shot leaves one, hit or miss.
type Tracer struct {
	From, To Vec3
	Age      float64
	Life     float64
}

// Blast is the transient ring left by a detonation.
type Blast struct {
	Center Vec3
	Radius float64
	Age    float64
	Life   float64
}

// stepTracers ages the list in place and drops expired entries.
func stepTracers(ts []Tracer, dt float64) []Tracer {
	out := ts[:0]
	for _, t := range ts {
		t.Age += dt
		if t.Age < t.Life {
			out = append(out, t)
		}
	}
	return out
}

// stepBlasts ages the list in place and drops expired entries.
func stepBlasts(bs []Blast, dt float64) []Blast {
	out := bs[:0]
	for _, b := range bs {
		b.Age += dt
		if b.Age < b.Life {
			out = append(out, b)
		}
	}
	return out
}
