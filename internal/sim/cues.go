package sim

// Cue identifiers the core emits. Whatever audio/animation backend the host
// supplies maps these to real assets; the sim only names them.
const (
	CueAnimMove  = "move"
	CueAnimAlert = "alert"
	CueAnimDeath = "death"

	CueSoundAlert   = "alert"
	CueSoundDeath   = "death"
	CueSoundAttack  = "attack"
	CueSoundFire    = "fire"
	CueSoundEmpty   = "empty"
	CueSoundReload  = "reload"
	CueSoundExplode = "explode"
)

// AudioSink receives fire-and-forget sound cues.
type AudioSink interface {
	PlaySound(id string)
}

// AnimationSink receives animation cues for one animated model.
type AnimationSink interface {
	PlayAnimation(handle string, loop bool)
	StopAnimation()
}

// NopCues discards every cue. The default for headless runs.
type NopCues struct{}

func (NopCues) PlaySound(string) {}

func (NopCues) PlayAnimation(string, bool) {}

func (NopCues) StopAnimation() {}

// CueRecorder keeps every cue in order. Tests assert on it; the sandbox
// reads it to flash labels.
type CueRecorder struct {
	Sounds []string
	Anims  []AnimCue
}

// AnimCue is one recorded PlayAnimation call.
type AnimCue struct {
	Handle string
	Loop   bool
}

func (r *CueRecorder) PlaySound(id string) {
	r.Sounds = append(r.Sounds, id)
}

func (r *CueRecorder) PlayAnimation(handle string, loop bool) {
	r.Anims = append(r.Anims, AnimCue{Handle: handle, Loop: loop})
}

func (r *CueRecorder) StopAnimation() {}

// CountSound returns how many times a sound id was played.
func (r *CueRecorder) CountSound(id string) int {
	n := 0
	for _, s := range r.Sounds {
		if s == id {
			n++
		}
	}
	return n
}

// CountAnim returns how many times an animation handle was started.
func (r *CueRecorder) CountAnim(handle string) int {
	n := 0
	for _, a := range r.Anims {
		if a.Handle == handle {
			n++
		}
	}
	return n
}

// Reset clears recorded cues.
func (r *CueRecorder) Reset() {
	r.Sounds = r.Sounds[:0]
	r.Anims = r.Anims[:0]
}
