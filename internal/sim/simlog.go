package sim

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a simulation run.
type SimLogEntry struct {
	Tick     int
	Actor    string  // label e.g. "G0" for guards, "PL" for the player, "--" global
	Side     string  // "guard", "player", or "--"
	Category string  // state, vision, alert, move, attack, weapon, proj, blast, damage, death, spawn, search
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] G0   state     change          patrol → alert
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s",
		e.Tick, e.Actor, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a run. Unlike ThoughtLog (a small
// per-agent ring buffer), SimLog is unbounded and machine-readable: scenario
// tests assert on it and the recorder/stream sinks are fed from it.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick position and
// alertness entries are also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Append records a prebuilt entry.
func (sl *SimLog) Append(e SimLogEntry) {
	sl.entries = append(sl.entries, e)
}

// Add records a new entry from its fields.
func (sl *SimLog) Add(tick int, actor, side, category, key, value string, numVal float64) {
	sl.Append(SimLogEntry{
		Tick:     tick,
		Actor:    actor,
		Side:     side,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, actor, side, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, actor, side, category, key, value, numVal)
}

// Verbose reports whether per-tick detail entries are being recorded.
func (sl *SimLog) Verbose() bool { return sl.verbose }

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry { return sl.entries }

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterActor returns entries for a specific actor label.
func (sl *SimLog) FilterActor(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Actor == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and
// value substring. Empty strings match anything.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns a log string filtered to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick int) string {
	var sb strings.Builder
	for _, e := range sl.FilterTickRange(fromTick, toTick) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable digest of the current sim state.
func (sl *SimLog) Summary(tick int, agents []*Agent, player *Player) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)

	// State distribution.
	counts := map[AgentState]int{}
	alive := 0
	for _, a := range agents {
		counts[a.State()]++
		if a.State() != StateDead {
			alive++
		}
	}
	sb.WriteString("Guards: ")
	for _, st := range []AgentState{StateIdle, StatePatrol, StateAlert, StateAttack, StateSearch, StateDead} {
		if n := counts[st]; n > 0 {
			fmt.Fprintf(&sb, "%s=%d  ", st, n)
		}
	}
	fmt.Fprintf(&sb, "(alive %d/%d)\n", alive, len(agents))

	// Per-guard alertness and sight.
	for _, a := range agents {
		if a.State() == StateDead {
			continue
		}
		seen := " "
		if a.TargetVisible() {
			seen = "*"
		}
		fmt.Fprintf(&sb, "%s%s alertness=%.1f hp=%d state=%s\n",
			seen, a.Label(), a.Alertness(), a.Health(), a.State())
	}

	if player != nil {
		fmt.Fprintf(&sb, "Player: hp=%d pos=(%.1f,%.1f)\n",
			player.Health(), player.Position().X, player.Position().Z)
	}
	return sb.String()
}
