// Package phase classifies flight samples into the three phases that gate
// stability reduction.
package phase

import "math"

// Phase is a flight phase. Phases only ever advance.
type Phase int

const (
	PreLaunchRod Phase = iota
	AirStabilizedAscent
	PostApogeeOrOther
)

func (p Phase) String() string {
	switch p {
	case PreLaunchRod:
		return "pre_launch_rod"
	case AirStabilizedAscent:
		return "ascent"
	case PostApogeeOrOther:
		return "post_apogee"
	default:
		return "unknown"
	}
}

// Parse maps the names produced by String back to a Phase.
func Parse(s string) (Phase, bool) {
	for _, p := range []Phase{PreLaunchRod, AirStabilizedAscent, PostApogeeOrOther} {
		if p.String() == s {
			return p, true
		}
	}
	return PreLaunchRod, false
}

// Events holds the two boundary event times. A NaN apogee means the apogee
// is not known and ascent lasts until the end of the run.
type Events struct {
	LaunchRod float64
	Apogee    float64
}

// Classifier decides the phase of each sample. It is driven either by event
// times (Classify) or by per-step flags (Observe), and latches so that a
// phase is never re-entered once left.
type Classifier struct {
	events  Events
	current Phase
}

func NewClassifier(ev Events) *Classifier {
	return &Classifier{events: ev}
}

func (c *Classifier) Events() Events { return c.events }

// Current returns the latest phase seen.
func (c *Classifier) Current() Phase { return c.current }

// Classify returns the phase at time t:
//
//	t < launchRod              PreLaunchRod
//	launchRod <= t < apogee    AirStabilizedAscent
//	otherwise                  PostApogeeOrOther
//
// Calls are expected in increasing time order; an earlier time never moves
// the phase backwards.
func (c *Classifier) Classify(t float64) Phase {
	return c.advance(c.at(t))
}

func (c *Classifier) at(t float64) Phase {
	if math.IsNaN(t) {
		return PostApogeeOrOther
	}
	if math.IsNaN(c.events.LaunchRod) || t < c.events.LaunchRod {
		return PreLaunchRod
	}
	if math.IsNaN(c.events.Apogee) || t < c.events.Apogee {
		return AirStabilizedAscent
	}
	return PostApogeeOrOther
}

// Observe advances the phase from live flags instead of event times.
func (c *Classifier) Observe(launchRodCleared, apogeeReached bool) Phase {
	next := PreLaunchRod
	switch {
	case apogeeReached:
		next = PostApogeeOrOther
	case launchRodCleared:
		next = AirStabilizedAscent
	}
	return c.advance(next)
}

func (c *Classifier) advance(p Phase) Phase {
	if p > c.current {
		c.current = p
	}
	return c.current
}

// Reset returns the classifier to PreLaunchRod.
func (c *Classifier) Reset() { c.current = PreLaunchRod }
