// ABOUTME: Loop state machine: boundary capping, snapshot and restore decisions
// ABOUTME: Counts completed loops against an optional target
package loop

// Phase is the controller's position in the loop life cycle
type Phase int

const (
	NotLooped Phase = iota
	Armed
	Finished
)

func (p Phase) String() string {
	switch p {
	case NotLooped:
		return "not looped"
	case Armed:
		return "armed"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Action tells the driver what to do at the current position
type Action int

const (
	ActionNone Action = iota

	// ActionSnapshot: save all decode state, the loop start was reached
	ActionSnapshot

	// ActionRestore: go back to the saved state, the loop end was reached
	ActionRestore
)

// Controller tracks one stream's loop region. A target of 0 loops forever.
type Controller struct {
	enabled bool
	start   int
	end     int

	hit    bool
	count  int
	target int
	phase  Phase
}

// New creates a controller for the region [start, end)
func New(enabled bool, start, end int) *Controller {
	c := &Controller{}
	c.Set(enabled, start, end)
	return c
}

// Set replaces the loop region and rewinds the life cycle
func (c *Controller) Set(enabled bool, start, end int) {
	c.enabled = enabled && start >= 0 && end > start
	c.start = start
	c.end = end
	c.Reset()
}

// SetTarget sets how many times the region repeats; 0 repeats forever
func (c *Controller) SetTarget(n int) {
	if n < 0 {
		n = 0
	}
	c.target = n
	if c.phase == Finished && (n == 0 || c.count < n) {
		c.phase = Armed
		if !c.hit {
			c.phase = NotLooped
		}
	}
}

// Reset forgets the snapshot and the completed loops
func (c *Controller) Reset() {
	c.hit = false
	c.count = 0
	c.phase = NotLooped
}

// Cap shortens a run starting at current so it stops on the next loop boundary
func (c *Controller) Cap(current, run int) int {
	if !c.active() {
		return run
	}
	if !c.hit && current < c.start && current+run > c.start {
		run = c.start - current
	}
	if current < c.end && current+run > c.end {
		run = c.end - current
	}
	return run
}

// Step reports the action due at current. It must be called before every
// run, including the first one, so a loop starting at 0 is snapshotted.
func (c *Controller) Step(current int) Action {
	if !c.active() {
		return ActionNone
	}

	if current == c.end {
		if c.target > 0 && c.count >= c.target {
			c.phase = Finished
			return ActionNone
		}
		c.count++
		return ActionRestore
	}

	if current == c.start && !c.hit {
		c.hit = true
		c.phase = Armed
		return ActionSnapshot
	}

	return ActionNone
}

func (c *Controller) active() bool {
	return c.enabled && c.phase != Finished
}

// Enabled reports whether the stream has a loop region
func (c *Controller) Enabled() bool { return c.enabled }

// Looping reports whether playback will still jump back at the loop end
func (c *Controller) Looping() bool { return c.active() }

// Hit reports whether the loop start snapshot was taken
func (c *Controller) Hit() bool { return c.hit }

// Start returns the loop start sample
func (c *Controller) Start() int { return c.start }

// End returns the loop end sample, exclusive
func (c *Controller) End() int { return c.end }

// Count returns the number of completed loops
func (c *Controller) Count() int { return c.count }

// Target returns the loop target
func (c *Controller) Target() int { return c.target }

// Phase returns the current phase
func (c *Controller) Phase() Phase { return c.phase }
