package collector

// Guard enables collection for a scope and restores the prior state on Release.
//
// Release only ever disables: if collection was already on when the guard was
// acquired it is left on.
type Guard struct {
	owner      *Collector
	wasEnabled bool
	released   bool
}

// Guard enables collection and returns a guard remembering the prior state.
//
//	defer c.Guard().Release()
func (c *Collector) Guard() *Guard {
	g := &Guard{owner: c, wasEnabled: c.IsEnabled()}
	c.Enable()

	return g
}

// FreshGuard resets r before acquiring a guard.
func (c *Collector) FreshGuard(r *Recorder) *Guard {
	r.Reset()

	return c.Guard()
}

// WasEnabled reports whether collection was on when the guard was acquired.
func (g *Guard) WasEnabled() bool {
	return g.wasEnabled
}

// Release ends the scope. Calling it more than once has no further effect.
func (g *Guard) Release() {
	if g.released {
		return
	}

	g.released = true

	if !g.wasEnabled {
		g.owner.Disable()
	}
}
