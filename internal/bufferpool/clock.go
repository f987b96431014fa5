package bufferpool

// clock is a CLOCK (second-chance) replacer over frame IDs [0, capacity).
// Only frames marked evictable are candidates.
type clock struct {
	ref       []bool
	evictable []bool
	hand      int
	size      int // number of evictable frames
}

func newClock(capacity int) *clock {
	return &clock{
		ref:       make([]bool, capacity),
		evictable: make([]bool, capacity),
	}
}

func (c *clock) RecordAccess(id int) { c.ref[id] = true }

func (c *clock) SetEvictable(id int, on bool) {
	if c.evictable[id] == on {
		return
	}
	c.evictable[id] = on
	if on {
		c.size++
	} else {
		c.size--
	}
}

// Evict picks a victim, giving each referenced frame one more turn.
func (c *clock) Evict() (int, bool) {
	if c.size == 0 {
		return -1, false
	}
	n := len(c.ref)
	for {
		id := c.hand
		c.hand = (c.hand + 1) % n
		if !c.evictable[id] {
			continue
		}
		if c.ref[id] {
			c.ref[id] = false
			continue
		}
		c.evictable[id] = false
		c.size--
		return id, true
	}
}

func (c *clock) Size() int { return c.size }
