package ui

// widthOverride applies a temporary width and restores the previous one.
// Release is idempotent so every exit path may call it.
type widthOverride struct {
	target   *int
	saved    int
	released bool
}

// overrideWidth sets *target to w until Release. A non-positive w yields a
// no-op override.
func overrideWidth(target *int, w int) *widthOverride {
	o := &widthOverride{target: target, saved: *target}
	if w <= 0 {
		o.released = true
		return o
	}
	*target = w
	return o
}

// Release restores the saved width
func (o *widthOverride) Release() {
	if o == nil || o.released {
		return
	}
	*o.target = o.saved
	o.released = true
}

// Active reports whether the override still holds
func (o *widthOverride) Active() bool {
	return o != nil && !o.released
}
