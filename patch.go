package grade

// Patch is a partial state snapshot: a set of carried groups plus their
// values. The zero value is an empty patch, ready for use.
//
// Patch is the protocol's pending-delta carrier. The proxy adopts every
// edited group into one patch and ships it as a single batched
// directive; adopting a group twice keeps only the latest value, so N
// edits collapse into at most one value per group.
//
// A Patch is not safe for concurrent use; the proxy guards it with its
// own mutex.
type Patch struct {
	mask  groupSet
	state State
}

// IsEmpty reports whether the patch carries no groups.
func (p *Patch) IsEmpty() bool { return p.mask.empty() }

// Len returns the number of carried groups.
func (p *Patch) Len() int { return p.mask.count() }

// Has reports whether the patch carries group g.
func (p *Patch) Has(g Group) bool { return p.mask.has(g) }

// Groups returns the carried groups in flush order.
func (p *Patch) Groups() []Group { return p.mask.groups() }

// Adopt copies group g's value from src into the patch, replacing any
// previously adopted value for the same group.
func (p *Patch) Adopt(g Group, src *State) {
	if !g.Valid() {
		return
	}
	copyGroup(g, &p.state, src)
	p.mask.add(g)
}

// Peek copies group g's carried value into dst and reports whether the
// patch carries it. dst's other groups are left untouched.
func (p *Patch) Peek(g Group, dst *State) bool {
	if !p.mask.has(g) {
		return false
	}
	copyGroup(g, dst, &p.state)
	return true
}

// Merge adopts every group carried by o, overwriting values this patch
// already carries.
func (p *Patch) Merge(o *Patch) {
	if o == nil {
		return
	}
	for _, g := range o.mask.groups() {
		p.Adopt(g, &o.state)
	}
}

// Reset empties the patch.
func (p *Patch) Reset() {
	p.mask.clear()
	p.state = State{}
}

// Clone returns an independent copy of the patch.
func (p *Patch) Clone() *Patch {
	out := &Patch{mask: p.mask, state: *p.state.Clone()}
	return out
}

// FullPatch returns a patch carrying every group of s. Used to re-send
// complete state, e.g. when loading a preset.
func FullPatch(s *State) *Patch {
	p := &Patch{}
	for g := Group(0); g < groupCount; g++ {
		p.Adopt(g, s)
	}
	return p
}

// Diff returns the groups whose observable value differs between two
// states, in flush order. Derived-enabled groups compare derived
// values; resource payloads compare by pointer identity.
func Diff(a, b *State) []Group {
	var set groupSet
	for g := Group(0); g < groupCount; g++ {
		if !groupEqual(g, a, b) {
			set.add(g)
		}
	}
	return set.groups()
}

// SanitizeState normalizes every group's numeric fields in place:
// non-finite values become zero, or a small positive epsilon for fields
// used as divisors.
func SanitizeState(s *State) {
	for g := Group(0); g < groupCount; g++ {
		sanitizeGroup(g, s)
	}
}
