package spec

// visited is an immutable list of spec IDs seen during one lookup. Each
// step of a base-chain walk extends it without touching the caller's copy,
// so independent lookups from the same spec never share state.
type visited struct {
	id   string
	next *visited
}

func (v *visited) with(id string) *visited {
	return &visited{id: id, next: v}
}

func (v *visited) contains(id string) bool {
	for ; v != nil; v = v.next {
		if v.id == id {
			return true
		}
	}
	return false
}
