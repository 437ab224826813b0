package goegg

// ClassId identifies an e-class. Only canonical ids (find(id) == id) name
// live classes.
type ClassId uint32

type unionFind struct {
	parents []ClassId
	sizes   []uint32
}

func (uf *unionFind) makeSet() ClassId {
	id := ClassId(len(uf.parents))
	uf.parents = append(uf.parents, id)
	uf.sizes = append(uf.sizes, 1)
	return id
}

func (uf *unionFind) size() int {
	return len(uf.parents)
}

// find does not compress paths, so it is safe to call from concurrent
// readers. Union by size keeps chains logarithmic.
func (uf *unionFind) find(id ClassId) ClassId {
	if int(id) >= len(uf.parents) {
		panic("find(): unknown class id")
	}
	for uf.parents[id] != id {
		id = uf.parents[id]
	}
	return id
}

// findMut is find with path halving.
func (uf *unionFind) findMut(id ClassId) ClassId {
	if int(id) >= len(uf.parents) {
		panic("findMut(): unknown class id")
	}
	for uf.parents[id] != id {
		grand := uf.parents[uf.parents[id]]
		uf.parents[id] = grand
		id = grand
	}
	return id
}

// union links two roots and returns (root, merged-away root). The larger
// set survives; ties keep the smaller id.
func (uf *unionFind) union(a, b ClassId) (ClassId, ClassId) {
	if uf.sizes[a] < uf.sizes[b] || (uf.sizes[a] == uf.sizes[b] && b < a) {
		a, b = b, a
	}
	uf.parents[b] = a
	uf.sizes[a] += uf.sizes[b]
	return a, b
}
