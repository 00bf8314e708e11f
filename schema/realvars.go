package schema

import "fmt"

// aliasSet is a disjoint-set forest over witness indices. Union keeps the
// smaller index as representative so public and named inputs, which builders
// allocate first, stay canonical.
type aliasSet struct {
	parent []uint32
}

func (s *aliasSet) add() uint32 {
	i := uint32(len(s.parent))
	s.parent = append(s.parent, i)
	return i
}

func (s *aliasSet) find(i uint32) uint32 {
	root := i
	for s.parent[root] != root {
		root = s.parent[root]
	}
	for s.parent[i] != root {
		next := s.parent[i]
		s.parent[i] = root
		i = next
	}
	return root
}

func (s *aliasSet) union(a, b uint32) uint32 {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return ra
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	s.parent[rb] = ra
	return ra
}

// flatten returns the index -> representative map with every chain
// compressed to a single step.
func (s *aliasSet) flatten() []uint32 {
	res := make([]uint32, len(s.parent))
	for i := range s.parent {
		res[i] = s.find(uint32(i))
	}
	return res
}

// resolveRealIndex turns an exported parent table, which may contain chains,
// into a flattened real-variable map. It rejects out of range parents and
// cycles that never reach a self-mapped representative.
func resolveRealIndex(parent []uint32) ([]uint32, error) {
	n := len(parent)
	for i, p := range parent {
		if int(p) >= n {
			return nil, fmt.Errorf("variable %d aliased to out of range index %d", i, p)
		}
	}
	res := make([]uint32, n)
	done := make([]bool, n)
	for i := range parent {
		cur := uint32(i)
		steps := 0
		for !done[cur] && parent[cur] != cur {
			cur = parent[cur]
			steps++
			if steps > n {
				return nil, fmt.Errorf("alias chain of variable %d is cyclic", i)
			}
		}
		root := cur
		if done[cur] {
			root = res[cur]
		}
		for cur = uint32(i); !done[cur] && parent[cur] != cur; cur = parent[cur] {
			res[cur] = root
			done[cur] = true
		}
		res[root] = root
		done[root] = true
	}
	return res, nil
}
