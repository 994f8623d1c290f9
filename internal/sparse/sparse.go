// Package sparse provides a sparse set of state indices.
//
// A sparse set supports O(1) insertion and membership testing while
// keeping a dense list of members in insertion order. The optimizer uses it as
// the visited set of its reachability walks, where the insertion order doubles
// as a breadth-first work queue.
package sparse

// Set is a set of uint32 values drawn from [0, capacity).
type Set struct {
	sparse []uint32 // value -> index in dense
	dense  []uint32 // members in insertion order
}

// New creates an empty set for values below capacity.
func New(capacity int) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value to the set and reports whether it was newly added.
// Values outside the capacity are ignored.
func (s *Set) Insert(value uint32) bool {
	if int(value) >= len(s.sparse) || s.Contains(value) {
		return false
	}
	//nolint:gosec // G115: len(dense) < len(sparse), which is a valid index
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
	return true
}

// Contains returns true if the value is in the set
func (s *Set) Contains(value uint32) bool {
	if int(value) >= len(s.sparse) {
		return false
	}
	idx := s.sparse[value]
	return int(idx) < len(s.dense) && s.dense[idx] == value
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.dense)
}

// At returns the i-th member in insertion order.
func (s *Set) At(i int) uint32 {
	return s.dense[i]
}
