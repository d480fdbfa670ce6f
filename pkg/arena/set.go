package arena

type setNode[V any] struct {
	key   uint32
	value V
	next  *setNode[V]
	order *setNode[V]
}

// Set maps 32-bit hashes to values using singly-chained buckets. Nodes come
// from a Pool. Iteration follows insertion order.
type Set[V any] struct {
	nodes   *Pool[setNode[V]]
	buckets []*setNode[V]
	head    *setNode[V]
	tail    *setNode[V]
	n       int
}

// NewSet creates a set with the given bucket count, rounded up to a power of two.
func NewSet[V any](budget *Linear, buckets int) *Set[V] {
	size := 16
	for size < buckets {
		size <<= 1
	}
	return &Set[V]{
		nodes:   NewPool[setNode[V]](budget, 64),
		buckets: make([]*setNode[V], size),
	}
}

func (s *Set[V]) bucket(key uint32) int {
	// The low bits of a CRC are already well mixed.
	return int(key & uint32(len(s.buckets)-1))
}

// Find returns the value stored under key.
func (s *Set[V]) Find(key uint32) (V, bool) {
	for n := s.buckets[s.bucket(key)]; n != nil; n = n.next {
		if n.key == key {
			return n.value, true
		}
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (s *Set[V]) Contains(key uint32) bool {
	_, ok := s.Find(key)
	return ok
}

// Insert stores v under key, replacing any existing value.
func (s *Set[V]) Insert(key uint32, v V) error {
	b := s.bucket(key)
	for n := s.buckets[b]; n != nil; n = n.next {
		if n.key == key {
			n.value = v
			return nil
		}
	}
	n, err := s.nodes.Get()
	if err != nil {
		return err
	}
	n.key = key
	n.value = v
	n.next = s.buckets[b]
	s.buckets[b] = n
	if s.tail == nil {
		s.head = n
	} else {
		s.tail.order = n
	}
	s.tail = n
	s.n++
	return nil
}

// Len returns the number of keys.
func (s *Set[V]) Len() int { return s.n }

// Each calls fn for every entry in insertion order until fn returns false.
func (s *Set[V]) Each(fn func(key uint32, v V) bool) {
	for n := s.head; n != nil; n = n.order {
		if !fn(n.key, n.value) {
			return
		}
	}
}
