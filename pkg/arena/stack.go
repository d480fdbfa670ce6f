package arena

type stackNode[T any] struct {
	value T
	below *stackNode[T]
}

// Stack is a LIFO whose frames come from a Pool.
type Stack[T any] struct {
	nodes *Pool[stackNode[T]]
	top   *stackNode[T]
	n     int
}

// NewStack creates an empty stack charging budget for its frames.
func NewStack[T any](budget *Linear) *Stack[T] {
	return &Stack[T]{nodes: NewPool[stackNode[T]](budget, 32)}
}

// Push places v on top of the stack.
func (s *Stack[T]) Push(v T) error {
	n, err := s.nodes.Get()
	if err != nil {
		return err
	}
	n.value = v
	n.below = s.top
	s.top = n
	s.n++
	return nil
}

// Pop removes and returns the top value.
func (s *Stack[T]) Pop() (T, bool) {
	if s.top == nil {
		var zero T
		return zero, false
	}
	n := s.top
	s.top = n.below
	s.n--
	v := n.value
	s.nodes.Put(n)
	return v, true
}

// Peek returns the top value without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if s.top == nil {
		var zero T
		return zero, false
	}
	return s.top.value, true
}

// Len returns the stack depth.
func (s *Stack[T]) Len() int { return s.n }

// Reset pops every frame.
func (s *Stack[T]) Reset() {
	for s.top != nil {
		s.Pop()
	}
}
