package loop

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrEmptyStack = errors.New("error: empty stack")

// Stack is a stack of Loop.
type Stack struct {
	sync.Mutex
	s []*Loop
}

// NewStack creates a new Stack.
func NewStack() *Stack {
	return &Stack{s: []*Loop{}}
}

// Push adds a new Loop to the top of stack.
func (s *Stack) Push(l *Loop) {
	s.Lock()
	defer s.Unlock()
	s.s = append(s.s, l)
}

// Pop removes a Loop from top of stack.
func (s *Stack) Pop() (*Loop, error) {
	s.Lock()
	defer s.Unlock()

	size := len(s.s)
	if size == 0 {
		return nil, ErrEmptyStack
	}
	l := s.s[size-1]
	s.s = s.s[:size-1]
	return l, nil
}

// IsEmpty returns true if stack is empty.
func (s *Stack) IsEmpty() bool {
	s.Lock()
	defer s.Unlock()
	return len(s.s) == 0
}
