package graph

// Stack is the host interpreter's argument stack: call inputs are pushed in declared
// order before dispatch, and execution replaces them with the outputs, last on top.
type Stack []IValue

// Push appends a value on top of the stack.
func (s *Stack) Push(iv IValue) { *s = append(*s, iv) }

// Pop removes and returns the top of the stack. It panics on an empty stack.
func (s *Stack) Pop() IValue {
	top := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return top
}

// Last returns the top n values, bottom-most first, without removing them.
func (s *Stack) Last(n int) []IValue {
	return (*s)[len(*s)-n:]
}

// Drop removes the top n values.
func (s *Stack) Drop(n int) {
	*s = (*s)[:len(*s)-n]
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int { return len(*s) }
