package vm

// String is an immutable character sequence.
type String struct {
	s string
}

// NewString wraps s.
func NewString(s string) *String { return &String{s: s} }

// String returns the Go string.
func (s *String) String() string { return s.s }
