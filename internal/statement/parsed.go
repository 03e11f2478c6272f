package statement

// Parsed is the outcome of parsing one untrusted field value. A Defaulted
// result still carries a usable Value; Reason says what was lost.
type Parsed[T any] struct {
	Value     T
	Defaulted bool
	Reason    string
}

func ok[T any](v T) Parsed[T] {
	return Parsed[T]{Value: v}
}

func defaulted[T any](v T, reason string) Parsed[T] {
	return Parsed[T]{Value: v, Defaulted: true, Reason: reason}
}
