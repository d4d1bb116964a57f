// Package port holds the definition of a physical port
package port

// StateType is the level of a line.
//
// The numeric values match the values used by the linux gpio character device.
type StateType int

const (
	// High indicates a logical 1.
	High StateType = 1
	// Low indicates a logical 0.
	Low StateType = 0
)

// String returns "high" or "low".
func (s StateType) String() string {
	if s == High {
		return "high"
	}
	return "low"
}

// Mode is the direction a line is requested in.
type Mode int

const (
	_ Mode = iota
	// Input requests the line as input.
	Input
	// Output requests the line as output, driven low initially.
	Output
)

func (m Mode) String() string {
	switch m {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}
