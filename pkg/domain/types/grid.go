package types

// GridSize is the dimension of a square risk matrix
type GridSize int

const (
	Grid3x3 GridSize = 3
	Grid4x4 GridSize = 4
	Grid5x5 GridSize = 5
)

// IsValid checks if the grid size is supported
func (g GridSize) IsValid() bool {
	switch g {
	case Grid3x3, Grid4x4, Grid5x5:
		return true
	default:
		return false
	}
}

// Int returns the grid size as int
func (g GridSize) Int() int {
	return int(g)
}
