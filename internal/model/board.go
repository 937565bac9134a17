package model

import "fmt"

// Color is the content of a board cell and the identity of a side
type Color int8

const (
	Empty Color = iota
	Black
	White
)

// Opponent returns the other side, or Empty for Empty
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

// IsPlayer returns true for Black and White
func (c Color) IsPlayer() bool {
	return c == Black || c == White
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// MarshalText lets colors be used as readable JSON values and map keys
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses "black", "white" or "empty"
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor converts a color name into a Color
func ParseColor(s string) (Color, error) {
	switch s {
	case "black", "b", "B":
		return Black, nil
	case "white", "w", "W":
		return White, nil
	case "empty", "":
		return Empty, nil
	default:
		return Empty, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
}

// Point identifies an intersection on the board
type Point struct {
	Row int `json:"row"` // 0-indexed from top
	Col int `json:"col"` // 0-indexed from left
}

// Direction is a straight-line movement used by slides and tosses
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Delta returns the row/col step for a direction, ok=false if unknown
func (d Direction) Delta() (dr, dc int, ok bool) {
	switch d {
	case DirUp:
		return -1, 0, true
	case DirDown:
		return 1, 0, true
	case DirLeft:
		return 0, -1, true
	case DirRight:
		return 0, 1, true
	default:
		return 0, 0, false
	}
}

// Step returns the neighboring point in the given direction
func (p Point) Step(dr, dc int) Point {
	return Point{Row: p.Row + dr, Col: p.Col + dc}
}

// Board is an N×N grid of stones
type Board struct {
	Size  int
	Cells []Color // Row-major: Cells[row*Size+col]
}

// NewBoard creates an empty board of the given size
func NewBoard(size int) Board {
	return Board{
		Size:  size,
		Cells: make([]Color, size*size),
	}
}

// InBounds returns true if the point is on the board
func (b Board) InBounds(p Point) bool {
	return p.Row >= 0 && p.Row < b.Size && p.Col >= 0 && p.Col < b.Size
}

// Get returns the stone at p, or Empty when out of bounds
func (b Board) Get(p Point) Color {
	if !b.InBounds(p) {
		return Empty
	}
	return b.Cells[p.Row*b.Size+p.Col]
}

// Set places (or clears, with Empty) a stone at p
func (b Board) Set(p Point, c Color) {
	if b.InBounds(p) {
		b.Cells[p.Row*b.Size+p.Col] = c
	}
}

// IsEmpty returns true if the point is on the board and unoccupied
func (b Board) IsEmpty(p Point) bool {
	return b.InBounds(p) && b.Get(p) == Empty
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	cells := make([]Color, len(b.Cells))
	copy(cells, b.Cells)
	return Board{Size: b.Size, Cells: cells}
}

// Neighbors returns the orthogonal neighbors of p that are on the board
func (b Board) Neighbors(p Point) []Point {
	out := make([]Point, 0, 4)
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := p.Step(d[0], d[1])
		if b.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Count returns the number of cells holding the given color
func (b Board) Count(c Color) int {
	count := 0
	for _, cell := range b.Cells {
		if cell == c {
			count++
		}
	}
	return count
}

// EmptyPoints returns all unoccupied points in row-major order
func (b Board) EmptyPoints() []Point {
	var out []Point
	for i, cell := range b.Cells {
		if cell == Empty {
			out = append(out, Point{Row: i / b.Size, Col: i % b.Size})
		}
	}
	return out
}

// Equal returns true if both boards hold the same stones
func (b Board) Equal(other Board) bool {
	if b.Size != other.Size || len(b.Cells) != len(other.Cells) {
		return false
	}
	for i := range b.Cells {
		if b.Cells[i] != other.Cells[i] {
			return false
		}
	}
	return true
}
