// internal/gomoku/board.go
//
// Gomoku board and win detection. The board is a flat 225-cell array;
// cells are written once per match and never cleared.

package gomoku

// Size is the board edge length.
const Size = 15

// TotalCells is the flat board length.
const TotalCells = Size * Size

// Color is a stone color, or Empty for a vacant cell.
type Color string

const (
	Empty Color = ""
	Black Color = "black"
	White Color = "white"
)

// ValidColor reports whether a remote payload names a real stone color.
func ValidColor(c Color) bool { return c == Black || c == White }

// Board is the flat cell array, row-major.
type Board [TotalCells]Color

// Index maps (row, col) to the flat cell index.
func Index(row, col int) int { return row*Size + col }

// InBounds reports whether (row, col) is on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Apply places a stone. The caller is responsible for vacancy and bounds
// checks; Apply never clears a cell.
func (b *Board) Apply(row, col int, c Color) {
	b[Index(row, col)] = c
}

// axes are the four line directions to scan from a placement.
var axes = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// CheckWin scans outward from the most recent placement and returns the
// contiguous same-color cell set of the first axis reaching five or
// more, or nil when the placement does not win. A run longer than five
// still wins; there is no overline exception.
func (b *Board) CheckWin(row, col int, c Color) []int {
	for _, a := range axes {
		dr, dc := a[0], a[1]
		cells := []int{Index(row, col)}

		for i := 1; i < 5; i++ {
			r, cc := row+dr*i, col+dc*i
			if !InBounds(r, cc) || b[Index(r, cc)] != c {
				break
			}
			cells = append(cells, Index(r, cc))
		}
		for i := 1; i < 5; i++ {
			r, cc := row-dr*i, col-dc*i
			if !InBounds(r, cc) || b[Index(r, cc)] != c {
				break
			}
			cells = append(cells, Index(r, cc))
		}

		if len(cells) >= 5 {
			return cells
		}
	}
	return nil
}
