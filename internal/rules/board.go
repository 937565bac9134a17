package rules

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

// Group returns the connected stones containing p and the number of distinct
// liberties of that group. Empty or off-board points return no stones.
func Group(b model.Board, p model.Point) ([]model.Point, int) {
	color := b.Get(p)
	if !b.InBounds(p) || color == model.Empty {
		return nil, 0
	}

	visited := make(map[model.Point]bool)
	liberties := make(map[model.Point]bool)
	stack := []model.Point{p}
	visited[p] = true
	var stones []model.Point

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stones = append(stones, cur)

		for _, n := range b.Neighbors(cur) {
			switch b.Get(n) {
			case model.Empty:
				liberties[n] = true
			case color:
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}
	}

	return stones, len(liberties)
}

// Liberties returns the liberty count of the group at p
func Liberties(b model.Board, p model.Point) int {
	_, libs := Group(b, p)
	return libs
}

// CapturedBy returns every opposing stone left without liberties by a stone
// of color mover at placed. The board must already contain the placed stone.
// Each point appears once even if several neighbors belong to the same group.
func CapturedBy(b model.Board, placed model.Point, mover model.Color) []model.Point {
	opponent := mover.Opponent()
	seen := make(map[model.Point]bool)
	var captured []model.Point

	for _, n := range b.Neighbors(placed) {
		if b.Get(n) != opponent || seen[n] {
			continue
		}
		stones, libs := Group(b, n)
		for _, s := range stones {
			seen[s] = true
		}
		if libs == 0 {
			captured = append(captured, stones...)
		}
	}

	return captured
}

// RemoveStones clears the given points
func RemoveStones(b model.Board, points []model.Point) {
	for _, p := range points {
		b.Set(p, model.Empty)
	}
}

// Fingerprint returns a short stable hash of the stones on the board
func Fingerprint(b model.Board) string {
	buf := make([]byte, 0, len(b.Cells)+1)
	buf = append(buf, byte(b.Size))
	for _, c := range b.Cells {
		buf = append(buf, byte(c))
	}
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:8])
}

// LineLength returns the length of the longest straight line of stones
// through p (horizontal, vertical or diagonal)
func LineLength(b model.Board, p model.Point) int {
	color := b.Get(p)
	if color == model.Empty {
		return 0
	}
	best := 0
	for _, d := range [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}} {
		count := 1 + countDirection(b, p, d[0], d[1]) + countDirection(b, p, -d[0], -d[1])
		if count > best {
			best = count
		}
	}
	return best
}

func countDirection(b model.Board, start model.Point, dr, dc int) int {
	target := b.Get(start)
	cur := start.Step(dr, dc)
	count := 0
	for b.InBounds(cur) && b.Get(cur) == target {
		count++
		cur = cur.Step(dr, dc)
	}
	return count
}
