package board_test

import (
	"testing"

	"github.com/qchess/engine/pkg/board"
	"github.com/stretchr/testify/assert"
)

func TestPathBetween(t *testing.T) {
	assert.Equal(t, []board.Square{board.A2, board.A3}, board.PathBetween(board.A1, board.A4))
	assert.Nil(t, board.PathBetween(board.A1, board.A2), "adjacent squares have an empty path")
	assert.Nil(t, board.PathBetween(board.A1, board.B3), "non-collinear squares have no path")
}

func TestSliderTargetsRay(t *testing.T) {
	rays := board.SliderTargets(board.A1, board.Rook)
	assert.Len(t, rays, 4)

	var north []board.Square
	for _, ray := range rays {
		if len(ray) > 0 && ray[0].File() == board.FileA && ray[0] != board.A1 {
			north = ray
		}
	}
	assert.Equal(t, []board.Square{board.A2, board.A3, board.A4, board.A5, board.A6, board.A7, board.A8}, north)
}

func TestChebyshevDistance(t *testing.T) {
	assert.Equal(t, 7, board.ChebyshevDistance(board.A1, board.H8))
	assert.Equal(t, 1, board.ChebyshevDistance(board.E4, board.D5))
}

func TestKnightAndKingTargetsFromCorner(t *testing.T) {
	assert.ElementsMatch(t, []board.Square{board.B3, board.C2}, board.KnightTargets(board.A1))
	assert.ElementsMatch(t, []board.Square{board.A2, board.B2, board.B1}, board.KingTargets(board.A1))
}
