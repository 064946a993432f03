package game

import (
	"math"
	"time"

	"geo-elevate/internal/domain"
)

const (
	// UntimedPoints is awarded for a correct answer in capitals and flags.
	UntimedPoints = 100

	speedBasePoints = 100
	speedMaxBonus   = 400
	speedDecay      = 0.8
	// reactionBuffer is subtracted from the measured latency before decay.
	reactionBuffer = 400 * time.Millisecond
)

// Score returns the points for one answer. elapsed only matters in speed mode.
func Score(mode domain.Mode, correct bool, elapsed time.Duration) int {
	if !correct {
		return 0
	}
	if !mode.Timed() {
		return UntimedPoints
	}

	adjusted := elapsed - reactionBuffer
	if adjusted < 0 {
		adjusted = 0
	}
	bonus := speedMaxBonus * math.Exp(-speedDecay*adjusted.Seconds())
	return int(math.Round(speedBasePoints + bonus))
}
