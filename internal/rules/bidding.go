package rules

import "github.com/BlueStarAcademy/sudampvp/internal/dependencies/random"

// MaxBidRounds is the number of sealed bid rounds before a tie goes to a coin flip
const MaxBidRounds = 2

// BidResolution is the result of comparing two sealed bids
type BidResolution struct {
	Decided     bool
	FirstWins   bool
	WinningBid  int
	CoinFlipped bool
}

// ResolveBids compares the bids of round round. A tie in the first round
// calls for another round; a tie in the last round is settled by a coin flip.
func ResolveBids(first, second, round int, rnd random.Random) BidResolution {
	switch {
	case first > second:
		return BidResolution{Decided: true, FirstWins: true, WinningBid: first}
	case second > first:
		return BidResolution{Decided: true, FirstWins: false, WinningBid: second}
	case round < MaxBidRounds:
		return BidResolution{}
	default:
		return BidResolution{
			Decided:     true,
			FirstWins:   !rnd.Coin(),
			WinningBid:  first,
			CoinFlipped: true,
		}
	}
}
