package rules

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

type VariantSuite struct {
	ruleSuite
}

func TestVariantSuite(t *testing.T) {
	suite.Run(t, new(VariantSuite))
}

func (s *VariantSuite) apply(sess *model.Session, c model.Color, a model.Action) (*Result, error) {
	return s.engine.Apply(sess, c, c, a, testNow)
}

// Capture goal

func (s *VariantSuite) TestCaptureTargetWins() {
	sess := newSession(model.ModeCapture, 5,
		stone(model.White, 0, 1), stone(model.Black, 0, 2), stone(model.Black, 1, 1),
	)
	sess.Variant.Targets = CaptureTargets(0, 1)

	res := s.mustPlay(sess, model.Black, 0, 0)
	s.Require().NotNil(res.Outcome)
	s.Equal(model.Black, res.Outcome.Winner)
	s.Equal(model.EndVariantWin, res.Outcome.Reason)
}

func (s *VariantSuite) TestCaptureTargetsFavourWhite() {
	targets := CaptureTargets(5, 3)
	s.Equal(8, targets[model.Black])
	s.Equal(5, targets[model.White])
}

func (s *VariantSuite) TestCaptureFinalScoreComparesCaptures() {
	sess := newSession(model.ModeCapture, 9)
	sess.Captured[model.White] = 3
	sess.Captured[model.Black] = 1

	out := captureRules{}.FinalScore(sess, model.EndDoublePass)
	s.Equal(model.White, out.Winner)
	s.Equal(2.0, out.Margin)
}

// Base stones

func (s *VariantSuite) TestCapturingBaseStoneScoresFiveAndReservesSquare() {
	sess := newSession(model.ModeBase, 5)
	sess.Board = model.NewBoard(5)
	PlaceBaseStones(sess, nil, []model.Point{pt(0, 0)})
	sess.Board.Set(pt(0, 1), model.Black)
	Prepare(sess)

	res := s.mustPlay(sess, model.Black, 1, 0)
	s.Equal(BaseStoneValue, res.Captured)
	s.Equal(BaseStoneValue, sess.Captured[model.Black])
	s.Empty(sess.Variant.BaseStones)
	s.True(sess.Variant.IsReserved(pt(0, 0)))

	_, err := s.play(sess, model.White, 0, 0)
	s.ErrorIs(err, model.ErrForbiddenCell)
}

func (s *VariantSuite) TestResolveBasePlacementsDropsOverlap() {
	s.random.QueueIntn(0, 0)

	first, second := ResolveBasePlacements(3, 2,
		[]model.Point{pt(0, 0), pt(0, 1)},
		[]model.Point{pt(0, 0), pt(2, 2)},
		s.random,
	)
	s.Equal([]model.Point{pt(0, 1), pt(0, 2)}, first)
	s.Equal([]model.Point{pt(2, 2), pt(1, 0)}, second)
}

func (s *VariantSuite) TestResolveBasePlacementsFillsMissing() {
	first, second := ResolveBasePlacements(3, 2, nil, []model.Point{pt(1, 1), pt(2, 2)}, s.random)
	s.Len(first, 2)
	s.Equal([]model.Point{pt(1, 1), pt(2, 2)}, second)
	s.NotContains(first, pt(1, 1))
	s.NotContains(first, pt(2, 2))
}

func (s *VariantSuite) TestValidateBasePlacement() {
	s.NoError(ValidateBasePlacement(5, 2, []model.Point{pt(0, 0), pt(4, 4)}))
	s.ErrorIs(ValidateBasePlacement(5, 2, []model.Point{pt(0, 0)}), model.ErrInvalidPlacement)
	s.ErrorIs(ValidateBasePlacement(5, 2, []model.Point{pt(0, 0), pt(0, 0)}), model.ErrInvalidPlacement)
	s.ErrorIs(ValidateBasePlacement(5, 2, []model.Point{pt(0, 0), pt(5, 0)}), model.ErrInvalidPlacement)
}

// Hidden stones

func (s *VariantSuite) TestHiddenStoneIsInvisibleToOpponent() {
	sess := newSession(model.ModeHidden, 9)

	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionHidden, Point: pt(4, 4)})
	s.Require().NoError(err)
	s.True(sess.Variant.IsHidden(pt(4, 4)))
	s.Equal(sess.Config.HiddenBudget-1, sess.Variant.HiddenLeft[model.Black])

	whiteView := sess.ViewFor(model.White)
	s.Equal(model.Empty, whiteView.Board.Get(pt(4, 4)))
	s.Equal(pt(-1, -1), whiteView.Moves[0].Point)
	blackView := sess.ViewFor(model.Black)
	s.Equal(model.Black, blackView.Board.Get(pt(4, 4)))
}

func (s *VariantSuite) TestLandingOnHiddenStoneRevealsIt() {
	sess := newSession(model.ModeHidden, 9)
	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionHidden, Point: pt(4, 4)})
	s.Require().NoError(err)

	res := s.mustPlay(sess, model.White, 4, 4)
	s.True(res.Move.Blocked)
	s.True(res.MaintainTurn)
	s.True(res.Pause)
	s.Equal([]model.Point{pt(4, 4)}, res.Revealed)
	s.Equal(model.Black, sess.Board.Get(pt(4, 4)))
	s.False(sess.Variant.IsHidden(pt(4, 4)))

	// the mover plays again
	s.mustPlay(sess, model.White, 3, 3)
}

func (s *VariantSuite) TestHiddenBudgetIsEnforced() {
	sess := newSession(model.ModeHidden, 9)
	sess.Variant.HiddenLeft[model.Black] = 1

	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionHidden, Point: pt(0, 0)})
	s.Require().NoError(err)
	s.pass(sess, model.White)
	_, err = s.apply(sess, model.Black, model.Action{Kind: model.ActionHidden, Point: pt(1, 1)})
	s.ErrorIs(err, model.ErrNoBudget)
}

func (s *VariantSuite) TestScanRevealsHiddenStone() {
	sess := newSession(model.ModeHidden, 9)
	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionHidden, Point: pt(2, 2)})
	s.Require().NoError(err)

	res, err := s.apply(sess, model.White, model.Action{Kind: model.ActionScan, Point: pt(2, 2)})
	s.Require().NoError(err)
	s.True(res.MaintainTurn)
	s.Equal([]model.Point{pt(2, 2)}, res.Revealed)
	s.False(sess.Variant.IsHidden(pt(2, 2)))
	s.Equal(sess.Config.ScanBudget-1, sess.Variant.ScansLeft[model.White])
}

func (s *VariantSuite) TestScanMissConsumesBudget() {
	sess := newSession(model.ModeHidden, 9)

	res, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionScan, Point: pt(2, 2)})
	s.Require().NoError(err)
	s.Empty(res.Revealed)
	s.False(res.Pause)
	s.Equal(sess.Config.ScanBudget-1, sess.Variant.ScansLeft[model.Black])
}

func (s *VariantSuite) TestCapturedHiddenStoneIsRevealed() {
	sess := newSession(model.ModeHidden, 5,
		stone(model.Black, 0, 2), stone(model.Black, 1, 1),
	)
	_, err := s.apply(sess, model.White, model.Action{Kind: model.ActionHidden, Point: pt(0, 1)})
	s.Require().NoError(err)

	res := s.mustPlay(sess, model.Black, 0, 0)
	s.Equal([]model.Point{pt(0, 1)}, res.CapturePoints)
	s.Contains(res.Revealed, pt(0, 1))
	s.True(res.Pause)
}

// Missile

func (s *VariantSuite) TestSlideCapturesAtDestination() {
	sess := newSession(model.ModeMissile, 5,
		stone(model.White, 0, 2),
		stone(model.Black, 0, 1), stone(model.Black, 1, 2), stone(model.Black, 4, 3),
	)

	res, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionSlide, Point: pt(4, 3), Direction: model.DirUp})
	s.Require().NoError(err)
	s.Equal(pt(0, 3), res.Move.Point)
	s.Require().NotNil(res.Move.From)
	s.Equal(pt(4, 3), *res.Move.From)
	s.Equal([]model.Point{pt(0, 2)}, res.CapturePoints)
	s.Equal(model.Empty, sess.Board.Get(pt(4, 3)))
	s.Equal(sess.Config.MissileBudget-1, sess.Variant.MissilesLeft[model.Black])
	s.True(Replay(sess).Equal(sess.Board))
}

func (s *VariantSuite) TestSlideMustMove() {
	sess := newSession(model.ModeMissile, 5, stone(model.Black, 0, 0))

	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionSlide, Point: pt(0, 0), Direction: model.DirUp})
	s.ErrorIs(err, model.ErrSlideBlocked)
}

func (s *VariantSuite) TestSlideRequiresOwnStone() {
	sess := newSession(model.ModeMissile, 5, stone(model.White, 2, 2))

	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionSlide, Point: pt(2, 2), Direction: model.DirUp})
	s.ErrorIs(err, model.ErrNotOwnStone)
}

// Mixed

func (s *VariantSuite) TestMixedRotation() {
	cfg := model.SessionConfig{
		MixedRotation: []model.Mode{model.ModeStandard, model.ModeHidden},
		MixedInterval: 2,
	}
	s.Equal(model.ModeStandard, ActiveMixedMode(cfg, 0))
	s.Equal(model.ModeStandard, ActiveMixedMode(cfg, 1))
	s.Equal(model.ModeHidden, ActiveMixedMode(cfg, 2))
	s.Equal(model.ModeStandard, ActiveMixedMode(cfg, 4))
}

func (s *VariantSuite) TestMixedSwitchesModuleAfterInterval() {
	sess := newSession(model.ModeMixed, 9)
	sess.Config.MixedRotation = []model.Mode{model.ModeStandard, model.ModeHidden}
	sess.Config.MixedInterval = 2
	Prepare(sess)

	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionHidden, Point: pt(0, 0)})
	s.ErrorIs(err, model.ErrActionNotAllowed)

	s.mustPlay(sess, model.Black, 0, 0)
	s.mustPlay(sess, model.White, 8, 8)
	s.Equal(model.ModeHidden, sess.Variant.ActiveModule)

	_, err = s.apply(sess, model.Black, model.Action{Kind: model.ActionHidden, Point: pt(1, 1)})
	s.NoError(err)
}

// Omok and ttamok

func (s *VariantSuite) TestFiveInARowWins() {
	sess := newSession(model.ModeOmok, 15,
		stone(model.Black, 7, 3), stone(model.Black, 7, 4), stone(model.Black, 7, 5), stone(model.Black, 7, 6),
	)

	res := s.mustPlay(sess, model.Black, 7, 7)
	s.Require().NotNil(res.Outcome)
	s.Equal(model.Black, res.Outcome.Winner)
	s.Equal(model.EndVariantWin, res.Outcome.Reason)
}

func (s *VariantSuite) TestFourInARowDoesNotWin() {
	sess := newSession(model.ModeOmok, 15,
		stone(model.Black, 3, 3), stone(model.Black, 4, 4), stone(model.Black, 5, 5),
	)

	res := s.mustPlay(sess, model.Black, 6, 6)
	s.Nil(res.Outcome)
}

func (s *VariantSuite) TestOmokHasNoCaptures() {
	sess := newSession(model.ModeOmok, 15,
		stone(model.White, 0, 1), stone(model.Black, 0, 2), stone(model.Black, 1, 1),
	)

	res := s.mustPlay(sess, model.Black, 0, 0)
	s.Empty(res.CapturePoints)
	s.Equal(model.White, sess.Board.Get(pt(0, 1)))
}

func (s *VariantSuite) TestTtamokCaptureTargetWins() {
	sess := newSession(model.ModeTtamok, 15,
		stone(model.White, 0, 1), stone(model.Black, 0, 2), stone(model.Black, 1, 1),
	)
	sess.Variant.Targets = bothColors(1)

	res := s.mustPlay(sess, model.Black, 0, 0)
	s.Require().NotNil(res.Outcome)
	s.Equal(model.Black, res.Outcome.Winner)
}

// Dice

func (s *VariantSuite) TestDiceRollGrantsPlacements() {
	sess := newSession(model.ModeDice, 9)

	_, err := s.play(sess, model.Black, 0, 0)
	s.ErrorIs(err, model.ErrMustRoll)

	s.random.QueueIntn(1)
	res, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionRoll})
	s.Require().NoError(err)
	s.Equal(2, res.Move.Value)
	s.True(res.MaintainTurn)

	_, err = s.apply(sess, model.Black, model.Action{Kind: model.ActionRoll})
	s.ErrorIs(err, model.ErrActionNotAllowed)

	res = s.mustPlay(sess, model.Black, 0, 0)
	s.True(res.MaintainTurn)
	res = s.mustPlay(sess, model.Black, 0, 1)
	s.False(res.MaintainTurn)
	s.Equal(0, sess.Variant.DiceLeft)
	s.False(sess.Variant.Rolled)
}

func (s *VariantSuite) TestDicePassEndsTurn() {
	sess := newSession(model.ModeDice, 9)
	s.random.QueueIntn(5)
	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionRoll})
	s.Require().NoError(err)

	res := s.pass(sess, model.Black)
	s.False(res.MaintainTurn)
	s.Equal(0, sess.Variant.DiceLeft)
}

// Thief

func (s *VariantSuite) TestThiefPoliceStonesAreHidden() {
	sess := newSession(model.ModeThief, 9)

	s.mustPlay(sess, model.Black, 0, 0)
	s.mustPlay(sess, model.White, 4, 4)
	s.True(sess.Variant.IsHidden(pt(4, 4)))
	s.False(sess.Variant.IsHidden(pt(0, 0)))
}

func (s *VariantSuite) TestThiefRoundsSwapRolesAndScore() {
	sess := newSession(model.ModeThief, 9)
	sess.Config.ThiefTurnsPerRound = 1

	s.mustPlay(sess, model.Black, 0, 0)
	res := s.mustPlay(sess, model.White, 4, 4)
	s.Nil(res.Outcome)
	s.Equal(2, sess.Variant.Round)
	s.Equal(model.White, sess.Variant.ThiefColor)
	s.Equal(1, sess.Variant.RoundScores[model.Black])
	s.Equal(0, sess.Board.Count(model.Black)+sess.Board.Count(model.White))
	s.Empty(sess.Variant.Hidden)
	s.True(Replay(sess).Equal(sess.Board))

	s.mustPlay(sess, model.Black, 2, 2)
	res = s.mustPlay(sess, model.White, 6, 6)
	s.Require().NotNil(res.Outcome)
	s.Equal(model.EndVariantWin, res.Outcome.Reason)
	s.Equal(model.Empty, res.Outcome.Winner)
	s.Equal(1, sess.Variant.RoundScores[model.White])
}

// Curling

func (s *VariantSuite) TestTossStopsAtDistance() {
	b := model.NewBoard(9)

	rest, out, shifts := Toss(b, model.Black, 4, 5)
	s.False(out)
	s.Empty(shifts)
	s.Equal(pt(4, 4), rest)
	s.Equal(model.Black, b.Get(pt(4, 4)))
}

func (s *VariantSuite) TestTossLeavesBoard() {
	b := model.NewBoard(9)

	_, out, _ := Toss(b, model.Black, 0, 18)
	s.True(out)
	s.Equal(0, b.Count(model.Black))
}

func (s *VariantSuite) TestTossKnocksStone() {
	b := model.NewBoard(9)
	b.Set(pt(4, 4), model.Black)

	rest, out, shifts := Toss(b, model.White, 4, 8)
	s.False(out)
	s.Equal(pt(3, 4), rest)
	s.Equal([]model.Shift{{From: pt(4, 4), To: pt(6, 4), Color: model.Black}}, shifts)
	s.Equal(model.Black, b.Get(pt(6, 4)))
	s.Equal(model.White, b.Get(pt(3, 4)))
}

func (s *VariantSuite) TestTossClearsBlockedHomeCell() {
	b := model.NewBoard(9)
	b.Set(pt(8, 4), model.White)

	rest, out, shifts := Toss(b, model.Black, 4, 6)
	s.False(out)
	s.Equal(pt(8, 4), rest)
	s.Equal([]model.Shift{{From: pt(8, 4), To: pt(5, 4), Color: model.White}}, shifts)
	s.Equal(model.Black, b.Get(pt(8, 4)))
	s.Equal(model.White, b.Get(pt(5, 4)))
}

func (s *VariantSuite) TestTossOutWhenHomeCellStaysBlocked() {
	b := model.NewBoard(9)
	b.Set(pt(8, 4), model.White)
	b.Set(pt(7, 4), model.White)

	_, out, shifts := Toss(b, model.Black, 4, 6)
	s.True(out)
	s.Empty(shifts)
	s.Equal(0, b.Count(model.Black))

	_, out, _ = Toss(b, model.Black, 4, 1)
	s.True(out)
	s.Equal(0, b.Count(model.Black))
}

func (s *VariantSuite) TestScoreCurlingRound() {
	b := model.NewBoard(9)
	b.Set(pt(4, 4), model.Black)
	b.Set(pt(6, 4), model.Black)
	b.Set(pt(3, 4), model.White)

	winner, points := ScoreCurlingRound(b)
	s.Equal(model.Black, winner)
	s.Equal(1, points)
}

func (s *VariantSuite) TestCurlingGameEndsAfterRounds() {
	sess := newSession(model.ModeCurling, 9)
	sess.Config.CurlingStones = 1
	sess.Config.CurlingRounds = 1
	sess.Variant.TossesLeft = bothColors(1)

	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionToss, Point: pt(0, 4), Power: 5})
	s.Require().NoError(err)
	res, err := s.apply(sess, model.White, model.Action{Kind: model.ActionToss, Point: pt(0, 0), Power: 1})
	s.Require().NoError(err)

	s.Require().NotNil(res.Outcome)
	s.Equal(model.Black, res.Outcome.Winner)
	s.Equal(1, sess.Variant.RoundScores[model.Black])
}

func (s *VariantSuite) TestTossRejectsBadPower() {
	sess := newSession(model.ModeCurling, 9)

	_, err := s.apply(sess, model.Black, model.Action{Kind: model.ActionToss, Point: pt(0, 4), Power: 0})
	s.ErrorIs(err, model.ErrInvalidPower)
}
