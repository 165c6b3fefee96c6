// Package apportionment implements the statutory seat-assignment
// algorithm: a Hare-quota whole-seat pass followed by residual-seat
// assignment (largest remainder below 19 seats, d'Hondt highest averages
// at or above), with absolute-majority correction. Every
// comparison that decides a seat uses exact fraction.Fraction arithmetic
// — this package never touches floating point.
package apportionment

import (
	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/fraction"
)

// LargeCouncilThreshold is the one process-wide configurable constant:
// councils with this many seats or more use d'Hondt highest averages for
// residual seats; below it, largest remainder.
const LargeCouncilThreshold = 19

// SeatChangeKind tags which rule produced a SeatChange.
type SeatChangeKind string

const (
	ChangeHighestAverage          SeatChangeKind = "highest_average"
	ChangeLargestRemainder        SeatChangeKind = "largest_remainder"
	ChangeUniqueHighestAverage    SeatChangeKind = "unique_highest_average"
	ChangeAbsoluteMajorityRetract SeatChangeKind = "absolute_majority_retract"
	ChangeAbsoluteMajorityAssign  SeatChangeKind = "absolute_majority_assign"
)

// SeatChange is the discriminated union recording what happened at one
// residual-seat or absolute-majority step. Implementations must inspect
// Kind before reading the fields that are meaningful for it — there is no
// implicit default interpretation of a zero-valued SeatChange.
type SeatChange struct {
	Kind       SeatChangeKind
	PgNumber   int   // the group the seat moved to (or away from, for a retract)
	TiedGroups []int // other group numbers that tied in this selection, if any
}

// PoliticalGroupStanding is one political group's apportionment state at
// a point in time.
type PoliticalGroupStanding struct {
	PgNumber         int
	VotesCast        int64
	SurplusVotes     fraction.Fraction
	MeetsThreshold   bool
	WholeSeats       int
	ResidualSeats    int
	TotalSeats       int
	NextVotesPerSeat fraction.Fraction

	candidateCount     int
	receivedResidual   bool
	receivedFallback   bool
	retractedException bool
}

// ApportionmentStep records one residual-seat assignment: the standing
// just before the change, the change itself, and the 1-based residual
// seat index it fills; steps are totally ordered by residual_seat_number
// starting at 1.
type ApportionmentStep struct {
	ResidualSeatNumber int
	StandingBefore     []PoliticalGroupStanding
	Change             SeatChange
}

// Result is the full apportionment output.
type Result struct {
	Seats         int
	Quota         fraction.Fraction
	Steps         []ApportionmentStep
	FinalStanding []PoliticalGroupStanding
}

func cloneStandings(in []PoliticalGroupStanding) []PoliticalGroupStanding {
	out := make([]PoliticalGroupStanding, len(in))
	copy(out, in)
	return out
}

// Apportion runs the full statutory algorithm for an election summary
// against a council of the given seat count.
func Apportion(seats int, election domain.Election, summary domain.ElectionSummary) (*Result, error) {
	totalVotes := summary.TotalVotesCandidates()
	if totalVotes == 0 {
		return nil, &apperr.ZeroVotesCast{}
	}

	quota, err := fraction.New(uint64(totalVotes), uint64(seats))
	if err != nil {
		return nil, err
	}

	standings, totalCandidates, err := initialStandings(seats, election, summary, quota)
	if err != nil {
		return nil, err
	}
	if seats > totalCandidates {
		return nil, &apperr.AllListsExhausted{}
	}

	assignedWhole := 0
	for i := range standings {
		assignedWhole += standings[i].WholeSeats
		standings[i].TotalSeats = standings[i].WholeSeats
	}
	residualSeats := seats - assignedWhole

	var steps []ApportionmentStep
	for seatIdx := 1; seatIdx <= residualSeats; seatIdx++ {
		before := cloneStandings(standings)
		remaining := residualSeats - seatIdx + 1

		winner, change, err := selectResidualSeat(seats, standings, remaining)
		if err != nil {
			return nil, err
		}

		standings[winner].ResidualSeats++
		standings[winner].TotalSeats++
		standings[winner].receivedResidual = true
		recomputeNextVotesPerSeat(&standings[winner])

		steps = append(steps, ApportionmentStep{
			ResidualSeatNumber: seatIdx,
			StandingBefore:     before,
			Change:             change,
		})
	}

	steps = applyAbsoluteMajorityCorrection(seats, totalVotes, standings, steps)

	return &Result{
		Seats:         seats,
		Quota:         quota,
		Steps:         steps,
		FinalStanding: cloneStandings(standings),
	}, nil
}

// initialStandings builds the whole-seat standings for every political
// group with votes in the summary, also returning the total candidate
// count across all lists for the list-exhaustion pre-check.
func initialStandings(seats int, election domain.Election, summary domain.ElectionSummary, quota fraction.Fraction) ([]PoliticalGroupStanding, int, error) {
	candidateCounts := make(map[int]int, len(election.PoliticalGroups))
	totalCandidates := 0
	for _, g := range election.PoliticalGroups {
		candidateCounts[g.Number] = g.CandidateCount()
		totalCandidates += g.CandidateCount()
	}

	threeQuarters, err := fraction.New(3, 4)
	if err != nil {
		return nil, 0, err
	}

	standings := make([]PoliticalGroupStanding, 0, len(summary.PoliticalGroupVotes))
	for _, pg := range summary.PoliticalGroupVotes {
		votes := int64(pg.Total)
		votesFraction := fraction.FromInt(uint64(votes))

		wholeSeats := 0
		if votes > 0 {
			ratio, err := votesFraction.Div(quota)
			if err != nil {
				return nil, 0, err
			}
			wholeSeats = int(ratio.IntegerPart())
		}

		wholeSeatsAsQuota, err := fraction.FromInt(uint64(wholeSeats)).Mul(quota)
		if err != nil {
			return nil, 0, err
		}
		surplus, err := votesFraction.Sub(wholeSeatsAsQuota)
		if err != nil {
			return nil, 0, err
		}

		thresholdValue, err := threeQuarters.Mul(quota)
		if err != nil {
			return nil, 0, err
		}
		meetsThreshold := votesFraction.GreaterOrEqual(thresholdValue)

		denom, err := fraction.New(uint64(wholeSeats+1), 1)
		if err != nil {
			return nil, 0, err
		}
		nextVotesPerSeat, err := votesFraction.Div(denom)
		if err != nil {
			return nil, 0, err
		}

		standings = append(standings, PoliticalGroupStanding{
			PgNumber:         pg.Number,
			VotesCast:        votes,
			SurplusVotes:     surplus,
			MeetsThreshold:   meetsThreshold,
			WholeSeats:       wholeSeats,
			NextVotesPerSeat: nextVotesPerSeat,
			candidateCount:   candidateCounts[pg.Number],
		})
	}

	return standings, totalCandidates, nil
}

func recomputeNextVotesPerSeat(s *PoliticalGroupStanding) {
	denom, err := fraction.New(uint64(s.TotalSeats+1), 1)
	if err != nil {
		// TotalSeats+1 is always representable; this cannot happen.
		return
	}
	next, err := fraction.FromInt(uint64(s.VotesCast)).Div(denom)
	if err != nil {
		return
	}
	s.NextVotesPerSeat = next
}

func isExhausted(s PoliticalGroupStanding) bool {
	return s.candidateCount > 0 && s.TotalSeats >= s.candidateCount
}

// selectResidualSeat runs one iteration of residual-seat assignment and
// returns the winning index into standings plus the recorded SeatChange.
// remaining is the number of residual seats left to assign, including
// the one this call is about to fill — a tie is only fatal
// (DrawingOfLotsRequired) when more groups tie than there are seats left
// to satisfy all of them.
func selectResidualSeat(seats int, standings []PoliticalGroupStanding, remaining int) (int, SeatChange, error) {
	if seats >= LargeCouncilThreshold {
		return selectByHighestAverage(standings, ChangeHighestAverage, func(PoliticalGroupStanding) bool { return true }, remaining)
	}

	// Phase 1: qualifying remainder.
	qualifies := func(s PoliticalGroupStanding) bool {
		return s.MeetsThreshold && (!s.receivedResidual || s.retractedException) && !isExhausted(s)
	}
	if idx, change, err, ok := selectBySurplus(standings, qualifies, remaining); ok {
		return idx, change, err
	}

	// Phase 2: unique-highest-average fallback.
	fallbackQualifies := func(s PoliticalGroupStanding) bool {
		return (!s.receivedFallback || s.retractedException) && !isExhausted(s)
	}
	if idx, change, err, ok := selectByHighestAverageWithOK(standings, ChangeUniqueHighestAverage, fallbackQualifies, remaining); ok {
		if err == nil {
			standings[idx].receivedFallback = true
		}
		return idx, change, err
	}

	// Phase 3: unrestricted highest average.
	return selectByHighestAverage(standings, ChangeHighestAverage, func(s PoliticalGroupStanding) bool { return !isExhausted(s) }, remaining)
}

// resolveTie decides whether a tied set of candidate group numbers can be
// satisfied by the seats remaining. When it can, the lowest-numbered
// group is chosen deterministically — since every tied group will
// eventually receive a seat across the remaining iterations, the choice
// of which one fills this particular step does not change the final
// per-group seat totals. When it cannot, DrawingOfLotsRequired is
// returned with every tied group number.
func resolveTie(tied []int, remaining int) (winner int, err error) {
	if len(tied) <= remaining {
		winner = tied[0]
		for _, n := range tied[1:] {
			if n < winner {
				winner = n
			}
		}
		return winner, nil
	}
	return 0, &apperr.DrawingOfLotsRequired{TyingNumbers: tied, RemainingSeats: remaining}
}

func selectBySurplus(standings []PoliticalGroupStanding, eligible func(PoliticalGroupStanding) bool, remaining int) (int, SeatChange, error, bool) {
	best := -1
	var bestVal fraction.Fraction
	tied := []int{}
	for i, s := range standings {
		if !eligible(s) {
			continue
		}
		if best == -1 || s.SurplusVotes.GreaterThan(bestVal) {
			best = i
			bestVal = s.SurplusVotes
			tied = []int{s.PgNumber}
		} else if s.SurplusVotes.Equal(bestVal) {
			tied = append(tied, s.PgNumber)
		}
	}
	if best == -1 {
		return 0, SeatChange{}, nil, false
	}
	change := SeatChange{Kind: ChangeLargestRemainder, PgNumber: standings[best].PgNumber}
	if len(tied) <= 1 {
		return best, change, nil, true
	}
	change.TiedGroups = tied
	winnerPg, err := resolveTie(tied, remaining)
	if err != nil {
		return 0, change, err, true
	}
	for i, s := range standings {
		if s.PgNumber == winnerPg {
			change.PgNumber = winnerPg
			return i, change, nil, true
		}
	}
	return best, change, nil, true
}

func selectByHighestAverage(standings []PoliticalGroupStanding, kind SeatChangeKind, eligible func(PoliticalGroupStanding) bool, remaining int) (int, SeatChange, error) {
	idx, change, err, ok := selectByHighestAverageWithOK(standings, kind, eligible, remaining)
	if !ok {
		return 0, SeatChange{}, &apperr.AllListsExhausted{}
	}
	return idx, change, err
}

func selectByHighestAverageWithOK(standings []PoliticalGroupStanding, kind SeatChangeKind, eligible func(PoliticalGroupStanding) bool, remaining int) (int, SeatChange, error, bool) {
	best := -1
	var bestVal fraction.Fraction
	tied := []int{}
	for i, s := range standings {
		if !eligible(s) {
			continue
		}
		if best == -1 || s.NextVotesPerSeat.GreaterThan(bestVal) {
			best = i
			bestVal = s.NextVotesPerSeat
			tied = []int{s.PgNumber}
		} else if s.NextVotesPerSeat.Equal(bestVal) {
			tied = append(tied, s.PgNumber)
		}
	}
	if best == -1 {
		return 0, SeatChange{}, nil, false
	}
	change := SeatChange{Kind: kind, PgNumber: standings[best].PgNumber}
	if len(tied) <= 1 {
		return best, change, nil, true
	}
	change.TiedGroups = tied
	winnerPg, err := resolveTie(tied, remaining)
	if err != nil {
		return 0, change, err, true
	}
	for i, s := range standings {
		if s.PgNumber == winnerPg {
			change.PgNumber = winnerPg
			return i, change, nil, true
		}
	}
	return best, change, nil, true
}

// applyAbsoluteMajorityCorrection: if one group holds an absolute
// majority of valid votes but not of seats, retract the last-assigned
// residual seat and reassign it directly.
func applyAbsoluteMajorityCorrection(seats int, totalVotes int64, standings []PoliticalGroupStanding, steps []ApportionmentStep) []ApportionmentStep {
	if len(steps) == 0 {
		return steps
	}

	majorityIdx := -1
	for i, s := range standings {
		if s.VotesCast*2 > totalVotes && s.TotalSeats*2 <= seats {
			majorityIdx = i
			break
		}
	}
	if majorityIdx == -1 {
		return steps
	}

	lastChangePg := steps[len(steps)-1].Change.PgNumber
	lastIdx := -1
	for i, s := range standings {
		if s.PgNumber == lastChangePg {
			lastIdx = i
			break
		}
	}
	if lastIdx == -1 || lastIdx == majorityIdx {
		return steps
	}

	before := cloneStandings(standings)
	standings[lastIdx].ResidualSeats--
	standings[lastIdx].TotalSeats--
	standings[lastIdx].retractedException = true
	recomputeNextVotesPerSeat(&standings[lastIdx])
	steps = append(steps, ApportionmentStep{
		ResidualSeatNumber: len(steps) + 1,
		StandingBefore:     before,
		Change:             SeatChange{Kind: ChangeAbsoluteMajorityRetract, PgNumber: standings[lastIdx].PgNumber},
	})

	before = cloneStandings(standings)
	standings[majorityIdx].ResidualSeats++
	standings[majorityIdx].TotalSeats++
	standings[majorityIdx].receivedResidual = true
	recomputeNextVotesPerSeat(&standings[majorityIdx])
	steps = append(steps, ApportionmentStep{
		ResidualSeatNumber: len(steps) + 1,
		StandingBefore:     before,
		Change:             SeatChange{Kind: ChangeAbsoluteMajorityAssign, PgNumber: standings[majorityIdx].PgNumber},
	})

	return steps
}
