package domain

// VotersCounts tallies admitted voters for one polling station and round.
// Totals are accumulated in int64 by callers performing arithmetic so a
// pathological input cannot silently wrap a 32-bit counter.
type VotersCounts struct {
	PollCardCount         int32
	ProxyCertificateCount int32
	TotalAdmittedVoters   int32
}

// VotesCounts tallies cast votes for one polling station and round.
// PoliticalGroupTotals is the per-list total as keyed into the "votes per
// list" page of the paper form — a value entered independently of, and
// cross-checked against, the candidate-level breakdown in GroupVotes.
// Index i holds the total for group i+1.
type VotesCounts struct {
	PoliticalGroupTotals []int32
	VotesCandidatesTotal int32
	BlankVotesCount      int32
	InvalidVotesCount    int32
	TotalVotesCastCount  int32
}

// GroupTotal returns the declared per-list total for the given 1-based
// group number, or (0, false) if the group has no entry.
func (v VotesCounts) GroupTotal(number int) (int32, bool) {
	idx := number - 1
	if idx < 0 || idx >= len(v.PoliticalGroupTotals) {
		return 0, false
	}
	return v.PoliticalGroupTotals[idx], true
}

// DifferencesCounts records the reconciliation between admitted voters and
// cast votes for one polling station and round.
type DifferencesCounts struct {
	MoreBallotsCountedThanVotersCardsCount  bool
	FewerBallotsCountedThanVotersCardsCount bool
	UnexplainedDifferenceOngoing            bool
	MoreBallotsCount                        int32
	FewerBallotsCount                       int32
	DifferenceCompletelyAccountedFor        bool
}

// PoliticalGroupCandidateVotes holds one political group's candidate-level
// vote tally plus its declared list total, for one polling station result.
type PoliticalGroupCandidateVotes struct {
	Number         int
	Total          int32
	CandidateVotes []int32 // index 0 == candidate number 1
}

// CandidateVotesTotal sums the candidate-level votes (64-bit accumulator
// to guard against overflow while summing many int32s).
func (p PoliticalGroupCandidateVotes) CandidateVotesTotal() int64 {
	var sum int64
	for _, v := range p.CandidateVotes {
		sum += int64(v)
	}
	return sum
}

// PollingStationResults is the common contract every counting-method
// variant satisfies, so validation, aggregation, and EML emission are
// written once against the interface rather than switching on variant
// everywhere they are used.
type PollingStationResults interface {
	VotersTotals() VotersCounts
	VotesTotals() VotesCounts
	DifferencesTotals() DifferencesCounts
	GroupVotes() []PoliticalGroupCandidateVotes
}

// CSOFirstSession is the result shape for a central-summation first
// session: it carries the two session-1-only flags alongside the common
// counts.
type CSOFirstSession struct {
	Voters                            VotersCounts
	Votes                             VotesCounts
	Differences                       DifferencesCounts
	PoliticalGroupVotes               []PoliticalGroupCandidateVotes
	ExtraInvestigation                bool
	CountingDifferencesPollingStation bool
}

func (r CSOFirstSession) VotersTotals() VotersCounts           { return r.Voters }
func (r CSOFirstSession) VotesTotals() VotesCounts             { return r.Votes }
func (r CSOFirstSession) DifferencesTotals() DifferencesCounts { return r.Differences }
func (r CSOFirstSession) GroupVotes() []PoliticalGroupCandidateVotes {
	return r.PoliticalGroupVotes
}

// CSONextSession is the result shape used for central-summation
// corrigendum sessions: identical to CSOFirstSession minus the two
// session-1-only flags.
type CSONextSession struct {
	Voters              VotersCounts
	Votes               VotesCounts
	Differences         DifferencesCounts
	PoliticalGroupVotes []PoliticalGroupCandidateVotes
}

func (r CSONextSession) VotersTotals() VotersCounts           { return r.Voters }
func (r CSONextSession) VotesTotals() VotesCounts             { return r.Votes }
func (r CSONextSession) DifferencesTotals() DifferencesCounts { return r.Differences }
func (r CSONextSession) GroupVotes() []PoliticalGroupCandidateVotes {
	return r.PoliticalGroupVotes
}

// DSOFirstSession is the decentralised-summation first-session result
// shape. It shares CSOFirstSession's contract and adds the second ballot
// round's counts, since DSO stations count two rounds of the same ballot.
type DSOFirstSession struct {
	Voters                            VotersCounts
	Votes                             VotesCounts
	Differences                       DifferencesCounts
	PoliticalGroupVotes               []PoliticalGroupCandidateVotes
	ExtraInvestigation                bool
	CountingDifferencesPollingStation bool
	VotersCountsSecondRound           VotersCounts
	VotesCountsSecondRound            VotesCounts
}

func (r DSOFirstSession) VotersTotals() VotersCounts           { return r.Voters }
func (r DSOFirstSession) VotesTotals() VotesCounts             { return r.Votes }
func (r DSOFirstSession) DifferencesTotals() DifferencesCounts { return r.Differences }
func (r DSOFirstSession) GroupVotes() []PoliticalGroupCandidateVotes {
	return r.PoliticalGroupVotes
}

// DSONextSession is the DSO corrigendum variant.
type DSONextSession struct {
	Voters                  VotersCounts
	Votes                   VotesCounts
	Differences             DifferencesCounts
	PoliticalGroupVotes     []PoliticalGroupCandidateVotes
	VotersCountsSecondRound VotersCounts
	VotesCountsSecondRound  VotesCounts
}

func (r DSONextSession) VotersTotals() VotersCounts           { return r.Voters }
func (r DSONextSession) VotesTotals() VotesCounts             { return r.Votes }
func (r DSONextSession) DifferencesTotals() DifferencesCounts { return r.Differences }
func (r DSONextSession) GroupVotes() []PoliticalGroupCandidateVotes {
	return r.PoliticalGroupVotes
}
