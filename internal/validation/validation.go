// Package validation implements the pure coherence checks a polling
// station's dual-entered result must pass before it can be finalised.
// Validate never mutates its inputs and never has side effects: small
// named checks, each appending to a shared diagnostics slice, composed
// by one entrypoint rather than a visitor hierarchy.
package validation

import (
	"fmt"

	"github.com/rawblock/abacus/internal/domain"
)

// Kind distinguishes a blocking error from an advisory warning.
type Kind string

const (
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// Diagnostic is one validation finding with a stable machine-readable
// code and a dotted field path pointing at the offending value.
type Diagnostic struct {
	Code      string
	Kind      Kind
	FieldPath string
}

// warnBlankInvalidPercent is the statutory 3% threshold for W.201/W.202.
const warnBlankInvalidPercent = 3

// warnDifferencePercent and warnDifferenceFloor are the "2% or 15" bounds
// for W.203. The denominator is cast total_votes_cast_count.
const (
	warnDifferencePercent = 2
	warnDifferenceFloor   = 15
)

// Validate runs every coherence check against results for one polling
// station of one election and returns (errors, warnings). An empty
// errors slice is required before an entry may be finalised.
func Validate(results domain.PollingStationResults, election domain.Election, station domain.PollingStation) (errors []Diagnostic, warnings []Diagnostic) {
	voters := results.VotersTotals()
	votes := results.VotesTotals()
	diffs := results.DifferencesTotals()
	groups := results.GroupVotes()

	errors = append(errors, checkVoterTotals(voters)...)
	errors = append(errors, checkVoteTotals(votes)...)
	errors = append(errors, checkDifferencesConsistency(voters, votes, diffs)...)
	errors = append(errors, checkCandidateTotals(election, votes, groups)...)

	warnings = append(warnings, checkThresholdWarnings(voters, votes)...)

	return errors, warnings
}

// checkVoterTotals implements F.201: poll_card + proxy_certificate must
// equal total_admitted_voters.
func checkVoterTotals(voters domain.VotersCounts) []Diagnostic {
	sum := int64(voters.PollCardCount) + int64(voters.ProxyCertificateCount)
	if sum != int64(voters.TotalAdmittedVoters) {
		return []Diagnostic{{Code: "F.201", Kind: KindError, FieldPath: "data.voters_counts.total_admitted_voters_count"}}
	}
	return nil
}

// checkVoteTotals implements F.203: the candidate-vote total plus blank
// plus invalid must equal total cast. F.202 (the per-list totals against
// the declared candidate total) is checked in checkCandidateTotals, since
// it needs the group breakdown.
func checkVoteTotals(votes domain.VotesCounts) []Diagnostic {
	var out []Diagnostic
	sum := int64(votes.VotesCandidatesTotal) + int64(votes.BlankVotesCount) + int64(votes.InvalidVotesCount)
	if sum != int64(votes.TotalVotesCastCount) {
		out = append(out, Diagnostic{Code: "F.203", Kind: KindError, FieldPath: "data.votes_counts.total_votes_cast_count"})
	}
	return out
}

// checkDifferencesConsistency implements F.204: the recorded
// more/fewer-ballots flags and counts must agree with the actual delta
// between total_votes_cast_count and total_admitted_voters_count, not
// merely with each other.
func checkDifferencesConsistency(voters domain.VotersCounts, votes domain.VotesCounts, diffs domain.DifferencesCounts) []Diagnostic {
	moreSet := diffs.MoreBallotsCountedThanVotersCardsCount
	fewerSet := diffs.FewerBallotsCountedThanVotersCardsCount
	if moreSet && fewerSet {
		return []Diagnostic{{Code: "F.204", Kind: KindError, FieldPath: "data.differences_counts"}}
	}

	delta := int64(votes.TotalVotesCastCount) - int64(voters.TotalAdmittedVoters)

	switch {
	case delta > 0:
		if !moreSet || fewerSet || int64(diffs.MoreBallotsCount) != delta {
			return []Diagnostic{{Code: "F.204", Kind: KindError, FieldPath: "data.differences_counts.more_ballots_count"}}
		}
	case delta < 0:
		if !fewerSet || moreSet || int64(diffs.FewerBallotsCount) != -delta {
			return []Diagnostic{{Code: "F.204", Kind: KindError, FieldPath: "data.differences_counts.fewer_ballots_count"}}
		}
	default:
		if moreSet || fewerSet || diffs.MoreBallotsCount != 0 || diffs.FewerBallotsCount != 0 {
			return []Diagnostic{{Code: "F.204", Kind: KindError, FieldPath: "data.differences_counts"}}
		}
	}
	return nil
}

// checkCandidateTotals implements F.202/F.401/F.402/F.403 with the
// suppression rule: within a list, F.401 precludes F.402 and F.403 for
// that same list. Lists are visited in ascending order and, within a
// list, codes are emitted in ascending order: F.401, then F.402, then
// F.403.
func checkCandidateTotals(election domain.Election, votes domain.VotesCounts, groups []domain.PoliticalGroupCandidateVotes) []Diagnostic {
	var out []Diagnostic

	byNumber := make(map[int]domain.PoliticalGroupCandidateVotes, len(groups))
	for _, g := range groups {
		byNumber[g.Number] = g
	}

	var sumOfListTotals int64
	for _, pg := range election.PoliticalGroups {
		listTotal, _ := votes.GroupTotal(pg.Number)
		sumOfListTotals += int64(listTotal)

		g, ok := byNumber[pg.Number]
		if !ok {
			continue
		}

		candidateSum := g.CandidateVotesTotal()
		f401 := (candidateSum > 0 || listTotal > 0) && g.Total == 0

		if f401 {
			out = append(out, Diagnostic{
				Code: "F.401", Kind: KindError,
				FieldPath: fmt.Sprintf("data.political_group_votes[%d].total", pg.Number),
			})
			continue
		}

		if candidateSum != int64(g.Total) {
			out = append(out, Diagnostic{
				Code: "F.402", Kind: KindError,
				FieldPath: fmt.Sprintf("data.political_group_votes[%d].total", pg.Number),
			})
		}
		if int64(g.Total) != int64(listTotal) {
			out = append(out, Diagnostic{
				Code: "F.403", Kind: KindError,
				FieldPath: fmt.Sprintf("data.political_group_votes[%d].total", pg.Number),
			})
		}
	}

	if sumOfListTotals != int64(votes.VotesCandidatesTotal) {
		out = append(out, Diagnostic{Code: "F.202", Kind: KindError, FieldPath: "data.votes_counts.votes_candidates_total"})
	}

	return out
}

// checkThresholdWarnings implements W.201, W.202, W.203, and W.204.
// Percentages use integer arithmetic: "value >= p% of total" means
// value*100 >= total*p (the threshold rounds up, i.e. is never satisfied
// by rounding the percentage down).
func checkThresholdWarnings(voters domain.VotersCounts, votes domain.VotesCounts) []Diagnostic {
	var out []Diagnostic

	cast := int64(votes.TotalVotesCastCount)

	if cast == 0 {
		return []Diagnostic{{Code: "W.204", Kind: KindWarning, FieldPath: "data.votes_counts.total_votes_cast_count"}}
	}

	if int64(votes.BlankVotesCount)*100 >= cast*warnBlankInvalidPercent {
		out = append(out, Diagnostic{Code: "W.201", Kind: KindWarning, FieldPath: "data.votes_counts.blank_votes_count"})
	}
	if int64(votes.InvalidVotesCount)*100 >= cast*warnBlankInvalidPercent {
		out = append(out, Diagnostic{Code: "W.202", Kind: KindWarning, FieldPath: "data.votes_counts.invalid_votes_count"})
	}

	admitted := int64(voters.TotalAdmittedVoters)
	diff := admitted - cast
	if diff < 0 {
		diff = -diff
	}
	if diff*100 >= cast*warnDifferencePercent && diff >= warnDifferenceFloor {
		out = append(out, Diagnostic{Code: "W.203", Kind: KindWarning, FieldPath: "data.voters_counts.total_admitted_voters_count"})
	}

	return out
}
