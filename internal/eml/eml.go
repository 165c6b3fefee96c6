// Package eml builds EML_NL 510 result documents, the Kiesraad-mandated
// XML interchange format a committee session's results are exported as
// once a session finishes. It is a direct structural port of the
// original's eml::eml_510 module (EML510/Count/Election/Contest/
// TotalVotes/ReportingUnitVotes), expressed with encoding/xml tags in
// place of serde's PascalCase rename: no third-party XML marshaller
// appears anywhere in the retrieved corpus, so this package is grounded
// on the standard library by necessity rather than as a default.
package eml

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/rawblock/abacus/internal/domain"
)

// EML510 is the root element of an EML_NL 510b (first session) or 510d
// (subsequent session / corrigendum) vote-count document.
type EML510 struct {
	XMLName           xml.Name          `xml:"EML"`
	ID                string            `xml:"Id,attr"`
	TransactionID     string            `xml:"TransactionId"`
	ManagingAuthority ManagingAuthority `xml:"ManagingAuthority"`
	CreationDateTime  string            `xml:"CreationDateTime"`
	Count             Count             `xml:"Count"`
}

type ManagingAuthority struct {
	AuthorityIdentifier AuthorityIdentifier `xml:"AuthorityIdentifier"`
}

type AuthorityIdentifier struct {
	ID   string `xml:"Id,attr"`
	Name string `xml:",chardata"`
}

type Count struct {
	Election Election `xml:"Election"`
}

type Election struct {
	ElectionIdentifier ElectionIdentifier `xml:"ElectionIdentifier"`
	Contests           []Contest          `xml:"Contest"`
}

type ElectionIdentifier struct {
	ID           string `xml:"Id,attr"`
	ElectionName string `xml:"ElectionName"`
	ElectionDate string `xml:"ElectionDate"`
}

type Contest struct {
	ContestIdentifier  ContestIdentifier    `xml:"ContestIdentifier"`
	TotalVotes         TotalVotes           `xml:"TotalVotes"`
	ReportingUnitVotes []ReportingUnitVotes `xml:"ReportingUnitVotes"`
}

type ContestIdentifier struct {
	ID string `xml:"Id,attr"`
}

// TotalVotes carries the election-wide summary: one Selection per
// political group/candidate plus the rejected/cast/counted totals.
type TotalVotes struct {
	Selections    []Selection     `xml:"Selection"`
	Cast          int32           `xml:"Cast"`
	TotalCounted  int32           `xml:"TotalCounted"`
	RejectedVotes []RejectedVotes `xml:"RejectedVotes"`
}

type Selection struct {
	AffiliationIdentifier *AffiliationIdentifier `xml:"AffiliationIdentifier,omitempty"`
	CandidateIdentifier   *CandidateIdentifier   `xml:"Candidate>CandidateIdentifier,omitempty"`
	ValidVotes            int32                  `xml:"ValidVotes"`
}

type AffiliationIdentifier struct {
	ID int `xml:"Id,attr"`
}

type CandidateIdentifier struct {
	ID int `xml:"Id,attr"`
}

type RejectedVotes struct {
	ReasonCode string `xml:"ReasonCode,attr"`
	Count      int32  `xml:",chardata"`
}

// ReportingUnitVotes is one polling station's contribution.
type ReportingUnitVotes struct {
	ReportingUnitIdentifier ReportingUnitIdentifier `xml:"ReportingUnitIdentifier"`
	Selections              []Selection             `xml:"Selection"`
	Cast                    int32                   `xml:"Cast"`
	TotalCounted            int32                   `xml:"TotalCounted"`
	RejectedVotes           []RejectedVotes         `xml:"RejectedVotes"`
}

type ReportingUnitIdentifier struct {
	ID   int    `xml:"Id,attr"`
	Name string `xml:",chardata"`
}

// resultSet pairs one station with its resolved result, the same shape
// aggregation.StationResult gives the caller.
type resultSet struct {
	station domain.PollingStation
	result  domain.PollingStationResults
}

// FromSummary builds the 510 document for a finished committee session.
// kind is "510b" for a first session or "510d" for a corrigendum.
func FromSummary(kind string, election domain.Election, authorityName string, stations []domain.PollingStation, results []domain.PollingStationResults, summary domain.ElectionSummary, createdAt time.Time) (*EML510, error) {
	if len(stations) != len(results) {
		return nil, fmt.Errorf("eml: station and result slices must be the same length")
	}

	doc := &EML510{
		ID:            kind,
		TransactionID: "1",
		ManagingAuthority: ManagingAuthority{
			AuthorityIdentifier: AuthorityIdentifier{
				ID:   fmt.Sprintf("%d", election.ID),
				Name: authorityName,
			},
		},
		CreationDateTime: createdAt.UTC().Format(time.RFC3339),
	}

	totalVotes := TotalVotes{
		Cast:         summary.Votes.TotalVotesCastCount,
		TotalCounted: summary.Votes.VotesCandidatesTotal,
		RejectedVotes: []RejectedVotes{
			{ReasonCode: "blank", Count: summary.Votes.BlankVotesCount},
			{ReasonCode: "invalid", Count: summary.Votes.InvalidVotesCount},
		},
	}
	for _, pg := range summary.PoliticalGroupVotes {
		group, ok := election.Group(pg.Number)
		if !ok {
			return nil, fmt.Errorf("eml: political group %d not found in election", pg.Number)
		}
		totalVotes.Selections = append(totalVotes.Selections, Selection{
			AffiliationIdentifier: &AffiliationIdentifier{ID: pg.Number},
			ValidVotes:            pg.Total,
		})
		for i, v := range pg.CandidateVotes {
			totalVotes.Selections = append(totalVotes.Selections, Selection{
				CandidateIdentifier: &CandidateIdentifier{ID: group.Candidates[i].Number},
				ValidVotes:          v,
			})
		}
	}

	reporting := make([]ReportingUnitVotes, 0, len(stations))
	for i, st := range stations {
		ruv, err := reportingUnitFor(election, st, results[i])
		if err != nil {
			return nil, err
		}
		reporting = append(reporting, ruv)
	}

	doc.Count.Election = Election{
		ElectionIdentifier: ElectionIdentifier{
			ID:           fmt.Sprintf("%d", election.ID),
			ElectionName: election.Name,
			ElectionDate: election.ElectionDate.Format("2006-01-02"),
		},
		Contests: []Contest{{
			ContestIdentifier:  ContestIdentifier{ID: "1"},
			TotalVotes:         totalVotes,
			ReportingUnitVotes: reporting,
		}},
	}

	return doc, nil
}

func reportingUnitFor(election domain.Election, station domain.PollingStation, result domain.PollingStationResults) (ReportingUnitVotes, error) {
	votes := result.VotesTotals()
	ruv := ReportingUnitVotes{
		ReportingUnitIdentifier: ReportingUnitIdentifier{ID: station.Number, Name: station.Name},
		Cast:                    votes.TotalVotesCastCount,
		TotalCounted:            votes.VotesCandidatesTotal,
		RejectedVotes: []RejectedVotes{
			{ReasonCode: "blank", Count: votes.BlankVotesCount},
			{ReasonCode: "invalid", Count: votes.InvalidVotesCount},
		},
	}
	for _, pg := range result.GroupVotes() {
		group, ok := election.Group(pg.Number)
		if !ok {
			return ReportingUnitVotes{}, fmt.Errorf("eml: political group %d not found in election", pg.Number)
		}
		ruv.Selections = append(ruv.Selections, Selection{
			AffiliationIdentifier: &AffiliationIdentifier{ID: pg.Number},
			ValidVotes:            pg.Total,
		})
		for i, v := range pg.CandidateVotes {
			ruv.Selections = append(ruv.Selections, Selection{
				CandidateIdentifier: &CandidateIdentifier{ID: group.Candidates[i].Number},
				ValidVotes:          v,
			})
		}
	}
	return ruv, nil
}

// Emit serialises doc as indented XML with the standard declaration, the
// form published to election management software.
func Emit(doc *EML510) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	header := []byte(xml.Header)
	return append(header, body...), nil
}
