// Package render documents the output-rendering boundary: turning an
// EML510 document or a committee session's results into signed PDF or
// Typst artefacts is not implemented here. What is implemented is the
// interface a real renderer would satisfy, plus a NullRenderer so every
// caller that depends on rendering can be exercised in tests without one.
package render

import (
	"strconv"

	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/eml"
)

// Artifact is a rendered output ready to be stored as a domain.FileID.
type Artifact struct {
	ContentType string
	Bytes       []byte
}

// Renderer turns a committee session's finished results into the
// artefacts domain.CommitteeSession tracks: the EML export, a process
// PDF, and an overview PDF. A production implementation would shell out
// to Typst or an equivalent typesetting engine.
type Renderer interface {
	RenderEML(doc *eml.EML510) (Artifact, error)
	RenderProcessPDF(election domain.Election, summary domain.ElectionSummary) (Artifact, error)
	RenderOverviewPDF(election domain.Election, summary domain.ElectionSummary) (Artifact, error)
}

// NullRenderer satisfies Renderer without producing any PDF: RenderEML
// returns the unsigned eml.Emit XML of its input, and the two PDF methods
// return a one-line plain-text summary (election name and total votes
// cast). It exists so store/api wiring that depends on a Renderer can
// be tested without a real typesetting backend.
type NullRenderer struct{}

func (NullRenderer) RenderEML(doc *eml.EML510) (Artifact, error) {
	body, err := eml.Emit(doc)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{ContentType: "application/xml", Bytes: body}, nil
}

func (NullRenderer) RenderProcessPDF(election domain.Election, summary domain.ElectionSummary) (Artifact, error) {
	return Artifact{ContentType: "text/plain", Bytes: []byte(summaryText(election, summary))}, nil
}

func (NullRenderer) RenderOverviewPDF(election domain.Election, summary domain.ElectionSummary) (Artifact, error) {
	return Artifact{ContentType: "text/plain", Bytes: []byte(summaryText(election, summary))}, nil
}

func summaryText(election domain.Election, summary domain.ElectionSummary) string {
	return election.Name + ": " + formatTotals(summary)
}

func formatTotals(summary domain.ElectionSummary) string {
	return "total votes cast=" + strconv.Itoa(int(summary.Votes.TotalVotesCastCount))
}
