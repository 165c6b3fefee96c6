package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/abacus/internal/aggregation"
	"github.com/rawblock/abacus/internal/apportionment"
	"github.com/rawblock/abacus/internal/committeesession"
	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/eml"
	"github.com/rawblock/abacus/internal/metrics"
	"github.com/rawblock/abacus/internal/nomination"
	"github.com/rawblock/abacus/internal/store"
)

func sessionID(c *gin.Context) (domain.CommitteeSessionID, error) {
	raw, err := strconv.ParseInt(c.Param("sessionId"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid committee session id: %w", err)
	}
	return domain.CommitteeSessionID(raw), nil
}

// withSessionTx begins a Tx and locks the committee session named in the
// URL, for every lifecycle transition. auditAction labels the metrics and
// audit-log entry this transition produces.
func (h *APIHandler) withSessionTx(c *gin.Context, auditAction string, fn func(ctx context.Context, tx store.Tx, session domain.CommitteeSession) (domain.CommitteeSession, error)) {
	id, err := sessionID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tx, err := h.store.Begin(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	session, err := tx.LockCommitteeSession(ctx, id)
	if err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	next, err := fn(ctx, tx, session)
	if err != nil {
		_ = tx.Rollback(ctx)
		metrics.SessionTransitions.WithLabelValues(auditAction, "rejected").Inc()
		writeError(c, err)
		return
	}

	if err := tx.SaveCommitteeSession(ctx, next); err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	subject := fmt.Sprintf("committee_session:%d", id)
	if err := appendAudit(ctx, tx, 0, auditAction, subject, ""); err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(c, err)
		return
	}

	metrics.SessionTransitions.WithLabelValues(auditAction, "accepted").Inc()
	h.hub.BroadcastTransition("committee_session", subject, string(next.Status))
	c.JSON(http.StatusOK, next)
}

// sessionPredicates computes committeesession.Predicates from the current
// persisted state, the capability computation the pure FSM keeps out of
// its own transition logic.
func sessionPredicates(ctx context.Context, tx store.Tx, session domain.CommitteeSession, election domain.Election) (committeesession.Predicates, error) {
	stations, err := tx.PollingStationsOf(ctx, session.ID)
	if err != nil {
		return committeesession.Predicates{}, err
	}
	if len(stations) == 0 {
		return committeesession.Predicates{HasPollingStations: false}, nil
	}

	hasInvestigations := false
	for _, st := range stations {
		if _, ok, err := tx.Investigation(st.ID); err != nil {
			return committeesession.Predicates{}, err
		} else if ok {
			hasInvestigations = true
			break
		}
	}

	_, _, err = aggregation.Aggregate(election, stations, tx)
	hasComplete := err == nil

	return committeesession.Predicates{
		HasPollingStations: true,
		HasInvestigations:  hasInvestigations,
		HasCompleteResults: hasComplete,
	}, nil
}

func (h *APIHandler) handleStartSession(c *gin.Context) {
	h.withSessionTx(c, "start", func(ctx context.Context, tx store.Tx, session domain.CommitteeSession) (domain.CommitteeSession, error) {
		election, err := tx.Election(ctx, session.ElectionID)
		if err != nil {
			return session, err
		}
		p, err := sessionPredicates(ctx, tx, session, election)
		if err != nil {
			return session, err
		}
		return committeesession.Start(session, p)
	})
}

func (h *APIHandler) handlePauseSession(c *gin.Context) {
	h.withSessionTx(c, "pause", func(ctx context.Context, tx store.Tx, session domain.CommitteeSession) (domain.CommitteeSession, error) {
		return committeesession.Pause(session)
	})
}

func (h *APIHandler) handleResumeSession(c *gin.Context) {
	h.withSessionTx(c, "resume", func(ctx context.Context, tx store.Tx, session domain.CommitteeSession) (domain.CommitteeSession, error) {
		next, events, err := committeesession.Resume(session)
		if err != nil {
			return session, err
		}
		for _, ev := range events {
			if err := tx.RecordFileDeleted(ctx, ev); err != nil {
				return session, err
			}
			_ = appendAudit(ctx, tx, 0, "file_deleted", fmt.Sprintf("committee_session:%d", session.ID), ev.Field)
		}
		return next, nil
	})
}

func (h *APIHandler) handleFinishSession(c *gin.Context) {
	h.withSessionTx(c, "finish", func(ctx context.Context, tx store.Tx, session domain.CommitteeSession) (domain.CommitteeSession, error) {
		election, err := tx.Election(ctx, session.ElectionID)
		if err != nil {
			return session, err
		}
		p, err := sessionPredicates(ctx, tx, session, election)
		if err != nil {
			return session, err
		}
		return committeesession.Finish(session, p)
	})
}

func (h *APIHandler) handleNewSession(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tx, err := h.store.Begin(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	current, err := tx.LockCommitteeSession(ctx, id)
	if err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	next, err := committeesession.NewSession(current)
	if err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	if err := tx.SaveCommitteeSession(ctx, next); err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	if err := appendAudit(ctx, tx, 0, "new_session", fmt.Sprintf("committee_session:%d", id), fmt.Sprintf("session %d", next.Number)); err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(c, err)
		return
	}

	metrics.SessionTransitions.WithLabelValues("new_session", "accepted").Inc()
	h.hub.BroadcastTransition("committee_session", fmt.Sprintf("committee_session:%d", id), string(next.Status))
	c.JSON(http.StatusCreated, next)
}

// handleSessionResults aggregates every polling station's result into an
// ElectionSummary, then runs apportionment and candidate nomination on
// top of it, so one GET returns the full counting outcome as three
// separate pure computations chained together by the caller.
func (h *APIHandler) handleSessionResults(c *gin.Context) {
	id, err := sessionID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tx, err := h.store.Begin(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	defer tx.Rollback(ctx)

	session, err := tx.LockCommitteeSession(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	election, err := tx.Election(ctx, session.ElectionID)
	if err != nil {
		writeError(c, err)
		return
	}
	stations, err := tx.PollingStationsOf(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	summary, resolved, err := aggregation.Aggregate(election, stations, tx)
	if err != nil {
		writeError(c, err)
		return
	}

	started := time.Now()
	apportionResult, err := apportionment.Apportion(election.NumberOfSeats, election, *summary)
	metrics.ApportionmentDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		writeError(c, err)
		return
	}

	nominationResult, err := nomination.Nominate(election.NumberOfSeats, election, apportionResult, summary.PoliticalGroupVotes)
	if err != nil {
		writeError(c, err)
		return
	}

	var stationList []domain.PollingStation
	var resultList []domain.PollingStationResults
	for _, sr := range resolved {
		stationList = append(stationList, sr.Station)
		resultList = append(resultList, sr.Result)
	}
	kind := "510b"
	if session.Number > 1 {
		kind = "510d"
	}
	doc, err := eml.FromSummary(kind, election, "abacus", stationList, resultList, *summary, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":       summary,
		"apportionment": apportionResult,
		"nomination":    nominationResult,
		"eml":           doc,
	})
}
