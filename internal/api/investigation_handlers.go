package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/domain"
)

// ════════════════════════════════════════════════════════════════════
// Investigation API handlers
// ════════════════════════════════════════════════════════════════════
//
// A polling station's investigation record is one note a coordinator
// attaches to a (station, session) pair that downstream computation —
// aggregation.Resolve — consults when deciding which result is
// authoritative for that station.

// POST /api/v1/polling-stations/:stationId/investigation
func (h *APIHandler) handleCreateInvestigation(c *gin.Context) {
	var req struct {
		CommitteeSession        int64   `json:"committee_session_id" binding:"required"`
		Reason                  string  `json:"reason" binding:"required"`
		Findings                *string `json:"findings"`
		CorrectedResults        *bool   `json:"corrected_results"`
		AcceptDataEntryDeletion bool    `json:"accept_data_entry_deletion"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := stationID(c)
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

	// A definitive result already present for this session means the
	// investigation must either accept corrected_results=true (a fresh
	// entry is expected this session) or accept_data_entry_deletion=true
	// (the existing entry is discarded outright); anything else is
	// rejected rather than silently ignored.
	if _, ok, err := tx.Result(id); err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	} else if ok {
		switch {
		case req.AcceptDataEntryDeletion:
			if err := tx.DeleteDefinitiveResult(ctx, id); err != nil {
				_ = tx.Rollback(ctx)
				writeError(c, err)
				return
			}
		case req.CorrectedResults != nil && *req.CorrectedResults:
			// fresh entry expected this session, existing result stays.
		default:
			_ = tx.Rollback(ctx)
			writeError(c, &apperr.InvestigationRequiresCorrectedResults{})
			return
		}
	}

	now := time.Now()
	inv := domain.Investigation{
		PollingStation:   id,
		CommitteeSession: domain.CommitteeSessionID(req.CommitteeSession),
		Reason:           req.Reason,
		Findings:         req.Findings,
		CorrectedResults: req.CorrectedResults,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := tx.SaveInvestigation(ctx, inv); err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	if err := appendAudit(ctx, tx, 0, "create_investigation", auditSubject(id), req.Reason); err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// GET /api/v1/polling-stations/:stationId/investigation
func (h *APIHandler) handleGetInvestigation(c *gin.Context) {
	id, err := stationID(c)
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

	inv, ok, err := tx.Investigation(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, &apperr.NotFound{Message: "no investigation recorded for this polling station"})
		return
	}

	c.JSON(http.StatusOK, inv)
}
