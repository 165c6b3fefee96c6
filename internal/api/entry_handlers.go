package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/abacus/internal/dataentry"
	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/metrics"
	"github.com/rawblock/abacus/internal/store"
)

func stationID(c *gin.Context) (domain.PollingStationID, error) {
	raw, err := strconv.ParseInt(c.Param("stationId"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid polling station id: %w", err)
	}
	return domain.PollingStationID(raw), nil
}

// withStationTx begins a Tx, locks the station, loads its committee
// session and election, and hands all three to fn. It commits on a nil
// error, rolls back otherwise, and writes the HTTP response either way —
// one Tx per mutation, never split across requests.
func (h *APIHandler) withStationTx(c *gin.Context, fn func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error)) {
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

	station, err := tx.LockPollingStation(ctx, id)
	if err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	session, err := tx.LockCommitteeSession(ctx, station.CommitteeSession)
	if err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	election, err := tx.Election(ctx, session.ElectionID)
	if err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	result, err := fn(ctx, tx, station, election)
	if err != nil {
		_ = tx.Rollback(ctx)
		writeError(c, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(c, err)
		return
	}

	if status, ok := result.(dataentry.DataEntryStatus); ok {
		h.hub.BroadcastTransition("data_entry", auditSubject(id), dataentry.StatusName(status.Status))
	}

	c.JSON(http.StatusOK, result)
}

func auditSubject(station domain.PollingStationID) string {
	return fmt.Sprintf("polling_station:%d", station)
}

func (h *APIHandler) handleClaimFirstEntry(c *gin.Context) {
	var body struct {
		UserID        int64 `json:"user_id"`
		SessionNumber int   `json:"session_number"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		blank := dataentry.BlankResults(election, body.SessionNumber)
		status, err = status.ClaimFirstEntry(domain.UserID(body.UserID), blank)
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		if err := appendAudit(ctx, tx, domain.UserID(body.UserID), "claim_first_entry", auditSubject(station.ID), ""); err != nil {
			return nil, err
		}
		metrics.EntryTransitions.WithLabelValues("first_entry_in_progress").Inc()
		return status, nil
	})
}

func (h *APIHandler) handleUpdateFirstEntry(c *gin.Context) {
	var body entryPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results, err := decodeEntryResults(body.Kind, body.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		status, err = status.UpdateFirstEntry(domain.UserID(body.UserID), results, body.Progress, body.ClientState)
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func (h *APIHandler) handleDeleteFirstEntry(c *gin.Context) {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		status, err = status.DeleteFirstEntry(domain.UserID(body.UserID))
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		if err := appendAudit(ctx, tx, domain.UserID(body.UserID), "delete_first_entry", auditSubject(station.ID), ""); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func (h *APIHandler) handleFinaliseFirstEntry(c *gin.Context) {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	_ = c.ShouldBindJSON(&body)

	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		status, diags, err := status.FinaliseFirstEntry(election, station)
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		for _, d := range diags {
			metrics.ValidationErrors.WithLabelValues(d.Code).Inc()
		}
		if err := appendAudit(ctx, tx, domain.UserID(body.UserID), "finalise_first_entry", auditSubject(station.ID),
			fmt.Sprintf("%d diagnostic(s)", len(diags))); err != nil {
			return nil, err
		}
		metrics.EntryTransitions.WithLabelValues(dataentry.StatusName(status.Status)).Inc()
		return gin.H{"status": status, "diagnostics": diags}, nil
	})
}

func (h *APIHandler) handleResumeEdit(c *gin.Context) {
	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		status, err = status.ResumeEdit()
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func (h *APIHandler) handleClaimSecondEntry(c *gin.Context) {
	var body struct {
		UserID        int64 `json:"user_id"`
		SessionNumber int   `json:"session_number"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		blank := dataentry.BlankResults(election, body.SessionNumber)
		status, err = status.ClaimSecondEntry(domain.UserID(body.UserID), blank)
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		if err := appendAudit(ctx, tx, domain.UserID(body.UserID), "claim_second_entry", auditSubject(station.ID), ""); err != nil {
			return nil, err
		}
		metrics.EntryTransitions.WithLabelValues("second_entry_in_progress").Inc()
		return status, nil
	})
}

func (h *APIHandler) handleUpdateSecondEntry(c *gin.Context) {
	var body entryPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results, err := decodeEntryResults(body.Kind, body.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		status, err = status.UpdateSecondEntry(domain.UserID(body.UserID), results, body.Progress, body.ClientState)
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func (h *APIHandler) handleDeleteSecondEntry(c *gin.Context) {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		status, err = status.DeleteSecondEntry(domain.UserID(body.UserID))
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func (h *APIHandler) handleFinaliseSecondEntry(c *gin.Context) {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	_ = c.ShouldBindJSON(&body)

	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		definitive := status.FirstEntry
		status, err = status.FinaliseSecondEntry()
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		if status.Status == dataentry.Definitive {
			if err := tx.PersistDefinitiveResult(ctx, station.ID, definitive); err != nil {
				return nil, err
			}
		}
		if err := appendAudit(ctx, tx, domain.UserID(body.UserID), "finalise_second_entry", auditSubject(station.ID), ""); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func (h *APIHandler) handleKeepFirstEntry(c *gin.Context) {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	_ = c.ShouldBindJSON(&body)
	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		definitive := status.FirstEntry
		status, err = status.KeepFirstEntry()
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		if err := tx.PersistDefinitiveResult(ctx, station.ID, definitive); err != nil {
			return nil, err
		}
		if err := appendAudit(ctx, tx, domain.UserID(body.UserID), "keep_first_entry", auditSubject(station.ID), ""); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func (h *APIHandler) handleKeepSecondEntry(c *gin.Context) {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	_ = c.ShouldBindJSON(&body)
	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		definitive := status.SecondEntry
		status, err = status.KeepSecondEntry()
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		if err := tx.PersistDefinitiveResult(ctx, station.ID, definitive); err != nil {
			return nil, err
		}
		if err := appendAudit(ctx, tx, domain.UserID(body.UserID), "keep_second_entry", auditSubject(station.ID), ""); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func (h *APIHandler) handleDeleteEntries(c *gin.Context) {
	var body struct {
		UserID int64 `json:"user_id"`
	}
	_ = c.ShouldBindJSON(&body)
	h.withStationTx(c, func(ctx context.Context, tx store.Tx, station domain.PollingStation, election domain.Election) (interface{}, error) {
		status, err := tx.EntryStatus(ctx, station.ID)
		if err != nil {
			return nil, err
		}
		status, err = status.DeleteEntries()
		if err != nil {
			return nil, err
		}
		if err := tx.SaveEntryStatus(ctx, station.ID, status); err != nil {
			return nil, err
		}
		if err := appendAudit(ctx, tx, domain.UserID(body.UserID), "delete_entries", auditSubject(station.ID), "restarting dual entry"); err != nil {
			return nil, err
		}
		return status, nil
	})
}
