package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/audit"
	"github.com/rawblock/abacus/internal/config"
	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/render"
	"github.com/rawblock/abacus/internal/store"
)

// APIHandler dispatches HTTP requests onto the pure core packages,
// wrapping each mutation in one store.Tx so the state change and its
// audit entry commit together.
type APIHandler struct {
	store    store.Store
	hub      *Hub
	renderer render.Renderer
	cfg      *config.Config
}

// SetupRouter wires the Gin router: CORS, a public group, and a
// bearer-auth + rate-limited protected group dispatching to data-entry,
// committee-session, and aggregation endpoints.
func SetupRouter(st store.Store, cfg *config.Config, hub *Hub) *gin.Engine {
	r := gin.Default()

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	h := &APIHandler{store: st, hub: hub, renderer: render.NullRenderer{}, cfg: cfg}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", h.handleHealth)
		pub.GET("/stream", hub.Subscribe)
	}

	protected := r.Group("/api/v1")
	protected.Use(AuthMiddleware(cfg.APIToken))
	protected.Use(NewRateLimiter(cfg.RateLimitPerMinute, 10).Middleware())
	{
		stations := protected.Group("/polling-stations/:stationId")
		{
			stations.POST("/first-entry/claim", h.handleClaimFirstEntry)
			stations.PUT("/first-entry", h.handleUpdateFirstEntry)
			stations.DELETE("/first-entry", h.handleDeleteFirstEntry)
			stations.POST("/first-entry/finalise", h.handleFinaliseFirstEntry)
			stations.POST("/first-entry/resume", h.handleResumeEdit)

			stations.POST("/second-entry/claim", h.handleClaimSecondEntry)
			stations.PUT("/second-entry", h.handleUpdateSecondEntry)
			stations.DELETE("/second-entry", h.handleDeleteSecondEntry)
			stations.POST("/second-entry/finalise", h.handleFinaliseSecondEntry)

			stations.POST("/resolution/keep-first", h.handleKeepFirstEntry)
			stations.POST("/resolution/keep-second", h.handleKeepSecondEntry)
			stations.POST("/resolution/restart", h.handleDeleteEntries)

			stations.POST("/investigation", h.handleCreateInvestigation)
			stations.GET("/investigation", h.handleGetInvestigation)
		}

		sessions := protected.Group("/committee-sessions/:sessionId")
		{
			sessions.POST("/start", h.handleStartSession)
			sessions.POST("/pause", h.handlePauseSession)
			sessions.POST("/resume", h.handleResumeSession)
			sessions.POST("/finish", h.handleFinishSession)
			sessions.POST("/new-session", h.handleNewSession)
			sessions.GET("/results", h.handleSessionResults)
		}
	}

	return r
}

// writeError maps an apperr taxonomy error (or anything else) onto an
// HTTP status and a stable {error, reference} body, the same
// Reference()-driven branching apperr.go documents.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	reference := "internal_error"

	switch e := err.(type) {
	case interface{ Reference() string }:
		reference = e.Reference()
		switch err.(type) {
		case *apperr.InvalidStateTransition, *apperr.EntryNotReady, *apperr.AllListsExhausted,
			*apperr.ZeroVotesCast, *apperr.DrawingOfLotsRequired, *apperr.InvestigationRequiresCorrectedResults,
			*apperr.CommitteeSessionPaused, *apperr.PollingStationRepeated, *apperr.PollingStationValidationErrors,
			*apperr.InvalidPoliticalGroup, *apperr.InvalidVoteGroup, *apperr.IncompleteResults:
			status = http.StatusConflict
		case *apperr.Conflict:
			status = http.StatusConflict
		case *apperr.NotFound:
			status = http.StatusNotFound
		case *apperr.Unauthorized:
			status = http.StatusUnauthorized
		}
	}

	c.JSON(status, gin.H{"error": err.Error(), "reference": reference})
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "operational", "service": "abacus"})
}

// appendAudit looks up subject's last entry within tx, builds the next
// hash-chained entry onto it, and appends it in the same transaction as
// the state change it describes.
func appendAudit(ctx context.Context, tx store.Tx, actor domain.UserID, action, subject, detail string) error {
	lastSeq, lastHash := int64(0), audit.GenesisHash
	seq, hash, ok, err := tx.LastAuditEntry(ctx, subject)
	if err != nil {
		return err
	}
	if ok {
		lastSeq, lastHash = seq, hash
	}

	e := audit.Append(lastSeq+1, actor, action, subject, detail, lastHash, time.Now())
	return tx.AppendAuditEntry(ctx, store.AuditEntry{
		Sequence: e.Sequence,
		Actor:    e.Actor,
		Action:   e.Action,
		Subject:  e.Subject,
		Detail:   e.Detail,
		Hash:     e.Hash,
		PrevHash: e.PrevHash,
	})
}
