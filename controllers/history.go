package controllers

import (
	"net/http"
	"strconv"

	"card-grading-api/services"

	"github.com/gin-gonic/gin"
)

// GetSubmissionHistory returns the merged lifecycle feed: internal status
// changes interleaved with on-chain submission and approval events, oldest
// first. When the ledger is unreachable the feed degrades to internal events
// with ledger_gap set.
func GetSubmissionHistory(projector *services.HistoryProjector) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
			return
		}

		feed, err := projector.History(c.Request.Context(), id)
		if err != nil {
			respondWorkflowError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"events":     feed.Events,
			"ledger_gap": feed.LedgerGap,
		})
	}
}
