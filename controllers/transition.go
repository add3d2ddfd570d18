package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"card-grading-api/services"

	"github.com/gin-gonic/gin"
)

type TransitionRequest struct {
	TargetStatus string                      `json:"target_status"`
	AuthResult   string                      `json:"auth_result"`
	Payload      *services.TransitionPayload `json:"payload"`
}

// TransitionSubmission advances a submission through the grading workflow.
// Business-rule rejections come back as 4xx with the exact reason; storage
// and ledger failures are logged and returned as generic errors.
func TransitionSubmission(engine *services.WorkflowEngine, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
			return
		}

		var req TransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID, _ := c.Get("userID")

		sub, err := engine.ApplyTransition(c.Request.Context(), id, req.TargetStatus, req.Payload, req.AuthResult, userID.(int))
		if err != nil {
			respondWorkflowError(c, err)
			return
		}

		notifier.NotifyStatusChange(sub)

		c.JSON(http.StatusOK, gin.H{"submission": sub})
	}
}

// respondWorkflowError maps the engine's error taxonomy onto HTTP statuses.
func respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case errors.Is(err, services.ErrTerminalState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrMissingPayloadField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrLedgerUnavailable):
		log.Printf("transition: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Ledger write failed, transition not applied"})
	default:
		log.Printf("transition: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply transition"})
	}
}
