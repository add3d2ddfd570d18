package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"card-grading-api/config"
	"card-grading-api/models"
	"card-grading-api/services"
	"card-grading-api/utils"

	"github.com/gin-gonic/gin"
)

type CreateSubmissionRequest struct {
	CardName     string  `json:"card_name" binding:"required"`
	CardSet      *string `json:"card_set"`
	CardYear     *int    `json:"card_year"`
	SerialNumber *string `json:"serial_number"`
}

// CreateSubmission registers a new card for grading. The submission starts
// in Submitted and, when the ledger is enabled, the creation event is
// recorded on chain before the row commits.
func CreateSubmission(engine *services.WorkflowEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSubmissionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID, _ := c.Get("userID")

		sub := &models.Submission{
			UserID:       userID.(int),
			CardName:     utils.SanitizeInput(req.CardName),
			CardSet:      req.CardSet,
			CardYear:     req.CardYear,
			SerialNumber: req.SerialNumber,
		}

		created, err := engine.CreateSubmission(c.Request.Context(), sub)
		if err != nil {
			respondWorkflowError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"submission": created})
	}
}

// GetSubmission returns one submission. Customers only see their own rows;
// graders and admins see everything.
func GetSubmission(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
		return
	}

	var sub models.Submission
	if err := config.DB.Preload("Owner").
		Where("submission_id = ?", id).
		First(&sub).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	if !canViewSubmission(c, &sub) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// GetSubmissions lists submissions with optional status filter and
// pagination.
func GetSubmissions(c *gin.Context) {
	userID, _ := c.Get("userID")
	roleID, _ := c.Get("roleID")

	page := parsePositive(c.Query("page"), 1)
	pageSize := parsePositive(c.Query("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}

	q := config.DB.Model(&models.Submission{})

	// Customers are scoped to their own submissions.
	if roleID.(int) == models.RoleCustomer {
		q = q.Where("user_id = ?", userID)
	}

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		if !services.IsValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
			return
		}
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list submissions"})
		return
	}

	var rows []models.Submission
	if err := q.Order("submitted_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": rows,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
	})
}

func canViewSubmission(c *gin.Context, sub *models.Submission) bool {
	roleID, _ := c.Get("roleID")
	if roleID.(int) != models.RoleCustomer {
		return true
	}
	userID, _ := c.Get("userID")
	return sub.UserID == userID.(int)
}

func parsePositive(q string, def int) int {
	if q == "" {
		return def
	}
	n, err := strconv.Atoi(q)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
