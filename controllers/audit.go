package controllers

import (
	"net/http"
	"strconv"

	models "notropolis/models/postgres"
	"notropolis/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary List audit log entries
// @Description Newest first, filterable by actor and action. Requires the audit.read permission.
// @Tags audit
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param actor query string false "Filter by actor email"
// @Param action query string false "Filter by action"
// @Param limit query integer false "Max entries (default 50)"
// @Success 200 {object} object{success=boolean,data=object{entries=[]object{id=string,actor=string,action=string,target=string}}}
// @Failure 403 {object} object{success=boolean,error=string}
// @Router /auth/audit [get]
// @Security ApiKeyAuth
func ListAuditLogs(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requirePermission(c, db, "audit.read"); !ok {
			return
		}

		limit := 50
		if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
			limit = l
		}

		query := db.Model(&models.AuditLog{}).Order("created_at DESC").Limit(limit)
		if actor := c.Query("actor"); actor != "" {
			query = query.Where("actor_email = ?", actor)
		}
		if action := c.Query("action"); action != "" {
			query = query.Where("action = ?", action)
		}

		var entries []models.AuditLog
		if err := query.Find(&entries).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error fetching audit log")
			return
		}

		simplified := make([]gin.H, len(entries))
		for i, entry := range entries {
			simplified[i] = gin.H{
				"id":         entry.ID,
				"actor":      entry.ActorEmail,
				"action":     entry.Action,
				"target":     entry.Target,
				"details":    entry.Details,
				"created_at": entry.CreatedAt,
			}
		}
		utils.Success(c, http.StatusOK, gin.H{"entries": simplified}, "")
	}
}
