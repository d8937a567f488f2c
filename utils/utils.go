package utils

import (
	"notropolis/models/postgres"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
)

// Every endpoint answers with this envelope; clients treat success=false
// uniformly as a recoverable, user-facing error.

// Success writes the envelope with a data payload.
func Success(c *gin.Context, status int, data interface{}, message string) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// Fail writes the envelope with an error string.
func Fail(c *gin.Context, status int, errMsg string) {
	c.JSON(status, gin.H{"success": false, "error": errMsg})
}

// ErrorHandler handles global errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}

// Logger logs information about each request
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		log.Printf("%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), latency)
	}
}

// Audit appends an audit log entry. Failures are logged, never surfaced:
// an audit write must not fail the mutation it records.
func Audit(db *gorm.DB, actorEmail, action, target string, details gin.H) {
	entry := postgres.AuditLog{
		ActorEmail: actorEmail,
		Action:     action,
		Target:     target,
	}
	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(data)
		}
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("audit write failed (%s %s): %v", action, target, err)
	}
}

// FindCompany fetches a company by id.
func FindCompany(db *gorm.DB, id uint) (*postgres.Company, error) {
	var company postgres.Company
	result := db.Where("id = ?", id).First(&company)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("company not found")
		}
		return nil, result.Error
	}
	return &company, nil
}

// IsPlotFree reports whether a map plot has no building on it.
func IsPlotFree(db *gorm.DB, locationID uint, plotIndex int) (bool, error) {
	var count int64
	err := db.Model(&postgres.Building{}).
		Where("location_id = ? AND plot_index = ?", locationID, plotIndex).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// UserCanManage reports whether the user's role carries the given permission.
func UserCanManage(db *gorm.DB, user *postgres.User, permission string) bool {
	if user.RoleName == "" {
		return false
	}
	var role postgres.Role
	if err := db.Where("name = ?", user.RoleName).First(&role).Error; err != nil {
		return false
	}
	var perms []string
	if err := json.Unmarshal(role.Permissions, &perms); err != nil {
		return false
	}
	for _, p := range perms {
		if p == permission || p == "*" {
			return true
		}
	}
	return false
}
