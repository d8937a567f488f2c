package controllers

import (
	"log"
	"net/http"

	models "notropolis/models/postgres"
	"notropolis/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary List the authenticated user's inbox
// @Tags messages
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{messages=[]object{id=string,sender=string,subject=string,read=boolean}}}
// @Router /auth/messages [get]
// @Security ApiKeyAuth
func ListMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}

		var messages []models.Message
		if err := db.Where("recipient_username = ?", user.Username).
			Order("created_at DESC").Find(&messages).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error fetching messages")
			return
		}

		simplified := make([]gin.H, len(messages))
		for i, msg := range messages {
			simplified[i] = gin.H{
				"id":         msg.ID,
				"sender":     msg.SenderUsername,
				"subject":    msg.Subject,
				"body":       msg.Body,
				"read":       msg.Read,
				"created_at": msg.CreatedAt,
			}
		}
		utils.Success(c, http.StatusOK, gin.H{"messages": simplified}, "")
	}
}

// @Summary Send a message to another user
// @Tags messages
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{recipient=string,subject=string,body=string} true "Message"
// @Success 201 {object} object{success=boolean,data=object{id=string}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/messages [post]
// @Security ApiKeyAuth
func SendMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}

		var req struct {
			Recipient string `json:"recipient"`
			Subject   string `json:"subject"`
			Body      string `json:"body"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Recipient == "" {
			utils.Fail(c, http.StatusBadRequest, "Recipient is required")
			return
		}
		if req.Recipient == user.Username {
			utils.Fail(c, http.StatusBadRequest, "You cannot message yourself")
			return
		}

		var recipient models.User
		if err := db.Where("username = ?", req.Recipient).First(&recipient).Error; err != nil {
			utils.Fail(c, http.StatusBadRequest, "Recipient not found")
			return
		}

		msg := models.Message{
			SenderUsername:    user.Username,
			RecipientUsername: recipient.Username,
			Subject:           req.Subject,
			Body:              req.Body,
		}
		if err := db.Create(&msg).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error sending message")
			return
		}

		utils.Success(c, http.StatusCreated, gin.H{"id": msg.ID}, "Message sent")
	}
}

// @Summary Mark a message read
// @Description Best-effort: the response is 200 even if the update fails, the inbox will simply show it unread again
// @Tags messages
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param id path string true "Message ID"
// @Success 200 {object} object{success=boolean}
// @Router /auth/messages/{id}/read [post]
// @Security ApiKeyAuth
func MarkMessageRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}

		id := c.Param("id")
		err := db.Model(&models.Message{}).
			Where("id = ? AND recipient_username = ?", id, user.Username).
			Update("read", true).Error
		if err != nil {
			// deliberately silent: marking read must never block the UI
			log.Printf("mark read failed for message %s: %v", id, err)
		}
		utils.Success(c, http.StatusOK, nil, "")
	}
}
