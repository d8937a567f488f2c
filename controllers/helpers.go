package controllers

import (
	"net/http"

	"notropolis/middleware"
	models "notropolis/models/postgres"
	redis_models "notropolis/models/redis"
	"notropolis/services/redis"
	"notropolis/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// currentUser resolves the bearer token into the persisted user record. On
// failure the 401 envelope is already written and the handler must return.
func currentUser(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	email, err := middleware.JWT_decoder(c)
	if err != nil {
		return nil, false
	}
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		utils.Fail(c, http.StatusUnauthorized, "User not found: invalid email")
		return nil, false
	}
	return &user, true
}

// currentSession resolves the bearer token into the live Redis session. An
// unknown session id means the token was revoked: 401.
func currentSession(c *gin.Context, redisClient *redis.RedisClient) (*redis_models.Session, bool) {
	claims, err := middleware.RequestClaims(c)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	sess, err := redisClient.GetSession(claims.SessionID)
	if err != nil {
		utils.Fail(c, http.StatusUnauthorized, "Session expired")
		return nil, false
	}
	return sess, true
}

// requirePermission loads the current user and checks a dashboard
// permission. Writes 403 and returns false when the role doesn't carry it.
func requirePermission(c *gin.Context, db *gorm.DB, permission string) (*models.User, bool) {
	user, ok := currentUser(c, db)
	if !ok {
		return nil, false
	}
	if !utils.UserCanManage(db, user, permission) {
		utils.Fail(c, http.StatusForbidden, "Insufficient permissions")
		return nil, false
	}
	return user, true
}
