package controllers

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"notropolis/middleware"
	models "notropolis/models/postgres"
	redis_models "notropolis/models/redis"
	"notropolis/services/redis"
	"notropolis/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// @Summary Create a new user account
// @Description Registers a user with email, username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body object{email=string,username=string,password=string,full_name=string} true "Signup payload"
// @Success 201 {object} object{success=boolean,data=object{email=string,username=string}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /signup [post]
func SignUp(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			Password string `json:"password"`
			FullName string `json:"full_name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		// Minimum input sanitizing
		if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
			utils.Fail(c, http.StatusBadRequest, "Parameters can't be empty")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error creating user")
			return
		}

		user := models.User{
			Email:        req.Email,
			Username:     req.Username,
			PasswordHash: string(hash),
			FullName:     req.FullName,
			RoleName:     "member",
			MemberSince:  time.Now(),
		}
		if err := db.Create(&user).Error; err != nil {
			utils.Fail(c, http.StatusBadRequest, "Email or username already taken")
			return
		}

		utils.Audit(db, user.Email, "user.signup", user.Username, nil)
		utils.Success(c, http.StatusCreated, gin.H{
			"email":    user.Email,
			"username": user.Username,
		}, "User created successfully")
	}
}

// @Summary Log in with email and password
// @Description Returns a bearer token, or a pending 2FA challenge when the account has two-factor enabled
// @Tags auth
// @Accept json
// @Produce json
// @Param body body object{email=string,password=string} true "Login payload"
// @Success 200 {object} object{success=boolean,data=object{token=string,two_factor_required=boolean}}
// @Failure 401 {object} object{success=boolean,error=string}
// @Router /login [post]
func Login(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
			utils.Fail(c, http.StatusBadRequest, "Parameters can't be empty")
			return
		}

		var user models.User
		if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			utils.Fail(c, http.StatusUnauthorized, "Invalid email or password!")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			utils.Fail(c, http.StatusUnauthorized, "Invalid email or password!")
			return
		}

		if user.TwoFactorEnabled {
			code, err := generateTwoFactorCode()
			if err != nil {
				utils.Fail(c, http.StatusInternalServerError, "Error generating verification code")
				return
			}
			if err := redisClient.SaveTwoFactorCode(user.Email, code); err != nil {
				utils.Fail(c, http.StatusInternalServerError, "Error generating verification code")
				return
			}
			// Delivery is out of band; the log line stands in for the
			// mail/SMS gateway in development.
			log.Printf("2FA code for %s: %s", user.Email, code)
			utils.Success(c, http.StatusOK, gin.H{"two_factor_required": true}, "Verification code sent")
			return
		}

		token, err := openSession(c, db, redisClient, &user)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error creating session")
			return
		}
		utils.Success(c, http.StatusOK, gin.H{"token": token}, "")
	}
}

// @Summary Complete a two-factor login
// @Description Exchanges the emailed 6-digit code for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body object{email=string,code=string} true "Verification payload"
// @Success 200 {object} object{success=boolean,data=object{token=string}}
// @Failure 401 {object} object{success=boolean,error=string}
// @Router /login/verify [post]
func VerifyTwoFactor(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		stored, err := redisClient.GetTwoFactorCode(req.Email)
		if err != nil || stored == "" || stored != req.Code {
			utils.Fail(c, http.StatusUnauthorized, "Invalid or expired verification code")
			return
		}

		var user models.User
		if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
			utils.Fail(c, http.StatusUnauthorized, "Invalid or expired verification code")
			return
		}

		token, err := openSession(c, db, redisClient, &user)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error creating session")
			return
		}
		utils.Success(c, http.StatusOK, gin.H{"token": token}, "")
	}
}

// @Summary Request a magic login link
// @Description Issues a one-time login token for the given email. Always answers 200 so account existence cannot be probed.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body object{email=string} true "Email payload"
// @Success 200 {object} object{success=boolean,message=string}
// @Router /magic-link [post]
func RequestMagicLink(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		var user models.User
		if err := db.Where("email = ?", req.Email).First(&user).Error; err == nil {
			link := models.MagicLink{
				Email:     user.Email,
				ExpiresAt: time.Now().Add(15 * time.Minute),
			}
			if err := db.Create(&link).Error; err == nil {
				// Delivered out of band in production.
				log.Printf("magic link for %s: /magic-link/verify?token=%s", user.Email, link.Token)
				utils.Audit(db, user.Email, "user.magic_link_requested", user.Username, nil)
			}
		}

		utils.Success(c, http.StatusOK, nil, "If the account exists, a login link has been sent")
	}
}

// @Summary Redeem a magic login link
// @Description Exchanges a one-time token (from the emailed URL) for a bearer token
// @Tags auth
// @Produce json
// @Param token query string true "Magic link token"
// @Success 200 {object} object{success=boolean,data=object{token=string}}
// @Failure 401 {object} object{success=boolean,error=string}
// @Router /magic-link/verify [get]
func VerifyMagicLink(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.Fail(c, http.StatusBadRequest, "Token is required")
			return
		}

		var link models.MagicLink
		if err := db.Where("token = ?", token).First(&link).Error; err != nil {
			utils.Fail(c, http.StatusUnauthorized, "Invalid or expired link")
			return
		}
		if !link.Redeemable(time.Now()) {
			utils.Fail(c, http.StatusUnauthorized, "Invalid or expired link")
			return
		}

		// Consume before issuing the session so a raced second redeem fails.
		result := db.Model(&models.MagicLink{}).
			Where("token = ? AND consumed = false", token).
			Update("consumed", true)
		if result.Error != nil || result.RowsAffected == 0 {
			utils.Fail(c, http.StatusUnauthorized, "Invalid or expired link")
			return
		}

		var user models.User
		if err := db.Where("email = ?", link.Email).First(&user).Error; err != nil {
			utils.Fail(c, http.StatusUnauthorized, "Invalid or expired link")
			return
		}

		sessionToken, err := openSession(c, db, redisClient, &user)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error creating session")
			return
		}
		utils.Success(c, http.StatusOK, gin.H{"token": sessionToken}, "")
	}
}

// @Summary Log out
// @Description Destroys the server-side session behind the bearer token
// @Tags auth
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,message=string}
// @Failure 401 {object} object{success=boolean,error=string}
// @Router /auth/logout [delete]
// @Security ApiKeyAuth
func Logout(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := middleware.RequestClaims(c)
		if err != nil {
			utils.Fail(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := redisClient.DeleteSession(claims.SessionID); err != nil {
			log.Printf("session delete failed for %s: %v", claims.SessionID, err)
		}

		session := sessions.Default(c)
		session.Clear()
		_ = session.Save()

		utils.Audit(db, claims.Email, "user.logout", "", nil)
		utils.Success(c, http.StatusOK, nil, "Successfully logged out")
	}
}

// @Summary Get the authenticated user's own record
// @Tags auth
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{email=string,username=string,full_name=string,role=string}}
// @Failure 401 {object} object{success=boolean,error=string}
// @Router /auth/me [get]
// @Security ApiKeyAuth
func GetUserPrivateInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := middleware.JWT_decoder(c)
		if err != nil {
			return
		}

		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			utils.Fail(c, http.StatusUnauthorized, "User not found: invalid email")
			return
		}

		utils.Success(c, http.StatusOK, gin.H{
			"email":              user.Email,
			"username":           user.Username,
			"full_name":          user.FullName,
			"role":               user.RoleName,
			"two_factor_enabled": user.TwoFactorEnabled,
			"member_since":       user.MemberSince,
		}, "")
	}
}

// @Summary Update the authenticated user's own record
// @Tags auth
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{full_name=string,password=string,two_factor_enabled=boolean} true "Fields to update"
// @Success 200 {object} object{success=boolean,message=string}
// @Failure 401 {object} object{success=boolean,error=string}
// @Router /auth/update [patch]
// @Security ApiKeyAuth
func UpdateUserInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := middleware.JWT_decoder(c)
		if err != nil {
			return
		}

		var req struct {
			FullName         *string `json:"full_name"`
			Password         *string `json:"password"`
			TwoFactorEnabled *bool   `json:"two_factor_enabled"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		updates := map[string]interface{}{}
		if req.FullName != nil {
			updates["full_name"] = *req.FullName
		}
		if req.TwoFactorEnabled != nil {
			updates["two_factor_enabled"] = *req.TwoFactorEnabled
		}
		if req.Password != nil {
			if strings.TrimSpace(*req.Password) == "" {
				utils.Fail(c, http.StatusBadRequest, "Password can't be empty")
				return
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				utils.Fail(c, http.StatusInternalServerError, "Error updating user")
				return
			}
			updates["password_hash"] = string(hash)
		}
		if len(updates) == 0 {
			utils.Fail(c, http.StatusBadRequest, "Nothing to update")
			return
		}

		if err := db.Model(&models.User{}).Where("email = ?", email).Updates(updates).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error updating user")
			return
		}

		utils.Audit(db, email, "user.update", email, nil)
		utils.Success(c, http.StatusOK, nil, "User updated successfully")
	}
}

// openSession creates the Redis session record and signs its bearer token.
func openSession(c *gin.Context, db *gorm.DB, redisClient *redis.RedisClient, user *models.User) (string, error) {
	sess := &redis_models.Session{
		ID:        uuid.NewString(),
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: time.Now(),
	}
	if err := redisClient.SaveSession(sess); err != nil {
		return "", err
	}

	token, err := middleware.IssueToken(user.Email, sess.ID)
	if err != nil {
		return "", err
	}

	// Cookie session mirrors the login for the browser dashboard.
	session := sessions.Default(c)
	session.Set("Email", user.Email)
	if err := session.Save(); err != nil {
		log.Printf("cookie session save failed: %v", err)
	}

	utils.Audit(db, user.Email, "user.login", user.Username, nil)
	return token, nil
}

func generateTwoFactorCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
