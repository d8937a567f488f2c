package controllers

import (
	"net/http"

	models "notropolis/models/postgres"
	"notropolis/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary List all users
// @Description Returns every user's public fields. Requires the users.manage permission.
// @Tags users
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{users=[]object{email=string,username=string,role=string}}}
// @Failure 403 {object} object{success=boolean,error=string}
// @Router /auth/users [get]
// @Security ApiKeyAuth
func GetAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requirePermission(c, db, "users.manage"); !ok {
			return
		}

		var users []models.User
		if err := db.Find(&users).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error fetching users")
			return
		}

		simplified := make([]gin.H, len(users))
		for i, user := range users {
			simplified[i] = gin.H{
				"email":        user.Email,
				"username":     user.Username,
				"full_name":    user.FullName,
				"role":         user.RoleName,
				"member_since": user.MemberSince,
			}
		}
		utils.Success(c, http.StatusOK, gin.H{"users": simplified}, "")
	}
}

// @Summary Get a user's public info
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{success=boolean,data=object{username=string}}
// @Failure 404 {object} object{success=boolean,error=string}
// @Router /users/{username} [get]
func GetUserPublicInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		var user models.User
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			utils.Fail(c, http.StatusNotFound, "User not found")
			return
		}

		utils.Success(c, http.StatusOK, gin.H{
			"username":     user.Username,
			"member_since": user.MemberSince,
		}, "")
	}
}

// @Summary Change a user's dashboard role
// @Description Requires the users.manage permission
// @Tags users
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param username path string true "Username"
// @Param body body object{role=string} true "New role"
// @Success 200 {object} object{success=boolean,message=string}
// @Failure 403 {object} object{success=boolean,error=string}
// @Failure 404 {object} object{success=boolean,error=string}
// @Router /auth/users/{username}/role [put]
// @Security ApiKeyAuth
func UpdateUserRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requirePermission(c, db, "users.manage")
		if !ok {
			return
		}

		var req struct {
			Role string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
			utils.Fail(c, http.StatusBadRequest, "Role is required")
			return
		}

		var role models.Role
		if err := db.Where("name = ?", req.Role).First(&role).Error; err != nil {
			utils.Fail(c, http.StatusBadRequest, "Unknown role")
			return
		}

		username := c.Param("username")
		result := db.Model(&models.User{}).Where("username = ?", username).Update("role_name", req.Role)
		if result.Error != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error updating user role")
			return
		}
		if result.RowsAffected == 0 {
			utils.Fail(c, http.StatusNotFound, "User not found")
			return
		}

		utils.Audit(db, actor.Email, "user.role_changed", username, gin.H{"role": req.Role})
		utils.Success(c, http.StatusOK, nil, "Role updated successfully")
	}
}

// @Summary Delete a user account
// @Description Requires the users.manage permission
// @Tags users
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param username path string true "Username"
// @Success 200 {object} object{success=boolean,message=string}
// @Failure 403 {object} object{success=boolean,error=string}
// @Failure 404 {object} object{success=boolean,error=string}
// @Router /auth/users/{username} [delete]
// @Security ApiKeyAuth
func DeleteUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requirePermission(c, db, "users.manage")
		if !ok {
			return
		}

		username := c.Param("username")
		if username == actor.Username {
			utils.Fail(c, http.StatusBadRequest, "You cannot delete your own account here")
			return
		}

		result := db.Where("username = ?", username).Delete(&models.User{})
		if result.Error != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error deleting user")
			return
		}
		if result.RowsAffected == 0 {
			utils.Fail(c, http.StatusNotFound, "User not found")
			return
		}

		utils.Audit(db, actor.Email, "user.deleted", username, nil)
		utils.Success(c, http.StatusOK, nil, "User deleted successfully")
	}
}
