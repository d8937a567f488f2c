package controllers

import (
	"encoding/json"
	"net/http"

	models "notropolis/models/postgres"
	"notropolis/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// @Summary List all roles
// @Tags roles
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{roles=[]object{name=string,description=string,permissions=[]string}}}
// @Router /auth/roles [get]
// @Security ApiKeyAuth
func ListRoles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c, db); !ok {
			return
		}

		var roles []models.Role
		if err := db.Find(&roles).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error fetching roles")
			return
		}

		simplified := make([]gin.H, len(roles))
		for i, role := range roles {
			var perms []string
			_ = json.Unmarshal(role.Permissions, &perms)
			simplified[i] = gin.H{
				"name":        role.Name,
				"description": role.Description,
				"permissions": perms,
			}
		}
		utils.Success(c, http.StatusOK, gin.H{"roles": simplified}, "")
	}
}

// @Summary Create a role
// @Description Requires the roles.manage permission
// @Tags roles
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{name=string,description=string,permissions=[]string} true "Role definition"
// @Success 201 {object} object{success=boolean,message=string}
// @Failure 400 {object} object{success=boolean,error=string}
// @Failure 403 {object} object{success=boolean,error=string}
// @Router /auth/roles [post]
// @Security ApiKeyAuth
func CreateRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requirePermission(c, db, "roles.manage")
		if !ok {
			return
		}

		var req struct {
			Name        string   `json:"name"`
			Description string   `json:"description"`
			Permissions []string `json:"permissions"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			utils.Fail(c, http.StatusBadRequest, "Role name is required")
			return
		}

		perms, err := json.Marshal(req.Permissions)
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid permissions list")
			return
		}

		role := models.Role{
			Name:        req.Name,
			Description: req.Description,
			Permissions: datatypes.JSON(perms),
		}
		if err := db.Create(&role).Error; err != nil {
			utils.Fail(c, http.StatusBadRequest, "Role already exists")
			return
		}

		utils.Audit(db, actor.Email, "role.created", role.Name, gin.H{"permissions": req.Permissions})
		utils.Success(c, http.StatusCreated, nil, "Role created successfully")
	}
}

// @Summary Update a role's description or permissions
// @Description Requires the roles.manage permission
// @Tags roles
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param name path string true "Role name"
// @Param body body object{description=string,permissions=[]string} true "Fields to update"
// @Success 200 {object} object{success=boolean,message=string}
// @Failure 403 {object} object{success=boolean,error=string}
// @Failure 404 {object} object{success=boolean,error=string}
// @Router /auth/roles/{name} [patch]
// @Security ApiKeyAuth
func UpdateRole(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requirePermission(c, db, "roles.manage")
		if !ok {
			return
		}

		var req struct {
			Description *string   `json:"description"`
			Permissions *[]string `json:"permissions"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		updates := map[string]interface{}{}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Permissions != nil {
			perms, err := json.Marshal(*req.Permissions)
			if err != nil {
				utils.Fail(c, http.StatusBadRequest, "Invalid permissions list")
				return
			}
			updates["permissions"] = datatypes.JSON(perms)
		}
		if len(updates) == 0 {
			utils.Fail(c, http.StatusBadRequest, "Nothing to update")
			return
		}

		name := c.Param("name")
		result := db.Model(&models.Role{}).Where("name = ?", name).Updates(updates)
		if result.Error != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error updating role")
			return
		}
		if result.RowsAffected == 0 {
			utils.Fail(c, http.StatusNotFound, "Role not found")
			return
		}

		utils.Audit(db, actor.Email, "role.updated", name, nil)
		utils.Success(c, http.StatusOK, nil, "Role updated successfully")
	}
}
