package controllers

import (
	"net/http"
	"strconv"

	"notropolis/config"
	models "notropolis/models/postgres"
	"notropolis/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary List the authenticated user's companies
// @Tags companies
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{companies=[]object{id=integer,name=string,cash=integer}}}
// @Router /auth/companies [get]
// @Security ApiKeyAuth
func ListCompanies(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}

		var memberships []models.CompanyUser
		if err := db.Preload("Company").Where("user_email = ?", user.Email).Find(&memberships).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error fetching companies")
			return
		}

		companies := make([]gin.H, len(memberships))
		for i, m := range memberships {
			companies[i] = gin.H{
				"id":        m.Company.ID,
				"name":      m.Company.Name,
				"cash":      m.Company.Cash,
				"offshore":  m.Company.Offshore,
				"net_worth": m.Company.NetWorth,
				"role":      m.RoleName,
			}
		}
		utils.Success(c, http.StatusOK, gin.H{"companies": companies}, "")
	}
}

// @Summary Create a company
// @Description Creates a company owned by the authenticated user, funded with the configured starting cash
// @Tags companies
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{name=string} true "Company name"
// @Success 201 {object} object{success=boolean,data=object{id=integer,name=string}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/companies [post]
// @Security ApiKeyAuth
func CreateCompany(db *gorm.DB, gameCfg *config.GameConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}

		var req struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			utils.Fail(c, http.StatusBadRequest, "Company name is required")
			return
		}

		company := models.Company{
			Name: req.Name,
			Cash: gameCfg.Map.StartingCash,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&company).Error; err != nil {
				return err
			}
			membership := models.CompanyUser{
				CompanyID: company.ID,
				UserEmail: user.Email,
				RoleName:  "owner",
			}
			return tx.Create(&membership).Error
		})
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "Company name already taken")
			return
		}

		utils.Audit(db, user.Email, "company.created", company.Name, nil)
		utils.Success(c, http.StatusCreated, gin.H{"id": company.ID, "name": company.Name}, "Company created successfully")
	}
}

// @Summary List the members of a company
// @Tags companies
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param id path integer true "Company ID"
// @Success 200 {object} object{success=boolean,data=object{users=[]object{email=string,role=string}}}
// @Failure 404 {object} object{success=boolean,error=string}
// @Router /auth/companies/{id}/users [get]
// @Security ApiKeyAuth
func GetCompanyUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}

		companyID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid company id")
			return
		}

		if ok, err := isCompanyMember(db, uint(companyID), user.Email); err != nil || !ok {
			utils.Fail(c, http.StatusNotFound, "Company not found")
			return
		}

		var memberships []models.CompanyUser
		if err := db.Preload("User").Where("company_id = ?", companyID).Find(&memberships).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error fetching company members")
			return
		}

		users := make([]gin.H, len(memberships))
		for i, m := range memberships {
			users[i] = gin.H{
				"email":    m.UserEmail,
				"username": m.User.Username,
				"role":     m.RoleName,
			}
		}
		utils.Success(c, http.StatusOK, gin.H{"users": users}, "")
	}
}

// @Summary Add a user to a company
// @Description Only company owners can add members
// @Tags companies
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param id path integer true "Company ID"
// @Param body body object{email=string,role=string} true "Member to add"
// @Success 200 {object} object{success=boolean,message=string}
// @Failure 400 {object} object{success=boolean,error=string}
// @Failure 403 {object} object{success=boolean,error=string}
// @Router /auth/companies/{id}/users [post]
// @Security ApiKeyAuth
func AddCompanyUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}

		companyID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid company id")
			return
		}

		if !isCompanyOwner(db, uint(companyID), user.Email) {
			utils.Fail(c, http.StatusForbidden, "Only company owners can add members")
			return
		}

		var req struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
			utils.Fail(c, http.StatusBadRequest, "Member email is required")
			return
		}
		if req.Role == "" {
			req.Role = "member"
		}

		var target models.User
		if err := db.Where("email = ?", req.Email).First(&target).Error; err != nil {
			utils.Fail(c, http.StatusBadRequest, "User not found")
			return
		}

		membership := models.CompanyUser{
			CompanyID: uint(companyID),
			UserEmail: req.Email,
			RoleName:  req.Role,
		}
		if err := db.Create(&membership).Error; err != nil {
			utils.Fail(c, http.StatusBadRequest, "User is already a member")
			return
		}

		utils.Audit(db, user.Email, "company.member_added", req.Email, gin.H{"company_id": companyID, "role": req.Role})
		utils.Success(c, http.StatusOK, nil, "Member added successfully")
	}
}

// @Summary Remove a user from a company
// @Description Only company owners can remove members
// @Tags companies
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param id path integer true "Company ID"
// @Param email path string true "Member email"
// @Success 200 {object} object{success=boolean,message=string}
// @Failure 403 {object} object{success=boolean,error=string}
// @Failure 404 {object} object{success=boolean,error=string}
// @Router /auth/companies/{id}/users/{email} [delete]
// @Security ApiKeyAuth
func RemoveCompanyUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}

		companyID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid company id")
			return
		}

		if !isCompanyOwner(db, uint(companyID), user.Email) {
			utils.Fail(c, http.StatusForbidden, "Only company owners can remove members")
			return
		}

		email := c.Param("email")
		if email == user.Email {
			utils.Fail(c, http.StatusBadRequest, "Owners cannot remove themselves")
			return
		}

		result := db.Where("company_id = ? AND user_email = ?", companyID, email).Delete(&models.CompanyUser{})
		if result.Error != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error removing member")
			return
		}
		if result.RowsAffected == 0 {
			utils.Fail(c, http.StatusNotFound, "Membership not found")
			return
		}

		utils.Audit(db, user.Email, "company.member_removed", email, gin.H{"company_id": companyID})
		utils.Success(c, http.StatusOK, nil, "Member removed successfully")
	}
}

func isCompanyMember(db *gorm.DB, companyID uint, email string) (bool, error) {
	var count int64
	err := db.Model(&models.CompanyUser{}).
		Where("company_id = ? AND user_email = ?", companyID, email).
		Count(&count).Error
	return count > 0, err
}

func isCompanyOwner(db *gorm.DB, companyID uint, email string) bool {
	var count int64
	err := db.Model(&models.CompanyUser{}).
		Where("company_id = ? AND user_email = ? AND role_name = ?", companyID, email, "owner").
		Count(&count).Error
	return err == nil && count > 0
}
