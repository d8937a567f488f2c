package controllers

import (
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"notropolis/config"
	"notropolis/middleware"
	models "notropolis/models/postgres"
	redis_models "notropolis/models/redis"
	"notropolis/services/redis"
	"notropolis/services/viewmode"
	gamesync "notropolis/sync"
	"notropolis/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NoActiveCompany is the error string game pages treat as a
// redirect-to-selection condition.
const NoActiveCompany = "NO_ACTIVE_COMPANY"

// @Summary Get the session's active company
// @Description The company the player currently operates. 404 with NO_ACTIVE_COMPANY when none is selected.
// @Tags game
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{id=integer,name=string,cash=integer,offshore=integer,location_id=integer,in_prison=boolean}}
// @Failure 404 {object} object{success=boolean,error=string}
// @Router /auth/game/company [get]
// @Security ApiKeyAuth
func GetActiveCompany(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, redisClient)
		if !ok {
			return
		}
		if sess.ActiveCompanyID == 0 {
			utils.Fail(c, http.StatusNotFound, NoActiveCompany)
			return
		}

		company, err := utils.FindCompany(db, sess.ActiveCompanyID)
		if err != nil {
			utils.Fail(c, http.StatusNotFound, NoActiveCompany)
			return
		}

		utils.Success(c, http.StatusOK, companyView(company), "")
	}
}

// @Summary Select the active company for this session
// @Description Explicit selection action; replaces any previous binding
// @Tags game
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{company_id=integer} true "Company to operate"
// @Success 200 {object} object{success=boolean,data=object{id=integer,name=string}}
// @Failure 403 {object} object{success=boolean,error=string}
// @Router /auth/game/company/select [post]
// @Security ApiKeyAuth
func SelectActiveCompany(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, redisClient)
		if !ok {
			return
		}

		var req struct {
			CompanyID uint `json:"company_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.CompanyID == 0 {
			utils.Fail(c, http.StatusBadRequest, "company_id is required")
			return
		}

		if ok, err := isCompanyMember(db, req.CompanyID, sess.Email); err != nil || !ok {
			utils.Fail(c, http.StatusForbidden, "You are not a member of that company")
			return
		}

		company, err := utils.FindCompany(db, req.CompanyID)
		if err != nil {
			utils.Fail(c, http.StatusNotFound, "Company not found")
			return
		}

		sess.ActiveCompanyID = company.ID
		if err := redisClient.SaveSession(sess); err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error updating session")
			return
		}

		utils.Success(c, http.StatusOK, companyView(company), "Active company selected")
	}
}

// @Summary Join a map location
// @Description Places the active company on a map; it must not already be on one
// @Tags game
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param id path integer true "Location ID"
// @Success 200 {object} object{success=boolean,data=object{location_id=integer}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/locations/{id}/join [post]
// @Security ApiKeyAuth
func JoinLocation(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, ok := activeCompany(c, db, redisClient)
		if !ok {
			return
		}

		locationID, err := strconv.Atoi(c.Param("id"))
		if err != nil || locationID <= 0 {
			utils.Fail(c, http.StatusBadRequest, "Invalid location id")
			return
		}

		if company.LocationID != nil {
			utils.Fail(c, http.StatusBadRequest, "Company is already on a map")
			return
		}

		loc := uint(locationID)
		if err := db.Model(&models.Company{}).Where("id = ?", company.ID).Update("location_id", loc).Error; err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error joining location")
			return
		}

		claims, _ := middleware.RequestClaims(c)
		utils.Audit(db, claims.Email, "company.joined_location", company.Name, gin.H{"location_id": loc})
		utils.Success(c, http.StatusOK, gin.H{"location_id": loc}, "Joined location")
	}
}

// @Summary Leave the current location (hero event)
// @Description Exits the map, banking the company's cash into its offshore balance
// @Tags game
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{offshore=integer}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/locations/leave [post]
// @Security ApiKeyAuth
func LeaveLocation(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, ok := activeCompany(c, db, redisClient)
		if !ok {
			return
		}

		if company.LocationID == nil {
			utils.Fail(c, http.StatusBadRequest, "Company is not on a map")
			return
		}

		banked := company.Cash
		err := db.Model(&models.Company{}).Where("id = ?", company.ID).Updates(map[string]interface{}{
			"offshore":    gorm.Expr("offshore + ?", banked),
			"cash":        0,
			"location_id": nil,
		}).Error
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error leaving location")
			return
		}

		if err := syncManager.SyncCompanyNetWorth(company.ID); err != nil {
			// leaderboard lag is cosmetic, the balances are already correct
			utils.Success(c, http.StatusOK, gin.H{"offshore": company.Offshore + banked}, "Hero! Earnings banked offshore")
			return
		}

		claims, _ := middleware.RequestClaims(c)
		utils.Audit(db, claims.Email, "company.hero", company.Name, gin.H{"banked": banked})
		utils.Success(c, http.StatusOK, gin.H{"offshore": company.Offshore + banked}, "Hero! Earnings banked offshore")
	}
}

// @Summary Place a building
// @Description Builds on a free plot of the company's current location
// @Tags game
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{plot_index=integer,type=string} true "Placement"
// @Success 201 {object} object{success=boolean,data=object{id=integer,plot_index=integer}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/buildings [post]
// @Security ApiKeyAuth
func PlaceBuilding(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager, gameCfg *config.GameConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, ok := activeCompany(c, db, redisClient)
		if !ok {
			return
		}

		var req struct {
			PlotIndex int    `json:"plot_index"`
			Type      string `json:"type"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Type == "" {
			utils.Fail(c, http.StatusBadRequest, "plot_index and type are required")
			return
		}

		if company.LocationID == nil {
			utils.Fail(c, http.StatusBadRequest, "Company is not on a map")
			return
		}
		if req.PlotIndex < 0 || req.PlotIndex >= gameCfg.Map.PlotsPerLocation {
			utils.Fail(c, http.StatusBadRequest, "Invalid plot index")
			return
		}
		if company.Cash < gameCfg.Map.BuildingCost {
			utils.Fail(c, http.StatusBadRequest, "Insufficient funds")
			return
		}

		free, err := utils.IsPlotFree(db, *company.LocationID, req.PlotIndex)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error checking plot")
			return
		}
		if !free {
			utils.Fail(c, http.StatusBadRequest, "Plot is already occupied")
			return
		}

		building := models.Building{
			CompanyID:  company.ID,
			LocationID: *company.LocationID,
			PlotIndex:  req.PlotIndex,
			Type:       req.Type,
			BuiltAt:    time.Now(),
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Company{}).
				Where("id = ? AND cash >= ?", company.ID, gameCfg.Map.BuildingCost).
				Update("cash", gorm.Expr("cash - ?", gameCfg.Map.BuildingCost))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrInvalidData
			}
			return tx.Create(&building).Error
		})
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "Insufficient funds")
			return
		}

		_ = syncManager.SyncCompanyNetWorth(company.ID)

		claims, _ := middleware.RequestClaims(c)
		utils.Audit(db, claims.Email, "company.built", company.Name, gin.H{
			"plot_index": req.PlotIndex,
			"type":       req.Type,
		})
		utils.Success(c, http.StatusCreated, gin.H{"id": building.ID, "plot_index": building.PlotIndex}, "Building placed")
	}
}

// @Summary Attack another company
// @Description Attacks a company on the same location. Success steals cash and damages a building; failure sends the attacker to prison.
// @Tags game
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{target_company_id=integer} true "Attack target"
// @Success 200 {object} object{success=boolean,data=object{won=boolean,stolen=integer,prison_until=string}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/attack [post]
// @Security ApiKeyAuth
func Attack(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager, gameCfg *config.GameConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, ok := activeCompany(c, db, redisClient)
		if !ok {
			return
		}

		var req struct {
			TargetCompanyID uint `json:"target_company_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.TargetCompanyID == 0 {
			utils.Fail(c, http.StatusBadRequest, "target_company_id is required")
			return
		}
		if req.TargetCompanyID == company.ID {
			utils.Fail(c, http.StatusBadRequest, "You cannot attack your own company")
			return
		}

		now := time.Now()
		if company.InPrison(now) {
			utils.Fail(c, http.StatusBadRequest, "Company is in prison")
			return
		}
		if company.LocationID == nil {
			utils.Fail(c, http.StatusBadRequest, "Company is not on a map")
			return
		}

		target, err := utils.FindCompany(db, req.TargetCompanyID)
		if err != nil {
			utils.Fail(c, http.StatusNotFound, "Target company not found")
			return
		}
		if target.LocationID == nil || *target.LocationID != *company.LocationID {
			utils.Fail(c, http.StatusBadRequest, "Target is not on your location")
			return
		}

		claims, _ := middleware.RequestClaims(c)
		won := rand.Intn(100) < gameCfg.Attack.SuccessChance

		if !won {
			prisonUntil := now.Add(time.Duration(gameCfg.Attack.PrisonMinutes) * time.Minute)
			if err := db.Model(&models.Company{}).Where("id = ?", company.ID).Update("prison_until", prisonUntil).Error; err != nil {
				utils.Fail(c, http.StatusInternalServerError, "Error resolving attack")
				return
			}
			utils.Audit(db, claims.Email, "company.attack_failed", target.Name, gin.H{"prison_until": prisonUntil})
			utils.Success(c, http.StatusOK, gin.H{
				"won":          false,
				"stolen":       0,
				"prison_until": prisonUntil,
			}, "Attack failed, you were caught")
			return
		}

		stolen := target.Cash * int64(gameCfg.Attack.StealPercent) / 100
		err = db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Company{}).
				Where("id = ? AND cash >= ?", target.ID, stolen).
				Update("cash", gorm.Expr("cash - ?", stolen))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				stolen = 0
				return nil
			}
			return tx.Model(&models.Company{}).
				Where("id = ?", company.ID).
				Update("cash", gorm.Expr("cash + ?", stolen)).Error
		})
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error resolving attack")
			return
		}

		// Damage the target's most recently built structure, if any.
		var building models.Building
		if err := db.Where("company_id = ?", target.ID).Order("built_at DESC").First(&building).Error; err == nil {
			newCondition := building.Condition - gameCfg.Attack.ConditionDamage
			if newCondition <= 0 {
				_ = db.Delete(&building).Error
			} else {
				_ = db.Model(&building).Update("condition", newCondition).Error
			}
		}

		_ = syncManager.SyncCompanyNetWorth(company.ID)
		_ = syncManager.SyncCompanyNetWorth(target.ID)

		utils.Audit(db, claims.Email, "company.attack_won", target.Name, gin.H{"stolen": stolen})
		utils.Success(c, http.StatusOK, gin.H{"won": true, "stolen": stolen}, "Attack succeeded")
	}
}

// @Summary Get the net-worth leaderboard
// @Tags game
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{leaderboard=[]object{company=string,net_worth=integer}}}
// @Router /auth/game/leaderboard [get]
// @Security ApiKeyAuth
func Leaderboard(redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentSession(c, redisClient); !ok {
			return
		}

		top, err := redisClient.TopCompanies(10)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error reading leaderboard")
			return
		}

		entries := make([]gin.H, len(top))
		for i, z := range top {
			entries[i] = gin.H{
				"company":   z.Member,
				"net_worth": int64(z.Score),
			}
		}
		utils.Success(c, http.StatusOK, gin.H{"leaderboard": entries}, "")
	}
}

// @Summary Get the persisted map view mode
// @Tags game
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{mode=string}}
// @Router /auth/game/viewmode [get]
// @Security ApiKeyAuth
func GetViewMode(redisClient *redis.RedisClient, broadcaster *viewmode.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, redisClient)
		if !ok {
			return
		}

		mode, err := broadcaster.Current(sess.Username)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error reading view mode")
			return
		}
		utils.Success(c, http.StatusOK, gin.H{"mode": mode}, "")
	}
}

// @Summary Set the map view mode
// @Description Persists the mode and broadcasts the transition. Zoomed can only be entered from overview; none is the terminal unmount broadcast.
// @Tags game
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{mode=string} true "none, overview or zoomed"
// @Success 200 {object} object{success=boolean,data=object{mode=string}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/viewmode [put]
// @Security ApiKeyAuth
func SetViewMode(redisClient *redis.RedisClient, broadcaster *viewmode.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, redisClient)
		if !ok {
			return
		}

		var req struct {
			Mode string `json:"mode"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		mode := redis_models.ViewMode(req.Mode)
		if !mode.Valid() {
			utils.Fail(c, http.StatusBadRequest, "Invalid view mode")
			return
		}

		current, err := broadcaster.Current(sess.Username)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error reading view mode")
			return
		}
		// Zoomed is only reachable through overview (a tile click).
		if mode == redis_models.ViewModeZoomed && current != redis_models.ViewModeOverview && current != redis_models.ViewModeZoomed {
			utils.Fail(c, http.StatusBadRequest, "Cannot zoom without an overview")
			return
		}

		if err := broadcaster.Set(sess.Username, mode); err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error setting view mode")
			return
		}
		utils.Success(c, http.StatusOK, gin.H{"mode": mode}, "")
	}
}

// @Summary Subscribe to view-mode broadcasts
// @Description Upgrades to a websocket; every view-mode transition of the user is pushed as JSON. Closing the socket emits the terminal none.
// @Tags game
// @Param token query string true "Bearer JWT token"
// @Router /ws/viewmode [get]
func ViewModeSocket(redisClient *redis.RedisClient, broadcaster *viewmode.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Browsers cannot set headers on websocket requests, so the token
		// travels as a query parameter here.
		tokenString := c.Query("token")
		claims, err := middleware.ParseToken(tokenString)
		if err != nil {
			utils.Fail(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		sess, err := redisClient.GetSession(claims.SessionID)
		if err != nil {
			utils.Fail(c, http.StatusUnauthorized, "Session expired")
			return
		}

		viewmode.ServeSubscriber(c.Writer, c.Request, redisClient, sess.Username)

		// The subscriber is gone; fulfil the unmount obligation.
		broadcaster.Reset(sess.Username)
	}
}

// activeCompany loads the session's active company, writing the redirect
// condition when none is selected.
func activeCompany(c *gin.Context, db *gorm.DB, redisClient *redis.RedisClient) (*models.Company, bool) {
	sess, ok := currentSession(c, redisClient)
	if !ok {
		return nil, false
	}
	if sess.ActiveCompanyID == 0 {
		utils.Fail(c, http.StatusNotFound, NoActiveCompany)
		return nil, false
	}
	company, err := utils.FindCompany(db, sess.ActiveCompanyID)
	if err != nil {
		utils.Fail(c, http.StatusNotFound, NoActiveCompany)
		return nil, false
	}
	return company, true
}

func companyView(company *models.Company) gin.H {
	view := gin.H{
		"id":        company.ID,
		"name":      company.Name,
		"cash":      company.Cash,
		"offshore":  company.Offshore,
		"net_worth": company.NetWorth,
		"in_prison": company.InPrison(time.Now()),
	}
	if company.LocationID != nil {
		view["location_id"] = *company.LocationID
	}
	return view
}
