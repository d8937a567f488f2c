package controllers

import (
	"fmt"
	"net/http"

	"notropolis/config"
	"notropolis/middleware"
	models "notropolis/models/postgres"
	redis_models "notropolis/models/redis"
	"notropolis/services/casino"
	"notropolis/services/redis"
	gamesync "notropolis/sync"
	"notropolis/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Every casino mutation is server-authoritative: the client never learns
// card values or outcomes except through these responses, and balances only
// move here and in the settlement path.

// validateBet applies the configured bet bounds against the company's cash.
func validateBet(amount int64, cash int64, cfg *config.GameConfig) error {
	if amount < cfg.Casino.MinBet || amount > cfg.Casino.MaxBet {
		return fmt.Errorf("bet must be between %d and %d", cfg.Casino.MinBet, cfg.Casino.MaxBet)
	}
	if amount > cash {
		return fmt.Errorf("Insufficient funds")
	}
	return nil
}

// debitBet atomically takes the bet from the company's cash; returns false
// when the balance no longer covers it.
func debitBet(db *gorm.DB, companyID uint, amount int64) (bool, error) {
	res := db.Model(&models.Company{}).
		Where("id = ? AND cash >= ?", companyID, amount).
		Update("cash", gorm.Expr("cash - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// @Summary Deal a blackjack hand
// @Description Valid only with no hand in progress. The bet is debited immediately; a natural blackjack resolves the hand in the same response.
// @Tags casino
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{amount=integer} true "Bet amount"
// @Success 200 {object} object{success=boolean,data=object{game_id=string,state=string,player_cards=[]string,dealer_up_card=string,can_double=boolean}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/casino/blackjack/deal [post]
// @Security ApiKeyAuth
func BlackjackDeal(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager, gameCfg *config.GameConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, redisClient)
		if !ok {
			return
		}
		company, ok := activeCompany(c, db, redisClient)
		if !ok {
			return
		}

		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validateBet(req.Amount, company.Cash, gameCfg); err != nil {
			utils.Fail(c, http.StatusBadRequest, err.Error())
			return
		}

		// One hand per session; deal is only legal from the betting phase.
		if existing, err := redisClient.GetBlackjackGame(sess.ID); err == nil &&
			existing.State != redis_models.BlackjackFinished {
			utils.Fail(c, http.StatusBadRequest, "Finish your current hand first")
			return
		}

		debited, err := debitBet(db, company.ID, req.Amount)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error placing bet")
			return
		}
		if !debited {
			utils.Fail(c, http.StatusBadRequest, "Insufficient funds")
			return
		}

		game := casino.NewBlackjackGame(sess.ID, company.ID, req.Amount)
		if err := redisClient.SaveBlackjackGame(game); err != nil {
			// refund, the hand never existed
			_ = db.Model(&models.Company{}).Where("id = ?", company.ID).
				Update("cash", gorm.Expr("cash + ?", req.Amount)).Error
			utils.Fail(c, http.StatusInternalServerError, "Error starting game")
			return
		}

		finishBlackjackResponse(c, db, redisClient, syncManager, game)
	}
}

// @Summary Hit
// @Description Valid only during the player turn; a bust finishes the hand
// @Tags casino
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{state=string,player_cards=[]string}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/casino/blackjack/hit [post]
// @Security ApiKeyAuth
func BlackjackHit(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager) gin.HandlerFunc {
	return blackjackAction(db, redisClient, syncManager, casino.Hit)
}

// @Summary Stand
// @Description Valid only during the player turn; the dealer plays out and the hand resolves in the same response
// @Tags casino
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{state=string,outcome=string,payout=integer,balance=integer}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/casino/blackjack/stand [post]
// @Security ApiKeyAuth
func BlackjackStand(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager) gin.HandlerFunc {
	return blackjackAction(db, redisClient, syncManager, casino.Stand)
}

// @Summary Double down
// @Description Only legal as the first decision of a two-card hand; doubles the wager, draws one card and resolves
// @Tags casino
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{state=string,outcome=string,payout=integer,balance=integer}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/casino/blackjack/double [post]
// @Security ApiKeyAuth
func BlackjackDouble(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, redisClient)
		if !ok {
			return
		}

		game, err := redisClient.GetBlackjackGame(sess.ID)
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "No hand in progress")
			return
		}
		if game.State != redis_models.BlackjackPlayerTurn {
			utils.Fail(c, http.StatusBadRequest, "Action not valid in current game state")
			return
		}
		if !game.CanDouble {
			utils.Fail(c, http.StatusBadRequest, "Double only allowed on the first decision")
			return
		}

		// The extra wager must be covered before the engine doubles the bet.
		debited, err := debitBet(db, game.CompanyID, game.Bet)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error placing bet")
			return
		}
		if !debited {
			utils.Fail(c, http.StatusBadRequest, "Insufficient funds")
			return
		}

		if err := casino.Double(game); err != nil {
			utils.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if err := redisClient.SaveBlackjackGame(game); err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error saving game")
			return
		}

		finishBlackjackResponse(c, db, redisClient, syncManager, game)
	}
}

// @Summary Get the current blackjack hand
// @Tags casino
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{success=boolean,data=object{state=string,player_cards=[]string}}
// @Failure 404 {object} object{success=boolean,error=string}
// @Router /auth/game/casino/blackjack [get]
// @Security ApiKeyAuth
func BlackjackState(db *gorm.DB, redisClient *redis.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, redisClient)
		if !ok {
			return
		}
		game, err := redisClient.GetBlackjackGame(sess.ID)
		if err != nil {
			utils.Fail(c, http.StatusNotFound, "No hand in progress")
			return
		}
		utils.Success(c, http.StatusOK, blackjackView(game, nil), "")
	}
}

// blackjackAction wraps the single-step engine moves that share the same
// load/apply/save/settle shape.
func blackjackAction(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager, action func(*redis_models.BlackjackGame) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c, redisClient)
		if !ok {
			return
		}

		game, err := redisClient.GetBlackjackGame(sess.ID)
		if err != nil {
			utils.Fail(c, http.StatusBadRequest, "No hand in progress")
			return
		}

		if err := action(game); err != nil {
			// rejected actions leave the stored game untouched
			utils.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if err := redisClient.SaveBlackjackGame(game); err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error saving game")
			return
		}

		finishBlackjackResponse(c, db, redisClient, syncManager, game)
	}
}

// finishBlackjackResponse settles the hand if it just finished and writes
// the state view. The settled balance only appears on finished hands.
func finishBlackjackResponse(c *gin.Context, db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager, game *redis_models.BlackjackGame) {
	var balance *int64
	if game.State == redis_models.BlackjackFinished {
		if err := syncManager.SettleBlackjack(game); err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error settling game")
			return
		}
		if company, err := utils.FindCompany(db, game.CompanyID); err == nil {
			balance = &company.Cash
		}

		claims, _ := middleware.RequestClaims(c)
		if claims != nil {
			utils.Audit(db, claims.Email, "casino.blackjack", game.ID, gin.H{
				"bet":     game.Bet,
				"outcome": game.Outcome,
				"payout":  game.Payout,
			})
		}
	}
	utils.Success(c, http.StatusOK, blackjackView(game, balance), "")
}

// blackjackView hides the dealer's hole card until the hand is finished.
func blackjackView(game *redis_models.BlackjackGame, balance *int64) gin.H {
	view := gin.H{
		"game_id":      game.ID,
		"state":        game.State,
		"bet":          game.Bet,
		"player_cards": game.PlayerCards,
		"player_total": casino.HandValue(game.PlayerCards),
		"can_double":   game.CanDouble,
	}
	if game.State == redis_models.BlackjackFinished {
		view["dealer_cards"] = game.DealerCards
		view["dealer_total"] = casino.HandValue(game.DealerCards)
		view["outcome"] = game.Outcome
		view["payout"] = game.Payout
		if balance != nil {
			view["balance"] = *balance
		}
	} else if len(game.DealerCards) > 0 {
		view["dealer_up_card"] = game.DealerCards[0]
	}
	return view
}

// @Summary Spin the roulette wheel
// @Description Settles the bet server-side in one response; the client defers showing the balance until its animation ends
// @Tags casino
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{amount=integer,bet_type=string,number=integer} true "Bet"
// @Success 200 {object} object{success=boolean,data=object{winning_number=integer,won=boolean,payout=integer,balance=integer}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/casino/roulette [post]
// @Security ApiKeyAuth
func RouletteSpin(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager, gameCfg *config.GameConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, ok := activeCompany(c, db, redisClient)
		if !ok {
			return
		}

		var req struct {
			Amount  int64  `json:"amount"`
			BetType string `json:"bet_type"`
			Number  int    `json:"number"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validateBet(req.Amount, company.Cash, gameCfg); err != nil {
			utils.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		betType := casino.RouletteBetType(req.BetType)
		if err := casino.ValidateRouletteBet(betType, req.Number); err != nil {
			utils.Fail(c, http.StatusBadRequest, err.Error())
			return
		}

		debited, err := debitBet(db, company.ID, req.Amount)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error placing bet")
			return
		}
		if !debited {
			utils.Fail(c, http.StatusBadRequest, "Insufficient funds")
			return
		}

		result := casino.SpinRoulette(req.Amount, betType, req.Number)
		if result.Payout > 0 {
			err := db.Model(&models.Company{}).Where("id = ?", company.ID).
				Update("cash", gorm.Expr("cash + ?", result.Payout)).Error
			if err != nil {
				utils.Fail(c, http.StatusInternalServerError, "Error settling bet")
				return
			}
		}
		_ = syncManager.SyncCompanyNetWorth(company.ID)

		claims, _ := middleware.RequestClaims(c)
		utils.Audit(db, claims.Email, "casino.roulette", company.Name, gin.H{
			"bet":      req.Amount,
			"bet_type": req.BetType,
			"winning":  result.Winning,
			"payout":   result.Payout,
		})

		fresh, err := utils.FindCompany(db, company.ID)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error reading balance")
			return
		}
		utils.Success(c, http.StatusOK, gin.H{
			"winning_number": result.Winning,
			"won":            result.Won,
			"payout":         result.Payout,
			"balance":        fresh.Cash,
		}, "")
	}
}

// @Summary Play dice
// @Description Bet over or under a target from 1 to 95; the multiplier scales with the chance
// @Tags casino
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param body body object{amount=integer,target=integer,over=boolean} true "Bet"
// @Success 200 {object} object{success=boolean,data=object{roll=integer,won=boolean,multiplier=number,payout=integer,balance=integer}}
// @Failure 400 {object} object{success=boolean,error=string}
// @Router /auth/game/casino/dice [post]
// @Security ApiKeyAuth
func DicePlay(db *gorm.DB, redisClient *redis.RedisClient, syncManager *gamesync.SyncManager, gameCfg *config.GameConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, ok := activeCompany(c, db, redisClient)
		if !ok {
			return
		}

		var req struct {
			Amount int64 `json:"amount"`
			Target int   `json:"target"`
			Over   bool  `json:"over"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.Fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validateBet(req.Amount, company.Cash, gameCfg); err != nil {
			utils.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if err := casino.ValidateDiceTarget(req.Target); err != nil {
			utils.Fail(c, http.StatusBadRequest, err.Error())
			return
		}

		debited, err := debitBet(db, company.ID, req.Amount)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error placing bet")
			return
		}
		if !debited {
			utils.Fail(c, http.StatusBadRequest, "Insufficient funds")
			return
		}

		result := casino.RollDice(req.Amount, req.Target, req.Over)
		if result.Payout > 0 {
			err := db.Model(&models.Company{}).Where("id = ?", company.ID).
				Update("cash", gorm.Expr("cash + ?", result.Payout)).Error
			if err != nil {
				utils.Fail(c, http.StatusInternalServerError, "Error settling bet")
				return
			}
		}
		_ = syncManager.SyncCompanyNetWorth(company.ID)

		claims, _ := middleware.RequestClaims(c)
		utils.Audit(db, claims.Email, "casino.dice", company.Name, gin.H{
			"bet":    req.Amount,
			"target": req.Target,
			"over":   req.Over,
			"roll":   result.Roll,
			"payout": result.Payout,
		})

		fresh, err := utils.FindCompany(db, company.ID)
		if err != nil {
			utils.Fail(c, http.StatusInternalServerError, "Error reading balance")
			return
		}
		utils.Success(c, http.StatusOK, gin.H{
			"roll":       result.Roll,
			"won":        result.Won,
			"multiplier": result.Multiplier,
			"payout":     result.Payout,
			"balance":    fresh.Cash,
		}, "")
	}
}
