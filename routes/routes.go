package routes

import (
	"notropolis/config"
	"notropolis/controllers"
	"notropolis/middleware"
	"notropolis/services/redis"
	"notropolis/services/viewmode"
	gamesync "notropolis/sync"
	utils "notropolis/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, redisClient *redis.RedisClient, gameCfg *config.GameConfig) {
	syncManager := gamesync.NewSyncManager(redisClient, db)
	broadcaster := viewmode.NewBroadcaster(redisClient)

	// utils global
	router.Use(utils.ErrorHandler())
	router.Use(utils.Logger())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.GET("/users/:username", controllers.GetUserPublicInfo(db))

	api.POST("/signup", controllers.SignUp(db))

	api.POST("/login", controllers.Login(db, redisClient))

	api.POST("/login/verify", controllers.VerifyTwoFactor(db, redisClient))

	api.POST("/magic-link", controllers.RequestMagicLink(db))

	api.GET("/magic-link/verify", controllers.VerifyMagicLink(db, redisClient))

	// Websocket subscription authenticates via query token, not the header
	api.GET("/ws/viewmode", controllers.ViewModeSocket(redisClient, broadcaster))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout(db, redisClient))

		authentication.GET("/me", controllers.GetUserPrivateInfo(db))

		authentication.PATCH("/update", controllers.UpdateUserInfo(db))

		// Dashboard administration
		authentication.GET("/users", controllers.GetAllUsers(db))
		authentication.PUT("/users/:username/role", controllers.UpdateUserRole(db))
		authentication.DELETE("/users/:username", controllers.DeleteUser(db))

		authentication.GET("/roles", controllers.ListRoles(db))
		authentication.POST("/roles", controllers.CreateRole(db))
		authentication.PATCH("/roles/:name", controllers.UpdateRole(db))

		authentication.GET("/companies", controllers.ListCompanies(db))
		authentication.POST("/companies", controllers.CreateCompany(db, gameCfg))
		authentication.GET("/companies/:id/users", controllers.GetCompanyUsers(db))
		authentication.POST("/companies/:id/users", controllers.AddCompanyUser(db))
		authentication.DELETE("/companies/:id/users/:email", controllers.RemoveCompanyUser(db))

		authentication.GET("/audit", controllers.ListAuditLogs(db))

		authentication.GET("/messages", controllers.ListMessages(db))
		authentication.POST("/messages", controllers.SendMessage(db))
		authentication.POST("/messages/:id/read", controllers.MarkMessageRead(db))

		// Game endpoints
		game := authentication.Group("/game")
		{
			game.GET("/company", controllers.GetActiveCompany(db, redisClient))
			game.POST("/company/select", controllers.SelectActiveCompany(db, redisClient))

			game.POST("/locations/:id/join", controllers.JoinLocation(db, redisClient))
			game.POST("/locations/leave", controllers.LeaveLocation(db, redisClient, syncManager))

			game.POST("/buildings", controllers.PlaceBuilding(db, redisClient, syncManager, gameCfg))
			game.POST("/attack", controllers.Attack(db, redisClient, syncManager, gameCfg))
			game.GET("/leaderboard", controllers.Leaderboard(redisClient))

			game.GET("/viewmode", controllers.GetViewMode(redisClient, broadcaster))
			game.PUT("/viewmode", controllers.SetViewMode(redisClient, broadcaster))

			casino := game.Group("/casino")
			{
				casino.GET("/blackjack", controllers.BlackjackState(db, redisClient))
				casino.POST("/blackjack/deal", controllers.BlackjackDeal(db, redisClient, syncManager, gameCfg))
				casino.POST("/blackjack/hit", controllers.BlackjackHit(db, redisClient, syncManager))
				casino.POST("/blackjack/stand", controllers.BlackjackStand(db, redisClient, syncManager))
				casino.POST("/blackjack/double", controllers.BlackjackDouble(db, redisClient, syncManager))

				casino.POST("/roulette", controllers.RouletteSpin(db, redisClient, syncManager, gameCfg))
				casino.POST("/dice", controllers.DicePlay(db, redisClient, syncManager, gameCfg))
			}
		}
	}
}
