package sync

import (
	"fmt"

	"notropolis/models/postgres"
	redis_models "notropolis/models/redis"
	"notropolis/services/redis"

	"gorm.io/gorm"
)

// SyncManager moves settled game state from Redis back into PostgreSQL.
// Redis holds the hot per-session state; PostgreSQL stays the source of
// truth for balances, so every settlement flows through here.
type SyncManager struct {
	redisClient *redis.RedisClient
	db          *gorm.DB
}

// NewSyncManager creates a new instance of the synchronization manager
func NewSyncManager(redisClient *redis.RedisClient, db *gorm.DB) *SyncManager {
	return &SyncManager{
		redisClient: redisClient,
		db:          db,
	}
}

// SettleBlackjack credits a finished hand's payout to the company exactly
// once. A SETNX claim on the game id is taken before any money moves, so
// neither a retried request nor two concurrent ones can pay twice; the
// Settled flag is then persisted so state reads see a closed hand.
func (sm *SyncManager) SettleBlackjack(game *redis_models.BlackjackGame) error {
	if game.State != redis_models.BlackjackFinished {
		return fmt.Errorf("cannot settle blackjack game %s in state %s", game.ID, game.State)
	}
	if game.Settled {
		return nil
	}

	claimed, err := sm.redisClient.ClaimBlackjackSettlement(game.ID)
	if err != nil {
		return fmt.Errorf("error claiming blackjack settlement: %v", err)
	}
	if !claimed {
		// a concurrent request already settled this hand
		game.Settled = true
		return nil
	}

	game.Settled = true
	if err := sm.redisClient.SaveBlackjackGame(game); err != nil {
		game.Settled = false
		_ = sm.redisClient.ReleaseBlackjackSettlement(game.ID)
		return fmt.Errorf("error marking blackjack game settled: %v", err)
	}

	if game.Payout > 0 {
		err := sm.db.Model(&postgres.Company{}).
			Where("id = ?", game.CompanyID).
			Update("cash", gorm.Expr("cash + ?", game.Payout)).Error
		if err != nil {
			return fmt.Errorf("error crediting blackjack payout: %v", err)
		}
	}

	return sm.SyncCompanyNetWorth(game.CompanyID)
}

// SyncCompanyNetWorth recomputes a company's net worth from its balances
// and building stock, writes it to PostgreSQL and refreshes the Redis
// leaderboard entry.
func (sm *SyncManager) SyncCompanyNetWorth(companyID uint) error {
	var company postgres.Company
	if err := sm.db.Where("id = ?", companyID).First(&company).Error; err != nil {
		return fmt.Errorf("error loading company %d: %v", companyID, err)
	}

	var buildingCount int64
	err := sm.db.Model(&postgres.Building{}).
		Where("company_id = ?", companyID).
		Count(&buildingCount).Error
	if err != nil {
		return fmt.Errorf("error counting buildings: %v", err)
	}

	// Buildings are valued at a flat rate; condition does not depreciate
	// net worth, only attack vulnerability.
	netWorth := company.Cash + company.Offshore + buildingCount*2500

	err = sm.db.Model(&postgres.Company{}).
		Where("id = ?", companyID).
		Update("net_worth", netWorth).Error
	if err != nil {
		return fmt.Errorf("error updating net worth: %v", err)
	}

	if err := sm.redisClient.UpdateLeaderboard(company.Name, netWorth); err != nil {
		return fmt.Errorf("error updating leaderboard: %v", err)
	}
	return nil
}
