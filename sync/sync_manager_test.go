package sync

import (
	"testing"

	redis_models "notropolis/models/redis"
	"notropolis/services/redis"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func testSyncManager(t *testing.T) (*SyncManager, sqlmock.Sqlmock, *redis.RedisClient) {
	mr := miniredis.RunT(t)
	rc, err := redis.InitRedis(mr.Addr(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { redis.CloseRedis(rc) })

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewSyncManager(rc, db), mock, rc
}

func expectNetWorthSync(mock sqlmock.Sqlmock, cash, offshore, buildings int64) {
	mock.ExpectQuery(`SELECT \* FROM "companies"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "cash", "offshore"}).
			AddRow(7, "Acme", cash, offshore))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "buildings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(buildings))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "companies" SET "net_worth"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestSettleBlackjack(t *testing.T) {
	sm, mock, rc := testSyncManager(t)

	game := &redis_models.BlackjackGame{
		ID:        "game-1",
		SessionID: "sess-1",
		CompanyID: 7,
		State:     redis_models.BlackjackFinished,
		Bet:       100,
		Outcome:   redis_models.OutcomeWin,
		Payout:    200,
	}
	require.NoError(t, rc.SaveBlackjackGame(game))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "companies" SET "cash"=cash \+ \$1`).
		WithArgs(int64(200), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectNetWorthSync(mock, 1200, 0, 2)

	require.NoError(t, sm.SettleBlackjack(game))
	assert.True(t, game.Settled)
	assert.NoError(t, mock.ExpectationsWereMet())

	// the flag is persisted, so a reloaded copy is also a no-op
	reloaded, err := rc.GetBlackjackGame("sess-1")
	require.NoError(t, err)
	assert.True(t, reloaded.Settled)
	require.NoError(t, sm.SettleBlackjack(reloaded))
	assert.NoError(t, mock.ExpectationsWereMet(), "a settled hand must not touch the balance again")
}

func TestSettleBlackjackTwiceIsNoop(t *testing.T) {
	sm, mock, _ := testSyncManager(t)

	game := &redis_models.BlackjackGame{
		ID:        "game-2",
		SessionID: "sess-2",
		CompanyID: 7,
		State:     redis_models.BlackjackFinished,
		Payout:    500,
		Settled:   true,
	}

	require.NoError(t, sm.SettleBlackjack(game))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleBlackjackRacedCopyCreditsOnce(t *testing.T) {
	sm, mock, rc := testSyncManager(t)

	game := &redis_models.BlackjackGame{
		ID:        "game-5",
		SessionID: "sess-5",
		CompanyID: 7,
		State:     redis_models.BlackjackFinished,
		Bet:       100,
		Outcome:   redis_models.OutcomeWin,
		Payout:    200,
	}
	require.NoError(t, rc.SaveBlackjackGame(game))

	// a second request loaded the hand before the first persisted Settled
	raced := *game

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "companies" SET "cash"=cash \+ \$1`).
		WithArgs(int64(200), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectNetWorthSync(mock, 1200, 0, 0)

	require.NoError(t, sm.SettleBlackjack(game))
	assert.NoError(t, mock.ExpectationsWereMet())

	// losing the claim settles nothing and queues no SQL
	require.NoError(t, sm.SettleBlackjack(&raced))
	assert.True(t, raced.Settled)
	assert.NoError(t, mock.ExpectationsWereMet(), "the raced copy must not credit the payout again")
}

func TestSettleBlackjackRejectsUnfinished(t *testing.T) {
	sm, mock, _ := testSyncManager(t)

	game := &redis_models.BlackjackGame{
		ID:        "game-3",
		SessionID: "sess-3",
		CompanyID: 7,
		State:     redis_models.BlackjackPlayerTurn,
		Payout:    500,
	}

	assert.Error(t, sm.SettleBlackjack(game))
	assert.False(t, game.Settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleBlackjackLostHand(t *testing.T) {
	sm, mock, rc := testSyncManager(t)

	game := &redis_models.BlackjackGame{
		ID:        "game-4",
		SessionID: "sess-4",
		CompanyID: 7,
		State:     redis_models.BlackjackFinished,
		Bet:       100,
		Outcome:   redis_models.OutcomeLose,
		Payout:    0,
	}
	require.NoError(t, rc.SaveBlackjackGame(game))

	// no payout, no cash update; the net worth still resyncs
	expectNetWorthSync(mock, 900, 0, 0)

	require.NoError(t, sm.SettleBlackjack(game))
	assert.True(t, game.Settled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncCompanyNetWorth(t *testing.T) {
	sm, mock, rc := testSyncManager(t)

	expectNetWorthSync(mock, 1000, 4000, 2)

	require.NoError(t, sm.SyncCompanyNetWorth(7))
	assert.NoError(t, mock.ExpectationsWereMet())

	top, err := rc.TopCompanies(1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Acme", top[0].Member)
	assert.Equal(t, float64(1000+4000+2*2500), top[0].Score)
}
