package services

import (
	"context"
	"testing"
	"time"

	"atlas-score-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func newTestLeaderboard(players *fakePlayerStore, snapshots *fakeSnapshotStore) *LeaderboardService {
	svc := NewLeaderboardService(players, snapshots, NewRankCache(time.Minute))
	svc.now = func() time.Time { return testNow }
	svc.Cache.now = svc.now
	return svc
}

func TestAllTimeLeaderboard(t *testing.T) {
	banned := testPlayer("d", "dave", 2000, 9000)
	banned.Banned = true
	nameless := testPlayer("e", "", 1900, 8000)

	players := newFakePlayerStore(
		testPlayer("a", "alice", 1500, 1000),
		testPlayer("b", "bob", 1300, 2000),
		testPlayer("c", "carol", 1700, 500),
		banned,
		nameless,
	)
	svc := newTestLeaderboard(players, &fakeSnapshotStore{})

	result, err := svc.GetLeaderboard(context.Background(), models.ModeXP, false, "")
	require.NoError(t, err)

	// Banned and nameless players are gone; ranks stay sequential.
	require.Len(t, result.Leaderboard, 3)
	assert.Equal(t, "bob", result.Leaderboard[0].Username)
	assert.Equal(t, int64(2000), result.Leaderboard[0].TotalXP)
	assert.Equal(t, "alice", result.Leaderboard[1].Username)
	assert.Equal(t, "carol", result.Leaderboard[2].Username)
	for i, row := range result.Leaderboard {
		assert.Equal(t, i+1, row.Rank)
		assert.Zero(t, row.EloToday, "all-time view has no daily delta")
	}
}

func TestAllTimeLeaderboardEloMode(t *testing.T) {
	players := newFakePlayerStore(
		testPlayer("a", "alice", 1500, 1000),
		testPlayer("b", "bob", 1300, 2000),
	)
	svc := newTestLeaderboard(players, &fakeSnapshotStore{})

	result, err := svc.GetLeaderboard(context.Background(), models.ModeElo, false, "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", result.Leaderboard[0].Username)

	require.NotNil(t, result.MyRank)
	assert.Equal(t, 2, *result.MyRank)
	require.NotNil(t, result.MyScore)
	assert.Equal(t, int64(1300), *result.MyScore)
}

func TestAllTimeMyRankCountsNonBannedAbove(t *testing.T) {
	banned := testPlayer("d", "dave", 2000, 9000)
	banned.Banned = true
	players := newFakePlayerStore(
		testPlayer("a", "alice", 1500, 1000),
		testPlayer("b", "bob", 1300, 2000),
		banned,
	)
	svc := newTestLeaderboard(players, &fakeSnapshotStore{})

	result, err := svc.GetLeaderboard(context.Background(), models.ModeXP, false, "alice")
	require.NoError(t, err)
	require.NotNil(t, result.MyRank)
	assert.Equal(t, 2, *result.MyRank, "only bob is above, dave is banned")
}

func dailySnapshots() *fakeSnapshotStore {
	snaps := &fakeSnapshotStore{bannedIDs: map[string]bool{"d": true}}
	ctx := context.Background()
	at := func(hoursAgo float64) time.Time {
		return testNow.Add(-time.Duration(hoursAgo * float64(time.Hour)))
	}

	// alice gains 500 xp / 20 elo inside the window; the 30h-old row is out.
	_ = snaps.Record(ctx, "a", 1470, 100, at(30))
	_ = snaps.Record(ctx, "a", 1480, 400, at(20))
	_ = snaps.Record(ctx, "a", 1500, 900, at(1))

	// bob gains 200 xp but loses 20 elo.
	_ = snaps.Record(ctx, "b", 1320, 1500, at(23))
	_ = snaps.Record(ctx, "b", 1300, 1700, at(2))

	// carol only has stale history.
	_ = snaps.Record(ctx, "c", 1700, 500, at(30))

	// dave (banned) and eve (nameless) both moved a lot.
	_ = snaps.Record(ctx, "d", 2000, 0, at(5))
	_ = snaps.Record(ctx, "d", 2000, 5000, at(1))
	_ = snaps.Record(ctx, "e", 1900, 0, at(5))
	_ = snaps.Record(ctx, "e", 1900, 3000, at(1))

	// frank played but gained nothing.
	_ = snaps.Record(ctx, "f", 1100, 50, at(10))
	_ = snaps.Record(ctx, "f", 1100, 50, at(3))

	return snaps
}

func dailyPlayers() *fakePlayerStore {
	banned := testPlayer("d", "dave", 2000, 9000)
	banned.Banned = true
	return newFakePlayerStore(
		testPlayer("a", "alice", 1500, 900),
		testPlayer("b", "bob", 1300, 1700),
		testPlayer("c", "carol", 1700, 500),
		banned,
		testPlayer("e", "", 1900, 3000),
		testPlayer("f", "frank", 1100, 50),
	)
}

func TestDailyLeaderboardXP(t *testing.T) {
	svc := newTestLeaderboard(dailyPlayers(), dailySnapshots())

	result, err := svc.GetLeaderboard(context.Background(), models.ModeXP, true, "")
	require.NoError(t, err)

	// dave (banned) and eve (nameless) are dropped after the join, frank's
	// zero gain never qualifies; ranks are reassigned without gaps.
	require.Len(t, result.Leaderboard, 2)
	assert.Equal(t, "alice", result.Leaderboard[0].Username)
	assert.Equal(t, int64(500), result.Leaderboard[0].TotalXP, "xp column carries the delta")
	assert.Equal(t, int64(500), result.Leaderboard[0].EloToday)
	assert.Equal(t, int64(1500), result.Leaderboard[0].Elo, "current elo kept for context")
	assert.Equal(t, 1, result.Leaderboard[0].Rank)

	assert.Equal(t, "bob", result.Leaderboard[1].Username)
	assert.Equal(t, int64(200), result.Leaderboard[1].TotalXP)
	assert.Equal(t, 2, result.Leaderboard[1].Rank)
}

func TestDailyLeaderboardElo(t *testing.T) {
	svc := newTestLeaderboard(dailyPlayers(), dailySnapshots())

	result, err := svc.GetLeaderboard(context.Background(), models.ModeElo, true, "")
	require.NoError(t, err)

	// Rating can fall: bob's -20 still ranks, frank's zero movement does not.
	require.Len(t, result.Leaderboard, 2)
	assert.Equal(t, "alice", result.Leaderboard[0].Username)
	assert.Equal(t, int64(20), result.Leaderboard[0].Elo, "elo column carries the delta")
	assert.Equal(t, int64(900), result.Leaderboard[0].TotalXP, "current xp kept for context")
	assert.Equal(t, "bob", result.Leaderboard[1].Username)
	assert.Equal(t, int64(-20), result.Leaderboard[1].Elo)
	assert.Equal(t, int64(-20), result.Leaderboard[1].EloToday)
}

func TestDailyMyRank(t *testing.T) {
	svc := newTestLeaderboard(dailyPlayers(), dailySnapshots())

	result, err := svc.GetLeaderboard(context.Background(), models.ModeXP, true, "alice")
	require.NoError(t, err)

	// eve's 3000 outranks alice's 500; banned dave does not count.
	require.NotNil(t, result.MyRank)
	assert.Equal(t, 2, *result.MyRank)
	require.NotNil(t, result.MyScore)
	assert.Equal(t, int64(500), *result.MyScore)
}

func TestDailyMyRankAbsentOutsideWindow(t *testing.T) {
	svc := newTestLeaderboard(dailyPlayers(), dailySnapshots())

	// carol's only snapshot is 30h old: no rank, zero delta, no error.
	result, err := svc.GetLeaderboard(context.Background(), models.ModeXP, true, "carol")
	require.NoError(t, err)
	assert.Nil(t, result.MyRank)
	require.NotNil(t, result.MyScore)
	assert.Zero(t, *result.MyScore)
}

func TestMyRankUnknownUsername(t *testing.T) {
	svc := newTestLeaderboard(dailyPlayers(), dailySnapshots())

	result, err := svc.GetLeaderboard(context.Background(), models.ModeXP, true, "nobody")
	require.NoError(t, err)
	assert.Nil(t, result.MyRank)
	assert.Nil(t, result.MyScore)
}

func TestLeaderboardCacheAbsorbsRepeatQueries(t *testing.T) {
	players := dailyPlayers()
	snaps := dailySnapshots()
	svc := newTestLeaderboard(players, snaps)

	first, err := svc.GetLeaderboard(context.Background(), models.ModeXP, true, "")
	require.NoError(t, err)
	second, err := svc.GetLeaderboard(context.Background(), models.ModeXP, true, "")
	require.NoError(t, err)

	assert.Equal(t, first.Leaderboard, second.Leaderboard)
	assert.Equal(t, 1, snaps.deltaCalls, "second request must come from cache")

	// A different key still computes.
	_, err = svc.GetLeaderboard(context.Background(), models.ModeElo, true, "")
	require.NoError(t, err)
	assert.Equal(t, 2, snaps.deltaCalls)

	// After the TTL the entry is recomputed.
	later := testNow.Add(2 * time.Minute)
	svc.now = func() time.Time { return later }
	svc.Cache.now = svc.now
	_, err = svc.GetLeaderboard(context.Background(), models.ModeXP, true, "")
	require.NoError(t, err)
	assert.Equal(t, 3, snaps.deltaCalls)
}

func TestAllTimeCacheSkipsPlayerScan(t *testing.T) {
	players := newFakePlayerStore(testPlayer("a", "alice", 1500, 1000))
	svc := newTestLeaderboard(players, &fakeSnapshotStore{})

	_, err := svc.GetLeaderboard(context.Background(), models.ModeXP, false, "")
	require.NoError(t, err)
	_, err = svc.GetLeaderboard(context.Background(), models.ModeXP, false, "")
	require.NoError(t, err)
	assert.Equal(t, 1, players.topCalls)
}

func TestLeaderboardRejectsUnknownMode(t *testing.T) {
	svc := newTestLeaderboard(newFakePlayerStore(), &fakeSnapshotStore{})
	_, err := svc.GetLeaderboard(context.Background(), models.LeaderboardMode("wins"), false, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLeaderboardCapsAtSize(t *testing.T) {
	players := newFakePlayerStore()
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		players.players[id] = testPlayer(id, "player-"+id, 1000+i, int64(100*i))
	}
	svc := newTestLeaderboard(players, &fakeSnapshotStore{})
	svc.Size = 5

	result, err := svc.GetLeaderboard(context.Background(), models.ModeXP, false, "")
	require.NoError(t, err)
	assert.Len(t, result.Leaderboard, 5)

	// Nothing outside the list beats the last entry.
	last := result.Leaderboard[len(result.Leaderboard)-1]
	for _, p := range players.players {
		inList := false
		for _, row := range result.Leaderboard {
			if row.Username == p.Name() {
				inList = true
				break
			}
		}
		if !inList {
			assert.LessOrEqual(t, p.TotalXP, last.TotalXP)
		}
	}
}
