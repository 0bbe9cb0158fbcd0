package database

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iaguu/axion-central-bot/internal/models"
)

func stubNow(t *testing.T, ms int64) {
	t.Helper()
	orig := nowMillis
	nowMillis = func() int64 { return ms }
	t.Cleanup(func() { nowMillis = orig })
}

func TestGetOrCreateUser(t *testing.T) {
	db := testDB(t)

	u, created, err := db.GetOrCreateUser("42")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Zero(t, u.Rep)
	assert.Zero(t, u.DailyCount)
	assert.False(t, u.IsVIP)
	assert.NotZero(t, u.LastReset)

	_, created, err = db.GetOrCreateUser("42")
	require.NoError(t, err)
	assert.False(t, created, "second touch must find the existing record")
}

func TestAddWarnAccumulates(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 3; i++ {
		_, err := db.AddWarn("42", 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, db.Warns("42"))

	require.NoError(t, db.ClearWarns("42"))
	assert.Zero(t, db.Warns("42"))
}

func TestAddWarnNeverNegative(t *testing.T) {
	db := testDB(t)

	warns, err := db.AddWarn("42", -5)
	require.NoError(t, err)
	assert.Zero(t, warns)
}

func TestCheckAccessLockdown(t *testing.T) {
	db := New(Options{
		Path:        filepath.Join(t.TempDir(), "axion_core.json"),
		AdminID:     "1",
		LockRetries: 500,
		LockBackoff: time.Millisecond,
	})
	require.NoError(t, db.SetLockdown(true))

	dec, err := db.CheckAccess("42")
	require.NoError(t, err)
	assert.False(t, dec.OK)
	assert.Equal(t, ReasonLockdown, dec.Reason)

	dec, err = db.CheckAccess("1")
	require.NoError(t, err)
	assert.True(t, dec.OK, "admin identity bypasses lockdown")
}

func TestCheckAccessDailyLimit(t *testing.T) {
	db := testDB(t)

	for i := 0; i < models.DefaultDailyLimit; i++ {
		_, err := db.RegisterUsage("42")
		require.NoError(t, err)
	}

	dec, err := db.CheckAccess("42")
	require.NoError(t, err)
	assert.False(t, dec.OK)
	assert.Equal(t, ReasonDailyLimit, dec.Reason)
	assert.Equal(t, models.DefaultDailyLimit, dec.Stats.DailyCount)
}

func TestCheckAccessVIPLimit(t *testing.T) {
	db := testDB(t)

	_, err := db.ToggleVIP("42")
	require.NoError(t, err)
	for i := 0; i < models.DefaultDailyLimit; i++ {
		_, err := db.RegisterUsage("42")
		require.NoError(t, err)
	}

	dec, err := db.CheckAccess("42")
	require.NoError(t, err)
	assert.True(t, dec.OK, "VIP limit is higher than the default tier")
}

func TestCheckAccessCustomLimitOverride(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.SetCustomLimit("42", 2))
	for i := 0; i < 2; i++ {
		_, err := db.RegisterUsage("42")
		require.NoError(t, err)
	}

	dec, err := db.CheckAccess("42")
	require.NoError(t, err)
	assert.False(t, dec.OK)
	assert.Equal(t, ReasonDailyLimit, dec.Reason)
}

func TestCheckAccessLazyDailyReset(t *testing.T) {
	db := testDB(t)

	stubNow(t, 1_000_000)
	for i := 0; i < models.DefaultDailyLimit; i++ {
		_, err := db.RegisterUsage("42")
		require.NoError(t, err)
	}
	dec, err := db.CheckAccess("42")
	require.NoError(t, err)
	require.False(t, dec.OK)

	// More than 24h later the counter resets lazily on access.
	stubNow(t, 1_000_000+dayMillis+1)
	dec, err = db.CheckAccess("42")
	require.NoError(t, err)
	assert.True(t, dec.OK)
	assert.Zero(t, dec.Stats.DailyCount)
}

func TestRegisterUsageConcurrentNoLostUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axion_core.json")
	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker opens its own handle, as separate processes would.
			h := New(Options{Path: path, LockRetries: 2000, LockBackoff: time.Millisecond})
			for j := 0; j < perWorker; j++ {
				_, err := h.RegisterUsage("42")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	db := New(Options{Path: path, LockRetries: 2000, LockBackoff: time.Millisecond})
	stats := db.GetUsageStats("42")
	assert.Equal(t, workers*perWorker, stats.TotalSearches)
}

func TestClaimDailyOncePer24h(t *testing.T) {
	db := testDB(t)

	stubNow(t, 5_000_000)
	res, err := db.ClaimDaily("42")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Rep)

	res, err = db.ClaimDaily("42")
	require.NoError(t, err)
	assert.False(t, res.OK)

	stubNow(t, 5_000_000+dayMillis+1)
	res, err = db.ClaimDaily("42")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 2, res.Rep)
}

func TestClaimDailyConcurrentSingleSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axion_core.json")
	const callers = 6

	results := make(chan bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := New(Options{Path: path, LockRetries: 2000, LockBackoff: time.Millisecond})
			res, err := h.ClaimDaily("42")
			assert.NoError(t, err)
			results <- res.OK
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent claim may win")
}

func TestAddRepClampsAtZero(t *testing.T) {
	db := testDB(t)

	rep, err := db.AddRep("42", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, rep)

	rep, err = db.AddRep("42", -25)
	require.NoError(t, err)
	assert.Zero(t, rep, "persisted reputation never goes negative")
}

func TestSpendRep(t *testing.T) {
	db := testDB(t)

	_, err := db.AddRep("42", 8)
	require.NoError(t, err)

	ok, rep, err := db.SpendRep("42", 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, rep)

	ok, rep, err = db.SpendRep("42", 5)
	require.NoError(t, err)
	assert.False(t, ok, "insufficient balance must not debit")
	assert.Equal(t, 3, rep)
}

func TestSearchHistoryBounded(t *testing.T) {
	db := testDB(t)

	for i := 0; i < models.MaxSearchHistory+4; i++ {
		_, err := db.AddSearchHistory("42", models.SearchEntry{Cmd: "cpf", Query: fmt.Sprintf("q%d", i)})
		require.NoError(t, err)
	}

	hist := db.SearchHistory("42")
	require.Len(t, hist, models.MaxSearchHistory)
	assert.Equal(t, "q4", hist[0].Query, "oldest entries evicted first")
	assert.NotEmpty(t, hist[0].At)
}

func TestCouponLifecycle(t *testing.T) {
	db := testDB(t)

	require.Nil(t, db.UserCoupon("42"))
	require.NoError(t, db.SetUserCoupon("42", models.Coupon{Code: "AXION10", Type: "percent", Value: 10}))

	c := db.UserCoupon("42")
	require.NotNil(t, c)
	assert.Equal(t, "AXION10", c.Code)

	require.NoError(t, db.ClearUserCoupon("42"))
	assert.Nil(t, db.UserCoupon("42"))
}

func TestVIPUsersAndRankings(t *testing.T) {
	db := testDB(t)

	_, err := db.ToggleVIP("7")
	require.NoError(t, err)
	_, err = db.AddRep("7", 3)
	require.NoError(t, err)
	_, err = db.AddRep("9", 11)
	require.NoError(t, err)
	_, err = db.RegisterUsage("9")
	require.NoError(t, err)

	assert.Equal(t, []string{"7"}, db.VIPUsers())

	top := db.TopRep(0)
	require.Len(t, top, 2)
	assert.Equal(t, "9", top[0].ID)

	searches := db.TopSearches(1)
	require.Len(t, searches, 1)
	assert.Equal(t, "9", searches[0].ID)
	assert.Equal(t, 1, searches[0].Total)
}
