package database

import (
	"sort"

	"github.com/iaguu/axion-central-bot/internal/models"
)

const dayMillis = 24 * 60 * 60 * 1000

// Denial reasons returned by CheckAccess. User-facing wording belongs
// to the bots; the store only signals.
const (
	ReasonLockdown   = "lockdown"
	ReasonDailyLimit = "daily_limit"
)

// UsageStats is the caller-visible slice of a user record.
type UsageStats struct {
	IsVIP         bool
	DailyCount    int
	TotalSearches int
}

// AccessDecision is the structured outcome of CheckAccess. Business
// denials are values, never errors.
type AccessDecision struct {
	OK     bool
	Reason string
	Stats  UsageStats
}

// ClaimResult is the outcome of ClaimDaily.
type ClaimResult struct {
	OK  bool
	Rep int
}

// RepRank is one row of the reputation ranking.
type RepRank struct {
	ID  string
	Rep int
}

// SearchRank is one row of the lifetime-searches ranking.
type SearchRank struct {
	ID    string
	Total int
}

func ensureUser(doc *models.Document, id string) (*models.User, bool) {
	if u, ok := doc.Users[id]; ok {
		return u, false
	}
	u := &models.User{LastReset: nowMillis()}
	doc.Users[id] = u
	return u, true
}

// resetDailyIfDue lazily zeroes the daily counter when more than 24h
// has elapsed since the last reset.
func resetDailyIfDue(u *models.User) bool {
	now := nowMillis()
	if u.LastReset == 0 || now-u.LastReset > dayMillis {
		u.DailyCount = 0
		u.LastReset = now
		return true
	}
	return false
}

// GetOrCreateUser returns the user record, creating it with defaults
// on first touch. The second return reports whether it was created.
// Transactional; idempotent.
func (db *Database) GetOrCreateUser(id string) (models.User, bool, error) {
	var out models.User
	var created bool
	err := db.Update(func(doc *models.Document) error {
		u, c := ensureUser(doc, id)
		out, created = *u, c
		return nil
	})
	return out, created, err
}

// Users returns a copy of every user record. Read-only snapshot.
func (db *Database) Users() map[string]models.User {
	out := make(map[string]models.User)
	db.View(func(doc *models.Document) {
		for id, u := range doc.Users {
			out[id] = *u
		}
	})
	return out
}

// ToggleVIP flips the VIP flag and returns the new value. Transactional.
func (db *Database) ToggleVIP(id string) (bool, error) {
	var vip bool
	err := db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		u.IsVIP = !u.IsVIP
		vip = u.IsVIP
		return nil
	})
	return vip, err
}

// SetCustomLimit overrides the user's daily limit; limit <= 0 clears
// the override. Transactional.
func (db *Database) SetCustomLimit(id string, limit int) error {
	return db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		if limit <= 0 {
			u.CustomLimit = nil
			return nil
		}
		u.CustomLimit = &limit
		return nil
	})
}

// CheckAccess evaluates, in order: the lockdown gate (denies everyone
// except the configured admin identity), the lazy daily reset, then
// the daily counter against the effective limit. Transactional, since
// both the lazy user creation and the reset persist.
func (db *Database) CheckAccess(id string) (AccessDecision, error) {
	var dec AccessDecision
	err := db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		stats := UsageStats{IsVIP: u.IsVIP, DailyCount: u.DailyCount, TotalSearches: u.TotalSearches}
		if doc.System.Lockdown && id != db.adminID {
			dec = AccessDecision{OK: false, Reason: ReasonLockdown, Stats: stats}
			return nil
		}
		resetDailyIfDue(u)
		stats.DailyCount = u.DailyCount
		if u.DailyCount >= u.DailyLimit() {
			dec = AccessDecision{OK: false, Reason: ReasonDailyLimit, Stats: stats}
			return nil
		}
		dec = AccessDecision{OK: true, Stats: stats}
		return nil
	})
	return dec, err
}

// RegisterUsage increments the daily and lifetime counters and stamps
// the request time. Transactional.
func (db *Database) RegisterUsage(id string) (models.User, error) {
	var out models.User
	err := db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		u.DailyCount++
		u.TotalSearches++
		u.LastReq = nowMillis()
		out = *u
		return nil
	})
	return out, err
}

// GetUsageStats reports the user's counters. Read-only snapshot;
// unknown users report zeroes.
func (db *Database) GetUsageStats(id string) UsageStats {
	var stats UsageStats
	db.View(func(doc *models.Document) {
		if u, ok := doc.Users[id]; ok {
			stats = UsageStats{IsVIP: u.IsVIP, DailyCount: u.DailyCount, TotalSearches: u.TotalSearches}
		}
	})
	return stats
}

// AddWarn adds delta to the warn counter and returns the new total.
// Delta is caller-validated; the stored counter never goes below zero.
// Transactional.
func (db *Database) AddWarn(id string, delta int) (int, error) {
	var warns int
	err := db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		u.Warns += delta
		if u.Warns < 0 {
			u.Warns = 0
		}
		warns = u.Warns
		return nil
	})
	return warns, err
}

// Warns reports the warn counter. Read-only snapshot.
func (db *Database) Warns(id string) int {
	var warns int
	db.View(func(doc *models.Document) {
		if u, ok := doc.Users[id]; ok {
			warns = u.Warns
		}
	})
	return warns
}

// ClearWarns zeroes the warn counter. Transactional; a no-op for
// unknown users.
func (db *Database) ClearWarns(id string) error {
	return db.Update(func(doc *models.Document) error {
		if u, ok := doc.Users[id]; ok {
			u.Warns = 0
		}
		return nil
	})
}

// AddSearchHistory appends an entry to the bounded history ring and
// returns the ring. Transactional.
func (db *Database) AddSearchHistory(id string, entry models.SearchEntry) ([]models.SearchEntry, error) {
	var out []models.SearchEntry
	err := db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		entry.At = nowStamp()
		u.SearchHistory = append(u.SearchHistory, entry)
		if n := len(u.SearchHistory); n > models.MaxSearchHistory {
			u.SearchHistory = u.SearchHistory[n-models.MaxSearchHistory:]
		}
		out = append(out, u.SearchHistory...)
		return nil
	})
	return out, err
}

// SearchHistory returns the user's remembered lookups. Read-only snapshot.
func (db *Database) SearchHistory(id string) []models.SearchEntry {
	var out []models.SearchEntry
	db.View(func(doc *models.Document) {
		if u, ok := doc.Users[id]; ok {
			out = append(out, u.SearchHistory...)
		}
	})
	return out
}

// SetUserCoupon stores the user's pending coupon, replacing any
// previous one. Transactional.
func (db *Database) SetUserCoupon(id string, c models.Coupon) error {
	return db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		u.PendingCoupon = &c
		return nil
	})
}

// UserCoupon reports the pending coupon or nil. Read-only snapshot.
func (db *Database) UserCoupon(id string) *models.Coupon {
	var out *models.Coupon
	db.View(func(doc *models.Document) {
		if u, ok := doc.Users[id]; ok && u.PendingCoupon != nil {
			c := *u.PendingCoupon
			out = &c
		}
	})
	return out
}

// ClearUserCoupon removes the pending coupon. Transactional; a no-op
// for unknown users.
func (db *Database) ClearUserCoupon(id string) error {
	return db.Update(func(doc *models.Document) error {
		if u, ok := doc.Users[id]; ok {
			u.PendingCoupon = nil
		}
		return nil
	})
}

// VIPUsers lists the ids of users with the VIP flag set. Read-only snapshot.
func (db *Database) VIPUsers() []string {
	var out []string
	db.View(func(doc *models.Document) {
		for id, u := range doc.Users {
			if u.IsVIP {
				out = append(out, id)
			}
		}
	})
	sort.Strings(out)
	return out
}

// ClaimDaily grants the fixed daily reputation reward at most once per
// 24h. The check and the grant run in one transaction, so concurrent
// claims yield exactly one success. Transactional.
func (db *Database) ClaimDaily(id string) (ClaimResult, error) {
	var res ClaimResult
	err := db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		now := nowMillis()
		if u.LastDaily != 0 && now-u.LastDaily < dayMillis {
			res = ClaimResult{OK: false, Rep: u.Rep}
			return nil
		}
		u.Rep++
		u.LastDaily = now
		res = ClaimResult{OK: true, Rep: u.Rep}
		return nil
	})
	return res, err
}

// TopRep returns users ordered by reputation, best first. limit <= 0
// returns everyone. Read-only snapshot.
func (db *Database) TopRep(limit int) []RepRank {
	var out []RepRank
	db.View(func(doc *models.Document) {
		for id, u := range doc.Users {
			out = append(out, RepRank{ID: id, Rep: u.Rep})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rep != out[j].Rep {
			return out[i].Rep > out[j].Rep
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopSearches returns users ordered by lifetime search count, highest
// first. Read-only snapshot.
func (db *Database) TopSearches(limit int) []SearchRank {
	var out []SearchRank
	db.View(func(doc *models.Document) {
		for id, u := range doc.Users {
			out = append(out, SearchRank{ID: id, Total: u.TotalSearches})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AddRep applies a signed reputation delta and returns the stored
// value. The persisted balance is clamped at zero; callers that debit
// must pre-check with SpendRep instead. Transactional.
func (db *Database) AddRep(id string, amount int) (int, error) {
	var rep int
	err := db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		u.Rep += amount
		if u.Rep < 0 {
			u.Rep = 0
		}
		rep = u.Rep
		return nil
	})
	return rep, err
}

// SpendRep atomically checks the balance and debits amount. It returns
// ok=false, leaving the balance untouched, when funds are insufficient.
// Transactional.
func (db *Database) SpendRep(id string, amount int) (bool, int, error) {
	var ok bool
	var rep int
	err := db.Update(func(doc *models.Document) error {
		u, _ := ensureUser(doc, id)
		if u.Rep < amount {
			ok, rep = false, u.Rep
			return nil
		}
		u.Rep -= amount
		ok, rep = true, u.Rep
		return nil
	})
	return ok, rep, err
}
