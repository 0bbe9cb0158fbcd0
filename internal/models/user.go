package models

const (
	// DefaultDailyLimit is the searches-per-day cap for regular users.
	DefaultDailyLimit = 10
	// VIPDailyLimit is the cap for VIP users.
	VIPDailyLimit = 50
	// MaxSearchHistory bounds the per-user search history ring.
	MaxSearchHistory = 10
)

// User is a lazily created per-user record keyed by the external
// (Telegram) identifier. Timestamps are unix milliseconds, matching
// the document format the bots have always written.
type User struct {
	Rep           int           `json:"rep"`
	DailyCount    int           `json:"dailyCount"`
	TotalSearches int           `json:"totalSearches,omitempty"`
	LastReq       int64         `json:"lastReq"`
	LastReset     int64         `json:"lastReset"`
	LastDaily     int64         `json:"lastDaily"`
	IsVIP         bool          `json:"isVip"`
	CustomLimit   *int          `json:"customLimit,omitempty"`
	Warns         int           `json:"warns,omitempty"`
	SearchHistory []SearchEntry `json:"searchHistory,omitempty"`
	PendingCoupon *Coupon       `json:"pendingCoupon,omitempty"`
}

// SearchEntry is one remembered lookup, oldest evicted first.
type SearchEntry struct {
	Cmd   string `json:"cmd"`
	Query string `json:"query"`
	At    string `json:"t"`
}

// Coupon is a pending discount applied to the user's next purchase.
type Coupon struct {
	Code  string  `json:"code"`
	Type  string  `json:"type"` // "percent" or "amount"
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// DailyLimit resolves the effective searches-per-day cap:
// an explicit override wins, otherwise the VIP or default tier.
func (u *User) DailyLimit() int {
	if u.CustomLimit != nil {
		return *u.CustomLimit
	}
	if u.IsVIP {
		return VIPDailyLimit
	}
	return DefaultDailyLimit
}
