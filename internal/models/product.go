package models

const (
	// CategoryVIP marks products whose delivery toggles the buyer's VIP flag.
	CategoryVIP = "vip"
	// CategoryCards marks products backed by the sidecar raw-inventory file.
	CategoryCards = "cards"
)

// Product is a storefront item. Stock is an ordered queue of opaque
// deliverable strings, consumed front-first on each sale.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Category string   `json:"category"`
	Stock    []string `json:"stock"`
}

// Investment is one append-only ledger entry; never deleted.
type Investment struct {
	ID        int64          `json:"id"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

// MaxAuditEntries bounds the audit ring buffer.
const MaxAuditEntries = 500

// AuditEntry is one timestamped action string in the audit log.
type AuditEntry struct {
	T string `json:"t"`
	A string `json:"a"`
}
