package models

// Document is the single persisted state shared by every process:
// the three bot front ends and the webhook server all read and write
// this structure through the database package.
type Document struct {
	System      SystemState      `json:"system"`
	Users       map[string]*User `json:"users"`
	Investments []Investment     `json:"investments"`
	Store       []*Product       `json:"store"`
	Orders      []*Order         `json:"orders"`
	Audit       []AuditEntry     `json:"audit"`
}

// SystemState holds singleton settings mutated by admin operations.
type SystemState struct {
	Lockdown  bool    `json:"lockdown"`
	TotalPool float64 `json:"totalPool"`
}

// NewDocument returns the default empty document written on first boot.
func NewDocument() *Document {
	return &Document{
		Users:       make(map[string]*User),
		Investments: []Investment{},
		Store:       []*Product{},
		Orders:      []*Order{},
		Audit:       []AuditEntry{},
	}
}

// Normalize repairs nil collections after unmarshalling documents
// written by older versions or edited by hand.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = make(map[string]*User)
	}
	if d.Investments == nil {
		d.Investments = []Investment{}
	}
	if d.Store == nil {
		d.Store = []*Product{}
	}
	if d.Orders == nil {
		d.Orders = []*Order{}
	}
	if d.Audit == nil {
		d.Audit = []AuditEntry{}
	}
}
