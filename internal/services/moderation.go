package services

import (
	"regexp"
	"strings"

	"github.com/iaguu/axion-central-bot/internal/database"
)

// MuteThreshold is the warn count at which a spammer gets muted
// instead of warned again.
const MuteThreshold = 3

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)t\.me/\S+`),
	regexp.MustCompile(`(?i)@\w+bot\b`),
	regexp.MustCompile(`(?i)https?://\S+`),
	regexp.MustCompile(`(?i)\bbit\.ly/\S+`),
	regexp.MustCompile(`(?i)\bwhatsapp\b`),
	regexp.MustCompile(`(?i)\bchat\.whatsapp\.com/\S+`),
}

// Verdict is what the group-protection flow decided about a message.
type Verdict struct {
	Spam  bool
	Warns int
	// Mute is set once the sender crosses the warn threshold; the bot
	// should restrict them and the counter resets.
	Mute bool
}

type ModerationService struct {
	db      *database.Database
	allowed []string
}

// NewModerationService builds the anti-spam filter. allowedURLs are
// substrings (own store links, official channels) that bypass the link
// patterns.
func NewModerationService(db *database.Database, allowedURLs []string) *ModerationService {
	return &ModerationService{db: db, allowed: allowedURLs}
}

// IsSpam reports whether the text trips a spam pattern.
func (s *ModerationService) IsSpam(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, allow := range s.allowed {
		if allow != "" && strings.Contains(lower, strings.ToLower(allow)) {
			return false
		}
	}
	for _, re := range spamPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Screen inspects a message and, when it is spam, escalates the
// sender's warn count. Admins are never warned.
func (s *ModerationService) Screen(userID, text string, isAdmin bool) (Verdict, error) {
	if isAdmin || !s.IsSpam(text) {
		return Verdict{}, nil
	}

	warns, err := s.db.AddWarn(userID, 1)
	if err != nil {
		return Verdict{}, err
	}
	v := Verdict{Spam: true, Warns: warns}
	if warns >= MuteThreshold {
		v.Mute = true
		if err := s.db.ClearWarns(userID); err != nil {
			return v, err
		}
	}
	return v, nil
}
