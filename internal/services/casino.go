package services

import (
	"errors"
	"fmt"

	"github.com/iaguu/axion-central-bot/internal/database"
)

// CasinoWager is the fixed rep cost of one round.
const CasinoWager = 5

var ErrInsufficientRep = errors.New("insufficient rep")

type CasinoGame string

const (
	GameDice     CasinoGame = "dice"
	GameSlots    CasinoGame = "slots"
	GameFootball CasinoGame = "football"
)

type CasinoResult struct {
	Won    bool
	Payout int
	Rep    int
}

type CasinoService struct {
	db *database.Database
}

func NewCasinoService(db *database.Database) *CasinoService {
	return &CasinoService{db: db}
}

// slot machine winning values are the four uniform-symbol reels
var slotWins = map[int]bool{1: true, 22: true, 43: true, 64: true}

func resolve(game CasinoGame, value int) (bool, int) {
	switch game {
	case GameDice:
		return value >= 4, CasinoWager * 2
	case GameSlots:
		return slotWins[value], CasinoWager * 10
	case GameFootball:
		return value >= 3, CasinoWager * 3
	default:
		return false, 0
	}
}

// Wager debits the stake for one round before any roll is made,
// failing with ErrInsufficientRep when the balance cannot cover it.
// The remaining balance is returned either way.
func (s *CasinoService) Wager(userID string) (int, error) {
	ok, rep, err := s.db.SpendRep(userID, CasinoWager)
	if err != nil {
		return 0, err
	}
	if !ok {
		return rep, ErrInsufficientRep
	}
	return rep, nil
}

// Refund returns the stake when the roll never happened.
func (s *CasinoService) Refund(userID string) (int, error) {
	return s.db.AddRep(userID, CasinoWager)
}

// Settle resolves an already-wagered roll and credits any payout.
// rep is the balance Wager left; value is what the animation reported.
func (s *CasinoService) Settle(userID string, game CasinoGame, value, rep int) (CasinoResult, error) {
	won, payout := resolve(game, value)
	if !won {
		s.db.AddLog(fmt.Sprintf("casino %s: %s lost %d rep", game, userID, CasinoWager))
		return CasinoResult{Rep: rep}, nil
	}

	rep, err := s.db.AddRep(userID, payout)
	if err != nil {
		return CasinoResult{Won: true, Payout: payout}, err
	}
	s.db.AddLog(fmt.Sprintf("casino %s: %s won %d rep", game, userID, payout))
	return CasinoResult{Won: true, Payout: payout, Rep: rep}, nil
}
