package services

import (
	"context"
	"fmt"
	"log"

	"github.com/film-bet/blockend/internal/engine"
	"github.com/film-bet/blockend/internal/models"
	"github.com/film-bet/blockend/internal/repository"

	"github.com/google/uuid"
)

// JournalNotifier persists every engine notification as a PoolEvent row so
// external indexers can consume them. Journal failures are logged, never
// propagated: the engine state change is already committed.
type JournalNotifier struct {
	repo *repository.Repository
}

func NewJournalNotifier(repo *repository.Repository) *JournalNotifier {
	return &JournalNotifier{repo: repo}
}

func (n *JournalNotifier) Notify(event engine.Event) {
	row := &models.PoolEvent{
		ID:        uuid.New(),
		EventType: event.EventName(),
	}

	switch e := event.(type) {
	case engine.PoolCreated:
		row.PoolID = int64(e.PoolID)
		row.Detail = fmt.Sprintf("film=%s question=%q end_time=%d", e.FilmID, e.Question, e.EndTime.Unix())
	case engine.BetPlaced:
		row.PoolID = int64(e.PoolID)
		row.WalletAddress = &e.Participant
		amount := int64(e.Amount)
		row.Amount = &amount
		side := "NO"
		if e.Choice {
			side = "YES"
		}
		row.Detail = "side=" + side
	case engine.BetResolved:
		row.PoolID = int64(e.PoolID)
		row.Detail = "outcome=" + string(e.Outcome)
	case engine.WinningsClaimed:
		row.PoolID = int64(e.PoolID)
		row.WalletAddress = &e.Participant
		payout := int64(e.Payout)
		row.Amount = &payout
	case engine.FeeUpdated:
		bps := int64(e.BasisPoints)
		row.Amount = &bps
	case engine.FeesWithdrawn:
		amount := int64(e.Amount)
		row.Amount = &amount
	}

	if err := n.repo.AppendEvent(context.Background(), row); err != nil {
		log.Printf("[JournalNotifier] Failed to journal %s event: %v", event.EventName(), err)
	}
}
