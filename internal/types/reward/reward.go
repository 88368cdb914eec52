package reward

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindLevel Kind = "level"
	KindBadge Kind = "badge"
)

// Reward is an append-only ledger entry. A named badge is awarded to a user
// at most once; level rewards once per crossed threshold.
type Reward struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Kind        Kind      `json:"kind" db:"kind"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	AwardedAt   time.Time `json:"awarded_at" db:"awarded_at"`
}
