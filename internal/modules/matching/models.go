package matching

import (
	"time"

	"github.com/Subham170/AI-Recruitment-sub000/internal/domain"
)

// MatchEntry is one row of a directional match list. For job-side
// entries the counterpart is a candidate and Status carries the
// application flag; candidate-side entries leave Status empty.
type MatchEntry struct {
	CounterpartID string             `json:"counterpartId"`
	Score         float64            `json:"score"`
	MatchedAt     time.Time          `json:"matchedAt"`
	Status        domain.MatchStatus `json:"status,omitempty"`
}

// EntityVector pairs an entity id with its stored embedding.
type EntityVector struct {
	EntityID string
	Vector   []float64
}
