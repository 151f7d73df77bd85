package models

import "time"

// ConductScale is the observed-values marking scale.
type ConductScale string

const (
	// ConductAlwaysObserved (AO).
	ConductAlwaysObserved ConductScale = "AO"
	// ConductSometimesObserved (SO).
	ConductSometimesObserved ConductScale = "SO"
	// ConductRarelyObserved (RO).
	ConductRarelyObserved ConductScale = "RO"
	// ConductNotObserved (NO).
	ConductNotObserved ConductScale = "NO"
)

// Valid reports whether the value is a known scale mark.
func (s ConductScale) Valid() bool {
	switch s {
	case ConductAlwaysObserved, ConductSometimesObserved, ConductRarelyObserved, ConductNotObserved:
		return true
	}
	return false
}

// ConductRating holds the four core-value marks per enrollment and
// quarter. Its lock is independent from the final-grade lock.
type ConductRating struct {
	ID            string       `db:"id" json:"id"`
	EnrollmentID  string       `db:"enrollment_id" json:"enrollment_id"`
	Quarter       int          `db:"quarter" json:"quarter"`
	MakaDiyos     ConductScale `db:"maka_diyos" json:"maka_diyos"`
	Makatao       ConductScale `db:"makatao" json:"makatao"`
	Makakalikasan ConductScale `db:"makakalikasan" json:"makakalikasan"`
	Makabansa     ConductScale `db:"makabansa" json:"makabansa"`
	Remarks       string       `db:"remarks" json:"remarks"`
	LockState     LockState    `db:"lock_state" json:"lock_state"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}
