package model

import (
	"time"

	"github.com/google/uuid"
)

type Household struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type HouseholdMember struct {
	UserID          uuid.UUID  `json:"userId"`
	HouseholdID     uuid.UUID  `json:"householdId"`
	JoinedViaInvite *uuid.UUID `json:"joinedViaInvite"`
}

// Invite stores only the digest of the secret handed to the inviter.
type Invite struct {
	ID           uuid.UUID  `json:"id"`
	HouseholdID  uuid.UUID  `json:"householdId"`
	SecretDigest string     `json:"-"`
	CreatedBy    *uuid.UUID `json:"createdBy"`
	ValidUntil   time.Time  `json:"validUntil"`
}
