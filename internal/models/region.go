package models

import (
	"time"

	"github.com/google/uuid"
)

// Region is an administrative subdivision referenced by employees.
type Region struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (r Region) String() string {
	return r.Code + " – " + r.Name
}

// RegionRequest is used for region creation/update
type RegionRequest struct {
	Code string `json:"code" validate:"required,regioncode"`
	Name string `json:"name" validate:"required,max=150"`
}
