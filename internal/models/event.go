package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID        string    `bun:"id,pk" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	Date      time.Time `bun:"date,notnull" json:"date"`
	Location  string    `bun:"location" json:"location"`
	Capacity  int       `bun:"capacity,notnull" json:"capacity"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}
