package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID             string       `db:"id"`
	FirstName      string       `db:"first_name"`
	LastName       string       `db:"last_name"`
	Email          string       `db:"email"`
	Status         string       `db:"status"`
	HashedPassword string       `db:"hashed_password"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      sql.NullTime `db:"updated_at"`
	DeletedAt      sql.NullTime `db:"deleted_at"`
}
