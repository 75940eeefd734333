package models

import "time"

// Admin is stored in the admins table.
type Admin struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	GroupID      *string   `db:"group_id" json:"groupId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// AdminFilter captures listing criteria for administrators.
type AdminFilter struct {
	ID      string
	Name    string
	Email   string
	Group   string
	SortBy  string
	Page    int
	PerPage int
}
