package specification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// UserOwnedBy scopes a query to rows of one account. Every session and
// conversation read goes through it.
type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ByEmail matches case-insensitively; emails are stored lowercased.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", strings.ToLower(strings.TrimSpace(s.Email)))
}

// orderable lists the columns OrderBy accepts. Anything else is ignored.
var orderable = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"expires_at": true,
	"plan_id":    true,
}

type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	if !orderable[s.Field] {
		return db
	}
	if s.Desc {
		return db.Order(s.Field + " DESC")
	}
	return db.Order(s.Field + " ASC")
}
