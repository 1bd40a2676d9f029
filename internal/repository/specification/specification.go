// Package specification holds the reusable WHERE/ORDER fragments the GORM
// repositories compose. The memory store does not use them.
package specification

import "gorm.io/gorm"

type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// ApplyAll folds specs over db in order.
func ApplyAll(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}
