// Package occ implements version-stamped read-modify-write for every
// mutable aggregate. A writer presents the version it last read; the
// store applies the write only while that version is still current and
// bumps it by one in the same statement. Nothing here retries.
package occ

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hotel-ops-backend/internal/apperr"
)

// ErrStale is returned by Apply when no row matched the expected version.
var ErrStale = errors.New("stale version")

// Update describes one compare-and-swap write.
type Update struct {
	// Model is a pointer to a zero value of the row type, used to
	// resolve the table.
	Model any
	// Where identifies the row. Extra predicates (such as the state the
	// caller validated against) may be included.
	Where map[string]any
	// Expected is the version the caller read.
	Expected int64
	// Set holds the columns to assign. "version" is always managed here.
	Set map[string]any
}

// Apply runs u as a single UPDATE ... WHERE version = Expected.
func Apply(tx *gorm.DB, u Update) error {
	set := make(map[string]any, len(u.Set)+1)
	for k, v := range u.Set {
		set[k] = v
	}
	set["version"] = gorm.Expr("version + 1")

	res := tx.Model(u.Model).Where(u.Where).Where("version = ?", u.Expected).Updates(set)
	if res.Error != nil {
		return fmt.Errorf("versioned update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// Verify compares the caller's version with the one just read.
func Verify(entity string, id any, expected, actual int64) error {
	if expected != actual {
		return apperr.OptimisticLock("%s %v is at version %d, caller presented %d; refetch and retry", entity, id, actual, expected)
	}
	return nil
}

// Conflict converts ErrStale into the structured conflict error and passes
// any other error through.
func Conflict(err error, entity string, id any) error {
	if errors.Is(err, ErrStale) {
		return apperr.Wrap(apperr.KindOptimisticLock, err, "%s %v was modified concurrently; refetch and retry", entity, id)
	}
	return err
}
