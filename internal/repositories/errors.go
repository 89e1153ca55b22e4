package repositories

import (
	"fmt"

	"github.com/desertthunder/foxhole/internal/shared"
)

// StorageError wraps a failed read or write of a persisted entity.
type StorageError struct {
	Op     string // "read", "write", "list", "query"
	Entity string // "channel", "run", "rejection"
	ID     string
	Err    error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets callers match any storage failure against [shared.ErrStorage].
func (e *StorageError) Is(target error) bool { return target == shared.ErrStorage }
