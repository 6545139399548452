package definition

import (
	"context"
	"errors"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// ErrNotFound is returned when no definition exists for the requested id.
var ErrNotFound = errors.New("definition not found")

// Repository defines persistence operations for alarm definitions. The
// engine treats this as a simple key-value contract: load everything at
// startup, upsert on edit, delete on remove. It never re-derives definitions
// from scheduled events.
type Repository interface {
	List(ctx context.Context) ([]*alarm.Definition, error)
	Get(ctx context.Context, id string) (*alarm.Definition, error)
	Upsert(ctx context.Context, def *alarm.Definition) error
	Delete(ctx context.Context, id string) error
}
