package trace

import (
	"context"

	"github.com/google/uuid"
)

// ID identifies one span inside a call chain.
// TransactionID is shared by every span of the chain, Level is the nesting depth.
type ID struct {
	TransactionID string
	Level         int
}

// NewID mints the ID of a top-level call.
func NewID() ID {
	return ID{
		TransactionID: createTransactionID(),
		Level:         0,
	}
}

// 取 UUID 前 8 位作为事务号
func createTransactionID() string {
	return uuid.NewString()[:8]
}

// Next returns the ID of a call nested one level deeper.
func (id ID) Next() ID {
	return ID{
		TransactionID: id.TransactionID,
		Level:         id.Level + 1,
	}
}

// IsFirst reports whether id belongs to the outermost call of a request.
func (id ID) IsFirst() bool {
	return id.Level == 0
}

type idKey struct{}

// WithID stores id as the current span of ctx.
func WithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// FromContext returns the ID of the span enclosing ctx, if any.
func FromContext(ctx context.Context) (ID, bool) {
	if ctx == nil {
		return ID{}, false
	}
	id, ok := ctx.Value(idKey{}).(ID)
	return id, ok
}
