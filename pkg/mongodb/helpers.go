package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SortAscending creates an ascending sort option
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// SortDescending creates a descending sort option
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

// MaxPageSize caps a single read
const MaxPageSize = 500

// Pagination is a limit/offset window over a sorted result set. A zero Limit
// means no limit.
type Pagination struct {
	Limit  int64
	Offset int64
}

// Normalize drops negative values and caps Limit at MaxPageSize
func (p Pagination) Normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Apply sets skip and limit on opts after normalizing the window
func (p Pagination) Apply(opts *options.FindOptions) *options.FindOptions {
	p = p.Normalize()
	if p.Offset > 0 {
		opts.SetSkip(p.Offset)
	}
	if p.Limit > 0 {
		opts.SetLimit(p.Limit)
	}
	return opts
}

// IsDuplicateKey reports whether err is a unique index violation
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsTransient reports whether err comes from a failure the caller may retry
// unchanged: network loss, timeouts, or a transaction aborted by the server.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("TransientTransactionError") || se.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}
