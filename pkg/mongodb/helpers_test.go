package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestPaginationApply(t *testing.T) {
	tests := []struct {
		name      string
		page      Pagination
		wantSkip  *int64
		wantLimit *int64
	}{
		{name: "zero window reads everything", page: Pagination{}},
		{name: "limit and offset", page: Pagination{Limit: 20, Offset: 40}, wantSkip: ptr(40), wantLimit: ptr(20)},
		{name: "limit is capped", page: Pagination{Limit: 5000}, wantLimit: ptr(MaxPageSize)},
		{name: "negative values are dropped", page: Pagination{Limit: -1, Offset: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.page.Apply(options.Find())
			assert.Equal(t, tt.wantSkip, opts.Skip)
			assert.Equal(t, tt.wantLimit, opts.Limit)
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("duplicate key")))
	require.True(t, IsTransient(context.DeadlineExceeded))
}

func ptr(v int64) *int64 {
	return &v
}
