package registration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"numerano/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, sentinel.ErrConflict},
		{"insufficient privilege", &pgconn.PgError{Code: "42501"}, sentinel.ErrPermissionDenied},
		{"missing database", &pgconn.PgError{Code: "3D000"}, sentinel.ErrNotFound},
		{"missing table", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "42P01"}), sentinel.ErrNotFound},
		{"connection failure", &pgconn.PgError{Code: "08006"}, sentinel.ErrUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, sentinel.ErrUnavailable},
		{"deadline", context.DeadlineExceeded, sentinel.ErrUnavailable},
		{"check violation", &pgconn.PgError{Code: "23514"}, nil},
		{"anything else", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyWrapsOperation(t *testing.T) {
	err := classify("insert registration", &pgconn.PgError{Code: "42501", Message: "permission denied"})
	assert.ErrorIs(t, err, sentinel.ErrPermissionDenied)
	assert.Contains(t, err.Error(), "insert registration")

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}
