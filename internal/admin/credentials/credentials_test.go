package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	dErrors "numerano/pkg/domain-errors"
)

func TestChecker(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	checker := NewChecker("admin", string(hash))

	t.Run("match", func(t *testing.T) {
		assert.NoError(t, checker.Check("admin", "s3cret"))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.True(t, dErrors.HasCode(checker.Check("admin", "nope"), dErrors.CodeUnauthorized))
	})

	t.Run("wrong username", func(t *testing.T) {
		assert.True(t, dErrors.HasCode(checker.Check("root", "s3cret"), dErrors.CodeUnauthorized))
	})

	t.Run("not configured", func(t *testing.T) {
		err := NewChecker("admin", "").Check("admin", "s3cret")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("malformed hash", func(t *testing.T) {
		err := NewChecker("admin", "not-a-hash").Check("admin", "s3cret")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func TestHash(t *testing.T) {
	hash, err := Hash("s3cret")
	require.NoError(t, err)
	assert.NoError(t, NewChecker("admin", hash).Check("admin", "s3cret"))

	_, err = Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
