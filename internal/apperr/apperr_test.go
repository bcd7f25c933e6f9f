package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindConflict, KindOf(Conflict("dup")))
	assert.Equal(t, KindAccountLocked, KindOf(AccountLocked("locked")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))

	// Kind survives wrapping.
	wrapped := fmt.Errorf("context: %w", NotFound("missing"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:    400,
		KindInvalidState:  400,
		KindAuth:          401,
		KindAccountLocked: 401,
		KindForbidden:     403,
		KindNotFound:      404,
		KindConflict:      409,
		KindInternal:      500,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind))
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindInternal, "query failed", cause)
	assert.Equal(t, "query failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	plain := Auth("invalid credentials")
	assert.Equal(t, "invalid credentials", plain.Error())
}
