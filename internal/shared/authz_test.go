package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeOwner(t *testing.T) {
	actor := Identity{UserID: "u-1"}

	require.NoError(t, AuthorizeOwner(actor, "u-1"))
	assert.ErrorIs(t, AuthorizeOwner(actor, "u-2"), ErrForbidden)
	assert.ErrorIs(t, AuthorizeOwner(actor, ""), ErrForbidden)
	assert.ErrorIs(t, AuthorizeOwner(Identity{}, "u-1"), ErrForbidden)
}

func TestAuthorizeClaimedOwner(t *testing.T) {
	actor := Identity{UserID: "u-1"}

	owner, err := AuthorizeClaimedOwner(actor, "")
	require.NoError(t, err)
	assert.Equal(t, "u-1", owner)

	owner, err = AuthorizeClaimedOwner(actor, " u-1 ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", owner)

	_, err = AuthorizeClaimedOwner(actor, "u-2")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = AuthorizeClaimedOwner(Identity{}, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(ErrAlreadyLoggedIn))
	assert.Equal(t, KindValidation, KindOf(Validationf("field %s", "x")))
	assert.Equal(t, KindNotFound, KindOf(errors.Join(errors.New("ctx"), ErrTaskNotFound)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}
