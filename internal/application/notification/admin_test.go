package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/go-rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewAdminResolver_PinnedID(t *testing.T) {
	users := &mockUsers{}
	r := NewAdminResolver("ops1", users)

	got, err := r.AdminID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops1", got)
	users.AssertNotCalled(t, "ListByRole", mock.Anything, mock.Anything)
}

func TestRoleAdmin_NoAdmins(t *testing.T) {
	users := &mockUsers{}
	users.On("ListByRole", mock.Anything, domain.RoleAdmin).Return([]domain.User{}, nil)

	_, err := NewAdminResolver("", users).AdminID(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRoleAdmin_LookupError(t *testing.T) {
	users := &mockUsers{}
	users.On("ListByRole", mock.Anything, domain.RoleAdmin).Return(nil, errors.New("boom"))

	_, err := NewRoleAdmin(users).AdminID(context.Background())
	assert.EqualError(t, err, "boom")
}
