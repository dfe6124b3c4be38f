package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-1")

	userID, ok := GetUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)
}

func TestGetUserIDMissing(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)
}

func TestUserRolesRoundTrip(t *testing.T) {
	ctx := WithUserRoles(context.Background(), []string{"admin", "user"})

	roles, ok := GetUserRoles(ctx)
	assert.True(t, ok)
	assert.Equal(t, []string{"admin", "user"}, roles)
}
