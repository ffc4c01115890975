package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.client("A", "a@x.com")

	user, err := f.users.UpdateProfile(ctx, a, "  Ana  ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	user, err = f.users.Profile(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	_, err = f.users.UpdateProfile(ctx, a, "")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	_, err = f.users.UpdateProfile(ctx, a, strings.Repeat("n", 101))
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.client("A", "a@x.com")
	admin := f.admin()
	b := f.booking(a)
	_, err := f.reviews.Create(ctx, a, ReviewInput{Rating: 5, Comment: "nice"})
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteUser(ctx, admin, a.UserID))

	_, err = f.store.Bookings().GetByID(ctx, b.ID)
	assert.Error(t, err)
	reviews, err := f.reviews.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	users, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	assert.Equal(t, 404, errStatus(f.users.DeleteUser(ctx, admin, a.UserID)))
}

func TestDeleteAnotherAdminIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin()

	err := f.users.DeleteUser(ctx, Actor{UserID: "someone-else", IsAdmin: true}, admin.UserID)
	assert.Equal(t, 403, errStatus(err))

	require.NoError(t, f.users.DeleteUser(ctx, admin, admin.UserID), "admins may delete themselves")
}
