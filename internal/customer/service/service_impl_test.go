package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/soko/internal/clock"
	"github.com/smallbiznis/soko/internal/customer/domain"
	"github.com/smallbiznis/soko/internal/customer/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, node
}

func TestEnsureProfileIdempotent(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	userID := node.Generate()

	first, err := svc.EnsureProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, first.UserID)

	second, err := svc.EnsureProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.EnsureProfile(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestGetProvisionsLazily(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	userID := node.Generate()

	resp, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), resp.UserID)
	assert.Empty(t, resp.PhoneNumber)
	assert.Empty(t, resp.Address)
}

func TestUpdateProfile(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	userID := node.Generate()

	phone := " +254700000001 "
	addr := "12 Riverside Dr"
	resp, err := svc.Update(ctx, userID, domain.UpdateRequest{
		PhoneNumber: &phone,
		Address:     &addr,
	})
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", resp.PhoneNumber)
	assert.Equal(t, "12 Riverside Dr", resp.Address)

	// A partial update leaves the other field alone.
	newAddr := "99 Moi Ave"
	resp, err = svc.Update(ctx, userID, domain.UpdateRequest{Address: &newAddr})
	require.NoError(t, err)
	assert.Equal(t, "+254700000001", resp.PhoneNumber)
	assert.Equal(t, "99 Moi Ave", resp.Address)
}
