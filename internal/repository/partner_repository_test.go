package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkx-app/odoo-matchmaker/internal/db"
	apperr "github.com/arkx-app/odoo-matchmaker/internal/errors"
	"github.com/arkx-app/odoo-matchmaker/internal/repository"
)

func TestUnswiped_SetDifference(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	partnerRepo := repository.NewPartnerRepository(gdb)
	matchRepo := repository.NewMatchRepository(gdb)

	for i := 1; i <= 3; i++ {
		p := db.Partner{UserID: uint64(100 + i), Company: "Co", Services: []string{"CRM"}, RateMin: 80, RateMax: 120, Capacity: db.CapacityAvailable}
		require.NoError(t, gdb.Create(&p).Error)
	}

	// client 1 swipes on partner 2; any match row removes the partner from
	// the queue, liked or not
	_, _, err := matchRepo.RecordClientDecision(ctx, 1, 2, false, nil)
	require.NoError(t, err)

	unswiped, err := partnerRepo.Unswiped(ctx, 1)
	require.NoError(t, err)
	require.Len(t, unswiped, 2)
	for _, p := range unswiped {
		assert.NotEqual(t, uint64(2), p.ID)
	}

	// a different client still sees everyone
	all, err := partnerRepo.Unswiped(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPartnerLookups(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewPartnerRepository(gdb)

	p := db.Partner{UserID: 7, Company: "Acme ERP", Services: []string{"Accounting"}, RateMin: 90, RateMax: 140}
	require.NoError(t, gdb.Create(&p).Error)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme ERP", got.Company)

	byUser, err := repo.GetByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byUser.ID)

	_, err = repo.GetByID(ctx, 999)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBriefLatestByClient(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewBriefRepository(gdb)

	first := db.Brief{ClientID: 1, Title: "old", Status: db.BriefActive}
	require.NoError(t, repo.Create(ctx, &first))
	second := db.Brief{ClientID: 1, Title: "new", Status: db.BriefMatching}
	require.NoError(t, repo.Create(ctx, &second))
	archived := db.Brief{ClientID: 1, Title: "gone", Status: db.BriefArchived}
	require.NoError(t, repo.Create(ctx, &archived))

	latest, err := repo.LatestByClient(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.Title)

	_, err = repo.LatestByClient(ctx, 2)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
