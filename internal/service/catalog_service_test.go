package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogUpsertValidation(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	ctx := context.Background()

	tests := []struct {
		name  string
		in    CatalogEntryInput
		field string
	}{
		{"unknown service", CatalogEntryInput{ServiceType: "drone", PackageType: "basic", Title: "x", Price: 10}, "serviceType"},
		{"unknown package", CatalogEntryInput{ServiceType: "event", PackageType: "gold", Title: "x", Price: 10}, "packageType"},
		{"blank title", CatalogEntryInput{ServiceType: "event", PackageType: "basic", Title: "  ", Price: 10}, "title"},
		{"free", CatalogEntryInput{ServiceType: "event", PackageType: "basic", Title: "Event", Price: 0}, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.Upsert(ctx, admin, tt.in)
			assert.Equal(t, "VALIDATION_FAILED", errCode(err))
			assert.Equal(t, tt.field, errDetails(err)["field"])
		})
	}
}

func TestCatalogListsOnlyOfferedEntries(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	ctx := context.Background()

	shown, err := f.catalog.Upsert(ctx, admin, CatalogEntryInput{ServiceType: "portrait", PackageType: "basic", Title: " Headshots ", Price: 150})
	require.NoError(t, err)
	assert.True(t, shown.Active)
	assert.Equal(t, "Headshots", shown.Title)
	_, err = f.catalog.Upsert(ctx, admin, CatalogEntryInput{ServiceType: "event", PackageType: "premium", Title: "Gala", Price: 2500, Active: ptr(false)})
	require.NoError(t, err)

	offered, err := f.catalog.ListOffered(ctx)
	require.NoError(t, err)
	require.Len(t, offered, 1)
	assert.Equal(t, shown.ID, offered[0].ID)

	all, err := f.catalog.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, f.catalog.Delete(ctx, admin, shown.ID))
	assert.Equal(t, 404, errStatus(f.catalog.Delete(ctx, admin, shown.ID)))
}

func TestBookingPriceFollowsCatalog(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	client := f.client("A", "a@x.com")
	ctx := context.Background()

	_, err := f.catalog.Upsert(ctx, admin, CatalogEntryInput{ServiceType: "maternity", PackageType: "standard", Title: "Maternity", Price: 450})
	require.NoError(t, err)

	input := BookingCreateInput{
		ServiceType: "maternity",
		PackageType: "standard",
		Date:        f.now.Add(14 * 24 * time.Hour),
		Location:    "Cascais",
	}
	b, err := f.bookings.Create(ctx, client, input)
	require.NoError(t, err)
	assert.Equal(t, 450.0, b.Price, "omitted price comes from the catalog")

	input.Price = 450
	_, err = f.bookings.Create(ctx, client, input)
	require.NoError(t, err)

	input.Price = 99
	_, err = f.bookings.Create(ctx, client, input)
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	assert.Equal(t, "price", errDetails(err)["field"])
	assert.EqualValues(t, 450, errDetails(err)["expected"])

	_, err = f.catalog.Upsert(ctx, admin, CatalogEntryInput{ServiceType: "maternity", PackageType: "standard", Title: "Maternity", Price: 450, Active: ptr(false)})
	require.NoError(t, err)
	input.Price = 450
	_, err = f.bookings.Create(ctx, client, input)
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	assert.Equal(t, "packageType", errDetails(err)["field"])

	// pairs missing from the catalog keep the requested price
	input.ServiceType = "commercial"
	input.Price = 700
	b, err = f.bookings.Create(ctx, client, input)
	require.NoError(t, err)
	assert.Equal(t, 700.0, b.Price)

	input.Price = 0
	_, err = f.bookings.Create(ctx, client, input)
	assert.Equal(t, "price", errDetails(err)["field"])
}
