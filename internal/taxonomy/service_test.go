package taxonomy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sugicreations/sugi-backend/pkg/db/dbtest"
	"github.com/sugicreations/sugi-backend/pkg/db/models"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
)

func newTestService(t *testing.T, kind Kind) (Service, *Repository) {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB(), kind)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestCreateRejectsDuplicateNames(t *testing.T) {
	svc, _ := newTestService(t, Categories)
	ctx := context.Background()

	created, err := svc.Create(ctx, "  Rings ")
	require.NoError(t, err)
	require.Equal(t, "Rings", created.Name)

	_, err = svc.Create(ctx, "rings")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.Create(ctx, "   ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestRename(t *testing.T) {
	svc, _ := newTestService(t, Materials)
	ctx := context.Background()

	gold, err := svc.Create(ctx, "Gold")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Silver")
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, gold.ID, "Rose Gold")
	require.NoError(t, err)
	require.Equal(t, "Rose Gold", renamed.Name)

	_, err = svc.Rename(ctx, gold.ID, "silver")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	// renaming to its own name with different case is allowed
	_, err = svc.Rename(ctx, gold.ID, "ROSE GOLD")
	require.NoError(t, err)

	_, err = svc.Rename(ctx, uuid.New(), "Platinum")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestDeleteRejectsReferencedTerms(t *testing.T) {
	svc, repo := newTestService(t, Categories)
	ctx := context.Background()

	rings, err := svc.Create(ctx, "Rings")
	require.NoError(t, err)
	empty, err := svc.Create(ctx, "Anklets")
	require.NoError(t, err)

	product := models.Product{
		Name:        "Solitaire",
		Description: "A single stone",
		Price:       decimal.NewFromInt(250),
		Stock:       3,
		CategoryID:  rings.ID,
	}
	require.NoError(t, repo.db.Create(&product).Error)

	err = svc.Delete(ctx, rings.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.Get(ctx, rings.ID)
	require.NoError(t, err, "referenced category must survive")

	require.NoError(t, svc.Delete(ctx, empty.ID))
	err = svc.Delete(ctx, empty.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestListOrdersByNameWithCounts(t *testing.T) {
	svc, repo := newTestService(t, Categories)
	ctx := context.Background()

	necklaces, err := svc.Create(ctx, "Necklaces")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Bracelets")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.db.Create(&models.Product{
			Name:        "Chain",
			Description: "Gold chain",
			Price:       decimal.NewFromInt(80),
			CategoryID:  necklaces.ID,
		}).Error)
	}

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Bracelets", rows[0].Name)
	require.EqualValues(t, 0, rows[0].ProductCount)
	require.Equal(t, "Necklaces", rows[1].Name)
	require.EqualValues(t, 2, rows[1].ProductCount)
}

func TestExists(t *testing.T) {
	svc, _ := newTestService(t, Materials)
	ctx := context.Background()

	silver, err := svc.Create(ctx, "Silver")
	require.NoError(t, err)

	ok, err := svc.Exists(ctx, silver.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Exists(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}
