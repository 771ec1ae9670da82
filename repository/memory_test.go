package repository

import (
	"context"
	"testing"
	"time"

	"storefront-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryCategoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("unique name", func(t *testing.T) {
		repo := NewMemoryCategoryRepository(true)
		require.NoError(t, repo.Create(ctx, &models.Category{Name: "Shoes", Description: "feet"}))
		err := repo.Create(ctx, &models.Category{Name: "Shoes", Description: "again"})
		assert.ErrorIs(t, err, ErrDuplicateKey)
		assert.Equal(t, 1, repo.Count("Shoes"))
	})

	t.Run("without the index duplicates are stored", func(t *testing.T) {
		repo := NewMemoryCategoryRepository(false)
		require.NoError(t, repo.Create(ctx, &models.Category{Name: "Shoes"}))
		require.NoError(t, repo.Create(ctx, &models.Category{Name: "Shoes"}))
		assert.Equal(t, 2, repo.Count("Shoes"))
	})

	t.Run("update and delete", func(t *testing.T) {
		repo := NewMemoryCategoryRepository(true)
		shoes := &models.Category{Name: "Shoes"}
		hats := &models.Category{Name: "Hats"}
		require.NoError(t, repo.Create(ctx, shoes))
		require.NoError(t, repo.Create(ctx, hats))

		assert.ErrorIs(t, repo.Update(ctx, hats.ID, &models.Category{Name: "Shoes"}), ErrDuplicateKey)
		require.NoError(t, repo.Update(ctx, hats.ID, &models.Category{Name: "Caps", Description: "heads"}))
		assert.ErrorIs(t, repo.Update(ctx, primitive.NewObjectID(), &models.Category{Name: "x"}), ErrNotFound)

		all, _ := repo.FindAll(ctx)
		require.Len(t, all, 2)
		assert.Equal(t, "Caps", all[1].Name)

		require.NoError(t, repo.Delete(ctx, shoes.ID))
		assert.ErrorIs(t, repo.Delete(ctx, shoes.ID), ErrNotFound)
		ok, _ := repo.ExistsByName(ctx, "Shoes")
		assert.False(t, ok)
	})
}

func TestMemoryProductRepositoryUpdateKeepsID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProductRepository(true)
	mug := &models.Product{Name: "Mug", Price: 3}
	require.NoError(t, repo.Create(ctx, mug))

	require.NoError(t, repo.Update(ctx, mug.ID, &models.Product{Name: "Cup", Price: 4, Stock: 2}))
	all, _ := repo.FindAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, mug.ID, all[0].ID)
	assert.Equal(t, "Cup", all[0].Name)
	assert.Equal(t, 2.0, all[0].Stock)
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	expires := time.Now().Add(time.Hour)
	user := &models.User{Email: "a@b.c", Username: "ann", Password: "hash", VerificationToken: "tok", TokenExpires: &expires}
	require.NoError(t, repo.Create(ctx, user))
	assert.ErrorIs(t, repo.Create(ctx, &models.User{Email: "a@b.c"}), ErrDuplicateKey)

	found, err := repo.FindByVerificationToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	require.NoError(t, repo.MarkVerified(ctx, user.ID))
	_, err = repo.FindByVerificationToken(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)

	byEmail, err := repo.FindByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.True(t, byEmail.EmailVerified)
	assert.Equal(t, "hash", byEmail.Password)

	all, _ := repo.FindAll(ctx)
	require.Len(t, all, 1)
	assert.Empty(t, all[0].Password)

	taken, _ := repo.ExistsByUsername(ctx, "ann")
	assert.True(t, taken)
}

func TestMemorySubscriberRepositoryPartialUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubscriberRepository()
	s := &models.Subscriber{Name: "Ann", SubscribedToChannel: "golang"}
	require.NoError(t, repo.Create(ctx, s))

	updated, err := repo.Update(ctx, s.ID, map[string]interface{}{"subscribedToChannel": "rust"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.Name)
	assert.Equal(t, "rust", updated.SubscribedToChannel)

	_, err = repo.Update(ctx, primitive.NewObjectID(), map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}
