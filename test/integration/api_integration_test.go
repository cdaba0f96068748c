package integration

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"onefine/internal/model"
	"onefine/internal/storefront"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, app *TestApp) *storefront.Client {
	t.Helper()
	client, err := storefront.NewClient(app.Server.URL)
	require.NoError(t, err)
	return client
}

func TestCatalogAPI_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	app := SetupTestApp(t, testDB)
	client := newClient(t, app)
	ctx := context.Background()

	t.Run("Seeding fills an empty store once", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		inserted, err := app.ProductService.SeedDefaults(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, inserted)

		inserted, err = app.ProductService.SeedDefaults(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)

		products, err := client.ListProducts(ctx)
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "Custom Name Insulated Bottle", products[0].Name)
		assert.Equal(t, "Executive Corporate Gift Set", products[1].Name)
		assert.Equal(t, "Premium Desk Essentials Kit", products[2].Name)
	})

	t.Run("Concurrent seeding inserts defaults exactly once", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := app.ProductService.SeedDefaults(ctx)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		products, err := client.ListProducts(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 3)
	})

	t.Run("Empty store lists an empty array", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		resp, err := http.Get(app.Server.URL + "/api/products")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "[]", strings.TrimSpace(string(body)))
	})

	t.Run("Wrong password is rejected", func(t *testing.T) {
		_, err := client.Login(ctx, "nope")

		var apiErr *storefront.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, "Incorrect password", apiErr.Message)
	})

	t.Run("Admin lifecycle through the cache", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		session, err := client.Login(ctx, adminPassword)
		require.NoError(t, err)
		token := session.Token

		cache := storefront.NewCache(client)
		_, err = cache.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, cache.Products())

		rating := 9
		first, err := cache.AddProduct(ctx, token, model.ProductInput{Name: "  Mug ", Price: "Rs. 500", Rating: &rating})
		require.NoError(t, err)
		assert.Equal(t, "Mug", first.Name)
		assert.Equal(t, model.MaxRating, first.Rating)

		second, err := cache.AddProduct(ctx, token, model.ProductInput{Name: "Pen", Price: "Rs. 90"})
		require.NoError(t, err)
		assert.Equal(t, model.DefaultRating, second.Rating)

		price := "Rs. 450"
		updated, err := cache.UpdateProduct(ctx, token, first.ID, model.ProductPatch{Price: &price})
		require.NoError(t, err)
		assert.Equal(t, "Mug", updated.Name)
		assert.Equal(t, "Rs. 450", updated.Price)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

		local := cache.Products()
		require.Len(t, local, 2)
		assert.Equal(t, second.ID, local[0].ID)
		assert.Equal(t, "Rs. 450", local[1].Price)

		// The local view matches a fresh fetch
		remote, err := client.ListProducts(ctx)
		require.NoError(t, err)
		require.Len(t, remote, 2)
		assert.Equal(t, local[0].ID, remote[0].ID)
		assert.Equal(t, local[1].Price, remote[1].Price)

		require.NoError(t, cache.DeleteProduct(ctx, token, first.ID))
		assert.Len(t, cache.Products(), 1)

		err = cache.DeleteProduct(ctx, token, first.ID)
		var apiErr *storefront.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, "Product not found", apiErr.Message)
	})

	t.Run("Malformed id is not found", func(t *testing.T) {
		session, err := client.Login(ctx, adminPassword)
		require.NoError(t, err)

		name := "X"
		_, err = client.UpdateProduct(ctx, session.Token, "not-a-uuid", model.ProductPatch{Name: &name})

		var apiErr *storefront.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	})

	t.Run("Mutations without a token change nothing", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		_, err := client.CreateProduct(ctx, "", model.ProductInput{Name: "Ghost", Price: "Rs. 1"})
		assert.True(t, storefront.IsUnauthorised(err))

		_, err = client.CreateProduct(ctx, "forged.token.value", model.ProductInput{Name: "Ghost", Price: "Rs. 1"})
		var apiErr *storefront.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Invalid or expired token", apiErr.Message)

		products, err := client.ListProducts(ctx)
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("Validation errors", func(t *testing.T) {
		session, err := client.Login(ctx, adminPassword)
		require.NoError(t, err)

		_, err = client.CreateProduct(ctx, session.Token, model.ProductInput{Name: "   ", Price: "Rs. 1"})

		var apiErr *storefront.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, model.ErrCodeValidation, apiErr.Code)
	})

	t.Run("Upload is stored and served", func(t *testing.T) {
		session, err := client.Login(ctx, adminPassword)
		require.NoError(t, err)

		url, err := client.UploadImage(ctx, session.Token, "my photo!.png", strings.NewReader("png-bytes"))
		require.NoError(t, err)
		assert.Regexp(t, `^/uploads/\d+-my_photo_\.png$`, url)

		stored, err := os.ReadFile(filepath.Join(app.UploadDir, strings.TrimPrefix(url, "/uploads/")))
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(stored))

		resp, err := http.Get(client.ResolveURL(url))
		require.NoError(t, err)
		defer resp.Body.Close()
		served, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "png-bytes", string(served))
	})
}
