package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shdpixel/storefront-client/api"
	"github.com/shdpixel/storefront-client/catalog"
	clienterrors "github.com/shdpixel/storefront-client/internal/errors"
	"github.com/shdpixel/storefront-client/store/storefakes"
)

type testFixture struct {
	service *catalog.Service

	listQueries []string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/", func(w http.ResponseWriter, r *http.Request) {
		f.listQueries = append(f.listQueries, r.URL.RawQuery)
		w.Write([]byte(`[{"id":1,"name":"Keyboard","price":49.99,"stock_quantity":12}]`))
	})
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Product not found"}`))
			return
		}
		w.Write([]byte(`{"id":1,"name":"Keyboard","price":49.99,"stock_quantity":12,"rating":4.5,
			"reviews":[{"id":3,"product_id":1,"rating":5,"comment":"clacky","reviewer_name":"Ada","reviewer_email":"ada@example.com"}]}`))
	})
	mux.HandleFunc("GET /products/{id}/reviews/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":3,"product_id":1,"rating":5,"comment":"clacky","reviewer_name":"Ada","reviewer_email":"ada@example.com"}]`))
	})
	mux.HandleFunc("POST /products/{id}/reviews/", func(w http.ResponseWriter, r *http.Request) {
		var input catalog.ReviewInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		review := catalog.Review{ID: 4, ProductID: 1, Rating: input.Rating, Comment: input.Comment,
			ReviewerName: input.ReviewerName, ReviewerEmail: input.ReviewerEmail}
		_ = json.NewEncoder(w).Encode(review)
	})
	mux.HandleFunc("GET /categories/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"Peripherals"}]`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := api.New(server.URL, storefakes.NewFakeStore())
	require.NoError(t, err)

	service, err := catalog.NewService(client)
	require.NoError(t, err)
	f.service = service
	return f
}

func TestProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("no filters", func(t *testing.T) {
		f := setupTestFixture(t)
		products, err := f.service.Products(ctx, catalog.ListParams{})
		require.NoError(t, err)
		require.Len(t, products, 1)
		require.Equal(t, "Keyboard", products[0].Name)
		require.Equal(t, []string{""}, f.listQueries)
	})

	t.Run("filters become query parameters", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Products(ctx, catalog.ListParams{Search: "key", CategoryID: 2, Skip: 10, Limit: 5})
		require.NoError(t, err)
		require.Equal(t, []string{"category_id=2&limit=5&search=key&skip=10"}, f.listQueries)
	})
}

func TestProduct(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	t.Run("carries embedded reviews", func(t *testing.T) {
		product, err := f.service.Product(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, 4.5, product.Rating)
		require.Len(t, product.Reviews, 1)
		require.Equal(t, "Ada", product.Reviews[0].ReviewerName)
		require.Equal(t, 5, product.Reviews[0].Rating)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.service.Product(ctx, 99)
		require.ErrorIs(t, err, clienterrors.ErrNotFound)
	})
}

func TestReviews(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	t.Run("list", func(t *testing.T) {
		reviews, err := f.service.Reviews(ctx, 1)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		require.Equal(t, "clacky", reviews[0].Comment)
	})

	t.Run("create", func(t *testing.T) {
		review, err := f.service.AddReview(ctx, 1, catalog.ReviewInput{
			Rating:        4,
			Comment:       "solid",
			ReviewerName:  "Grace",
			ReviewerEmail: "grace@example.com",
		})
		require.NoError(t, err)
		require.Equal(t, 4, review.ID)
		require.Equal(t, "Grace", review.ReviewerName)
	})
}

func TestCategories(t *testing.T) {
	f := setupTestFixture(t)
	categories, err := f.service.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.Equal(t, "Peripherals", categories[0].Name)
}
