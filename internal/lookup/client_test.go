package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/safebite/safebite/internal/common"
	"github.com/safebite/safebite/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chocolateBody = `{
	"status": 1,
	"product": {
		"product_name": "Dark Chocolate Bar",
		"ingredients": [
			{"text": "cocoa mass"},
			{"text": "sugar"},
			{"text": "milk powder"}
		],
		"allergens_tags": ["en:milk", "en:soybeans"],
		"traces_tags": ["en:peanuts"]
	}
}`

func TestLookupSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/036000291452.json", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(chocolateBody))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})

	product, err := client.Lookup(context.Background(), "036000291452")
	require.NoError(t, err)
	assert.Equal(t, "Dark Chocolate Bar", product.Name)
	assert.Equal(t, []string{"cocoa mass", "sugar", "milk powder", "may contain traces of peanuts"}, product.Ingredients)
	assert.Equal(t, []string{"milk", "soybeans"}, product.DeclaredAllergens)
	assert.Equal(t, model.SourceAPI, product.Source)
}

func TestLookupNotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": 0}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})

	_, err := client.Lookup(context.Background(), "000000000000")
	require.ErrorIs(t, err, common.ErrProductNotFound)
}

func TestLookupNotFoundHTTP(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})

	_, err := client.Lookup(context.Background(), "000000000000")
	require.ErrorIs(t, err, common.ErrProductNotFound)
	// Not-found is terminal, never retried.
	assert.Equal(t, 1, calls)
}

func TestLookupRetriesTransientFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(chocolateBody))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})

	product, err := client.Lookup(context.Background(), "036000291452")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "Dark Chocolate Bar", product.Name)
}

func TestMapProductFallsBackToIngredientsText(t *testing.T) {
	dto := productResponse{Status: 1}
	dto.Product.ProductName = "Trail Mix"
	dto.Product.IngredientsText = "peanuts, raisins , almonds,"

	product := mapProduct("111", dto)
	assert.Equal(t, []string{"peanuts", "raisins", "almonds"}, product.Ingredients)
}

func TestStripLanguagePrefix(t *testing.T) {
	assert.Equal(t, "milk", stripLanguagePrefix("en:milk"))
	assert.Equal(t, "tree nuts", stripLanguagePrefix("en:tree-nuts"))
	assert.Equal(t, "milk", stripLanguagePrefix("milk"))
}
