package lookup

import (
	"strings"
	"time"

	"github.com/safebite/safebite/internal/model"
)

// productResponse is the subset of the product database payload we consume.
type productResponse struct {
	Status  int        `json:"status"`
	Product productDTO `json:"product"`
}

type productDTO struct {
	ProductName     string          `json:"product_name"`
	IngredientsText string          `json:"ingredients_text"`
	Ingredients     []ingredientDTO `json:"ingredients"`
	AllergensTags   []string        `json:"allergens_tags"`
	TracesTags      []string        `json:"traces_tags"`
}

type ingredientDTO struct {
	Text string `json:"text"`
}

// mapProduct converts the external payload into the immutable domain type.
// The structured ingredient list is preferred; the free-text field is split
// on commas as a fallback. Trace declarations are folded into the ingredient
// list as advisory phrases so the matcher classifies them as
// cross-contamination.
func mapProduct(barcode string, dto productResponse) *model.Product {
	var ingredients []string
	if len(dto.Product.Ingredients) > 0 {
		for _, ing := range dto.Product.Ingredients {
			text := strings.TrimSpace(ing.Text)
			if text != "" {
				ingredients = append(ingredients, text)
			}
		}
	} else if dto.Product.IngredientsText != "" {
		for _, part := range strings.Split(dto.Product.IngredientsText, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				ingredients = append(ingredients, part)
			}
		}
	}

	for _, trace := range dto.Product.TracesTags {
		if name := stripLanguagePrefix(trace); name != "" {
			ingredients = append(ingredients, "may contain traces of "+name)
		}
	}

	var allergens []string
	for _, tag := range dto.Product.AllergensTags {
		if name := stripLanguagePrefix(tag); name != "" {
			allergens = append(allergens, name)
		}
	}

	return &model.Product{
		Barcode:           barcode,
		Name:              dto.Product.ProductName,
		Ingredients:       ingredients,
		DeclaredAllergens: allergens,
		Source:            model.SourceAPI,
		RetrievedAt:       time.Now().UTC(),
	}
}

// stripLanguagePrefix turns "en:milk" into "milk".
func stripLanguagePrefix(tag string) string {
	if i := strings.Index(tag, ":"); i >= 0 {
		tag = tag[i+1:]
	}
	return strings.ReplaceAll(strings.TrimSpace(tag), "-", " ")
}
