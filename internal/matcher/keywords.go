package matcher

import "github.com/safebite/safebite/internal/model"

// KeywordTableVersion identifies the built-in keyword table. Bump when the
// table changes so audit output stays reproducible per version.
const KeywordTableVersion = 3

// KeywordSet maps one restriction key to the ingredient terms that imply it.
type KeywordSet struct {
	Key      string
	Category model.RestrictionCategory
	Keywords []string
}

// DefaultKeywordSets returns the built-in keyword table covering the major
// allergens plus common religious and lifestyle restriction keys.
func DefaultKeywordSets() []KeywordSet {
	return []KeywordSet{
		{
			Key:      "milk",
			Category: model.CategoryAllergen,
			Keywords: []string{"milk", "dairy", "lactose", "casein", "caseinate", "whey", "butter", "cheese", "cream", "ghee", "curd", "custard"},
		},
		{
			Key:      "peanuts",
			Category: model.CategoryAllergen,
			Keywords: []string{"peanut", "peanuts", "groundnut", "groundnuts", "arachis"},
		},
		{
			Key:      "tree_nuts",
			Category: model.CategoryAllergen,
			Keywords: []string{"almond", "cashew", "walnut", "pecan", "pistachio", "hazelnut", "macadamia", "brazil nut", "pine nut", "praline", "marzipan"},
		},
		{
			Key:      "eggs",
			Category: model.CategoryAllergen,
			Keywords: []string{"egg", "eggs", "albumin", "albumen", "ovalbumin", "lysozyme", "mayonnaise", "meringue"},
		},
		{
			Key:      "soy",
			Category: model.CategoryAllergen,
			Keywords: []string{"soy", "soya", "soybean", "tofu", "edamame", "tempeh", "miso", "lecithin"},
		},
		{
			Key:      "wheat",
			Category: model.CategoryAllergen,
			Keywords: []string{"wheat", "gluten", "flour", "semolina", "durum", "spelt", "farro", "couscous", "seitan", "malt", "barley", "rye"},
		},
		{
			Key:      "fish",
			Category: model.CategoryAllergen,
			Keywords: []string{"fish", "anchovy", "anchovies", "cod", "salmon", "tuna", "tilapia", "sardine", "fish sauce", "worcestershire"},
		},
		{
			Key:      "shellfish",
			Category: model.CategoryAllergen,
			Keywords: []string{"shrimp", "prawn", "crab", "lobster", "crayfish", "oyster", "mussel", "clam", "scallop", "squid", "mollusc", "mollusk", "crustacean"},
		},
		{
			Key:      "sesame",
			Category: model.CategoryAllergen,
			Keywords: []string{"sesame", "tahini", "benne", "gingelly"},
		},
		{
			Key:      "mustard",
			Category: model.CategoryAllergen,
			Keywords: []string{"mustard"},
		},
		{
			Key:      "sulfites",
			Category: model.CategoryMedical,
			Keywords: []string{"sulfite", "sulphite", "sulfur dioxide", "sulphur dioxide", "metabisulfite", "metabisulphite"},
		},
		{
			Key:      "pork",
			Category: model.CategoryReligious,
			Keywords: []string{"pork", "bacon", "ham", "lard", "prosciutto", "pancetta", "chorizo", "pepperoni"},
		},
		{
			Key:      "beef",
			Category: model.CategoryReligious,
			Keywords: []string{"beef", "tallow", "suet", "oxtail"},
		},
		{
			Key:      "alcohol",
			Category: model.CategoryReligious,
			Keywords: []string{"alcohol", "wine", "beer", "rum", "brandy", "bourbon", "liqueur", "sake", "mirin"},
		},
		{
			Key:      "gelatin",
			Category: model.CategoryReligious,
			Keywords: []string{"gelatin", "gelatine", "collagen", "isinglass"},
		},
		{
			Key:      "meat",
			Category: model.CategoryLifestyle,
			Keywords: []string{"meat", "chicken", "turkey", "duck", "lamb", "veal", "rennet", "broth", "bouillon", "stock", "carmine", "cochineal"},
		},
		{
			Key:      "honey",
			Category: model.CategoryLifestyle,
			Keywords: []string{"honey", "beeswax", "propolis", "royal jelly"},
		},
	}
}
