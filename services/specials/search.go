package specials

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"trolley-backend/internal/db"
)

// searchCategoryMap routes common grocery words to the matching aisle
// so "milk" filters to the milk category instead of matching every
// product with milk in its name.
var searchCategoryMap = map[string]string{
	"sauce":         "sauces-condiments",
	"sauces":        "sauces-condiments",
	"ketchup":       "sauces-condiments",
	"mayonnaise":    "sauces-condiments",
	"mustard":       "sauces-condiments",
	"condiment":     "sauces-condiments",
	"condiments":    "sauces-condiments",
	"chips":         "chips-crisps",
	"crisps":        "chips-crisps",
	"chocolate":     "chocolate",
	"biscuit":       "biscuits",
	"biscuits":      "biscuits",
	"cookie":        "biscuits",
	"cookies":       "biscuits",
	"soft drink":    "soft-drinks",
	"soft drinks":   "soft-drinks",
	"juice":         "juice",
	"water":         "water",
	"coffee":        "coffee-tea",
	"tea":           "coffee-tea",
	"energy drink":  "energy-drinks",
	"energy drinks": "energy-drinks",
	"milk":          "milk",
	"cheese":        "cheese",
	"yoghurt":       "yoghurt",
	"yogurt":        "yoghurt",
	"butter":        "butter-cream",
	"eggs":          "eggs",
	"chicken":       "chicken",
	"beef":          "beef-veal",
	"pork":          "pork",
	"lamb":          "lamb",
	"seafood":       "seafood",
	"sausage":       "sausages-bbq",
	"sausages":      "sausages-bbq",
	"pasta":         "pasta-noodles",
	"noodles":       "pasta-noodles",
	"rice":          "rice-grains",
	"cereal":        "breakfast-cereals",
	"cereals":       "breakfast-cereals",
	"laundry":       "laundry",
	"cleaning":      "cleaning-products",
	"dishwashing":   "dishwashing",
	"dog food":      "dog-food",
	"cat food":      "cat-food",
	"pet food":      "pet",
	"nappies":       "nappies-wipes",
	"baby food":     "baby-food",
	"baby formula":  "baby-formula",
	"shampoo":       "hair-care",
	"deodorant":     "deodorant",
	"toothpaste":    "oral-care",
	"ice cream":     "ice-cream-frozen-desserts",
	"frozen pizza":  "frozen-pizza",
	"frozen meals":  "frozen-meals",
}

// findCategoryForSearch resolves a search term to a category, first via
// the explicit word map, then by fuzzy match on category names and
// slugs. The second return reports whether anything matched.
func (s Service) findCategoryForSearch(ctx context.Context, term string) (db.Category, bool, error) {
	term = strings.ToLower(strings.TrimSpace(term))

	if slug, ok := searchCategoryMap[term]; ok {
		category, err := s.qry.GetCategoryBySlug(ctx, slug)
		if err == nil {
			return category, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return db.Category{}, false, err
		}
	}

	category, err := s.qry.MatchCategory(ctx, db.MatchCategoryParams{
		Name: "%" + term + "%",
		Slug: "%" + strings.ReplaceAll(term, " ", "-") + "%",
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Category{}, false, nil
		}
		return db.Category{}, false, err
	}
	return category, true, nil
}

// categoryFilterIDs expands a parent category into itself plus all of
// its children; leaf categories filter on just their own id.
func (s Service) categoryFilterIDs(ctx context.Context, categoryID int64) ([]int64, error) {
	category, err := s.qry.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []int64{categoryID}, nil
		}
		return nil, err
	}
	return s.expandCategory(ctx, category)
}

func (s Service) expandCategory(ctx context.Context, category db.Category) ([]int64, error) {
	ids := []int64{category.ID}
	if category.ParentID.Valid {
		return ids, nil
	}
	children, err := s.qry.ListChildCategories(ctx, sql.NullInt64{Int64: category.ID, Valid: true})
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		ids = append(ids, child.ID)
	}
	return ids, nil
}

func (s Service) searchCategoryIDs(ctx context.Context, term string) ([]int64, bool, error) {
	category, ok, err := s.findCategoryForSearch(ctx, term)
	if err != nil || !ok {
		return nil, false, err
	}
	ids, err := s.expandCategory(ctx, category)
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}
