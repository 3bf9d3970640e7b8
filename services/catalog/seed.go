package catalog

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"trolley-backend/internal/db"
)

type seedSubcategory struct {
	Name string
	Slug string
}

type seedCategory struct {
	Name     string
	Slug     string
	Icon     string
	Children []seedSubcategory
}

// The unified category tree every store's listings are mapped onto.
// Follows the Woolworths aisle structure since it is the most granular
// of the four chains.
var seedCategories = []seedCategory{
	{"Fruit & Veg", "fruit-veg", "apple", []seedSubcategory{
		{"Fresh Fruit", "fresh-fruit"},
		{"Fresh Vegetables", "fresh-vegetables"},
		{"Salad", "salad"},
		{"Prepared Vegetables", "prepared-vegetables"},
		{"Organic", "organic-produce"},
		{"Fresh Herbs, Garlic & Chillies", "herbs-garlic-chillies"},
	}},
	{"Poultry, Meat & Seafood", "meat-seafood", "drumstick", []seedSubcategory{
		{"Beef & Veal", "beef-veal"},
		{"Chicken", "chicken"},
		{"Pork", "pork"},
		{"Lamb", "lamb"},
		{"Seafood", "seafood"},
		{"Mince & Burgers", "mince-burgers"},
		{"Sausages & BBQ", "sausages-bbq"},
		{"Turkey & Duck", "turkey-duck"},
	}},
	{"Deli", "deli", "bacon", []seedSubcategory{
		{"Cold Cuts & Salami", "cold-cuts-salami"},
		{"Deli Cheese", "deli-cheese"},
		{"Olives & Antipasto", "olives-antipasto"},
		{"Dips & Spreads", "dips-spreads"},
		{"Cooked Meats", "cooked-meats"},
	}},
	{"Dairy, Eggs & Fridge", "dairy-eggs-fridge", "milk", []seedSubcategory{
		{"Milk", "milk"},
		{"Cheese", "cheese"},
		{"Yoghurt", "yoghurt"},
		{"Eggs", "eggs"},
		{"Butter & Cream", "butter-cream"},
		{"Cream & Custard", "cream-custard"},
		{"Chilled Desserts", "chilled-desserts"},
	}},
	{"Bakery", "bakery", "bread-slice", []seedSubcategory{
		{"Bread", "bread"},
		{"Bread Rolls & Wraps", "bread-rolls-wraps"},
		{"Cakes & Tarts", "cakes-tarts"},
		{"Pastries & Croissants", "pastries-croissants"},
		{"Muffins & Donuts", "muffins-donuts"},
		{"Gluten Free Bakery", "gluten-free-bakery"},
	}},
	{"Pantry", "pantry", "jar", []seedSubcategory{
		{"Pasta & Noodles", "pasta-noodles"},
		{"Rice & Grains", "rice-grains"},
		{"Canned Food", "canned-food"},
		{"Sauces & Condiments", "sauces-condiments"},
		{"Cooking Oils", "cooking-oils"},
		{"Spreads & Honey", "spreads-honey"},
		{"Breakfast Cereals", "breakfast-cereals"},
		{"Baking Supplies", "baking-supplies"},
		{"Herbs & Spices", "herbs-spices"},
	}},
	{"Drinks", "drinks", "glass-water", []seedSubcategory{
		{"Soft Drinks", "soft-drinks"},
		{"Water", "water"},
		{"Juice", "juice"},
		{"Coffee & Tea", "coffee-tea"},
		{"Energy Drinks", "energy-drinks"},
		{"Cordial & Mixers", "cordial-mixers"},
		{"Sports Drinks", "sports-drinks"},
	}},
	{"Freezer", "freezer", "snowflake", []seedSubcategory{
		{"Frozen Meals", "frozen-meals"},
		{"Ice Cream & Frozen Desserts", "ice-cream-frozen-desserts"},
		{"Frozen Vegetables", "frozen-vegetables"},
		{"Frozen Chips & Wedges", "frozen-chips-wedges"},
		{"Frozen Seafood", "frozen-seafood"},
		{"Frozen Meat & Poultry", "frozen-meat-poultry"},
		{"Frozen Pizza", "frozen-pizza"},
		{"Frozen Pastry", "frozen-pastry"},
	}},
	{"Snacks & Confectionery", "snacks-confectionery", "cookie", []seedSubcategory{
		{"Chips & Crisps", "chips-crisps"},
		{"Chocolate", "chocolate"},
		{"Lollies", "lollies"},
		{"Biscuits", "biscuits"},
		{"Nuts & Snacks", "nuts-snacks"},
		{"Popcorn & Pretzels", "popcorn-pretzels"},
		{"Muesli & Snack Bars", "muesli-snack-bars"},
	}},
	{"International Foods", "international", "globe", []seedSubcategory{
		{"Asian", "asian-foods"},
		{"Mexican", "mexican-foods"},
		{"Indian", "indian-foods"},
		{"Italian", "italian-foods"},
		{"Middle Eastern", "middle-eastern-foods"},
		{"European", "european-foods"},
	}},
	{"Beer, Wine & Spirits", "liquor", "wine-glass", []seedSubcategory{
		{"Beer", "beer"},
		{"Wine", "wine"},
		{"Spirits", "spirits"},
		{"Cider", "cider"},
		{"Ready to Drink", "ready-to-drink"},
		{"Non-Alcoholic", "non-alcoholic-drinks"},
	}},
	{"Beauty", "beauty", "sparkles", []seedSubcategory{
		{"Skincare", "skincare"},
		{"Makeup & Cosmetics", "makeup-cosmetics"},
		{"Suncare", "suncare"},
		{"Fragrance", "fragrance"},
		{"Nails", "nails"},
	}},
	{"Personal Care", "personal-care", "hand-sparkles", []seedSubcategory{
		{"Hair Care", "hair-care"},
		{"Body Wash & Soap", "body-wash-soap"},
		{"Deodorant", "deodorant"},
		{"Oral Care", "oral-care"},
		{"Shaving & Hair Removal", "shaving-hair-removal"},
		{"Feminine Care", "feminine-care"},
	}},
	{"Health & Wellness", "health", "heart-pulse", []seedSubcategory{
		{"Vitamins & Supplements", "vitamins-supplements"},
		{"Pain Relief", "pain-relief"},
		{"Cold & Flu", "cold-flu"},
		{"First Aid", "first-aid"},
		{"Digestive Health", "digestive-health"},
	}},
	{"Cleaning & Household", "cleaning-household", "spray-can", []seedSubcategory{
		{"Laundry", "laundry"},
		{"Cleaning Products", "cleaning-products"},
		{"Dishwashing", "dishwashing"},
		{"Paper Products", "paper-products"},
		{"Air Fresheners", "air-fresheners"},
		{"Pest Control", "pest-control"},
		{"Batteries & Electricals", "batteries-electricals"},
	}},
	{"Baby", "baby", "baby", []seedSubcategory{
		{"Nappies & Wipes", "nappies-wipes"},
		{"Baby Food", "baby-food"},
		{"Baby Formula", "baby-formula"},
		{"Baby Care", "baby-care"},
		{"Baby Accessories", "baby-accessories"},
	}},
	{"Pet", "pet", "paw", []seedSubcategory{
		{"Dog Food", "dog-food"},
		{"Cat Food", "cat-food"},
		{"Pet Treats", "pet-treats"},
		{"Pet Care", "pet-care"},
		{"Pet Accessories", "pet-accessories"},
	}},
}

type seedStore struct {
	Name string
	Slug string
}

// All four chains drop their new catalogues on Wednesday.
var seedStores = []seedStore{
	{"Woolworths", "woolworths"},
	{"Coles", "coles"},
	{"ALDI", "aldi"},
	{"IGA", "iga"},
}

type seedProduct struct {
	Name         string
	Size         string
	CategorySlug string
}

// Staples tracked across every store for the basket comparison landing
// page. Deliberately unbranded so store listings of any brand match.
var seedKeyProducts = []seedProduct{
	{"Full Cream Milk", "2L", "milk"},
	{"White Bread", "700g", "bread"},
	{"Free Range Eggs", "12 pack", "eggs"},
	{"Butter", "500g", "butter-cream"},
	{"Tasty Cheese Block", "500g", "cheese"},
	{"Greek Yoghurt", "1kg", "yoghurt"},
	{"Bananas", "1kg", "fresh-fruit"},
	{"Carrots", "1kg", "fresh-vegetables"},
	{"Chicken Breast Fillets", "1kg", "chicken"},
	{"Beef Mince", "500g", "mince-burgers"},
	{"Jasmine Rice", "1kg", "rice-grains"},
	{"Spaghetti", "500g", "pasta-noodles"},
	{"Rolled Oats", "750g", "breakfast-cereals"},
	{"Instant Coffee", "200g", "coffee-tea"},
	{"Toilet Paper", "12 pack", "paper-products"},
	{"Laundry Liquid", "2L", "laundry"},
}

// Seed converges the stores, the category taxonomy and the key product
// set. Rows are matched by slug (or name+size for products) so repeated
// runs are no-ops.
func Seed(ctx context.Context, database *sql.DB) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	qry := db.New(database).WithTx(tx)

	var createdStores, createdCategories, createdProducts int

	for _, store := range seedStores {
		_, err := qry.GetStoreBySlug(ctx, store.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		_, err = qry.CreateStore(ctx, db.CreateStoreParams{
			Name:        store.Name,
			Slug:        store.Slug,
			SpecialsDay: sql.NullString{String: "wednesday", Valid: true},
		})
		if err != nil {
			return err
		}
		createdStores++
	}

	for order, parent := range seedCategories {
		parentRow, err := qry.GetCategoryBySlug(ctx, parent.Slug)
		if errors.Is(err, sql.ErrNoRows) {
			parentRow, err = qry.CreateCategory(ctx, db.CreateCategoryParams{
				Name:         parent.Name,
				Slug:         parent.Slug,
				Icon:         sql.NullString{String: parent.Icon, Valid: true},
				DisplayOrder: int64(order + 1),
			})
			if err != nil {
				return err
			}
			createdCategories++
		} else if err != nil {
			return err
		}

		for childOrder, child := range parent.Children {
			_, err := qry.GetCategoryBySlug(ctx, child.Slug)
			if err == nil {
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			_, err = qry.CreateCategory(ctx, db.CreateCategoryParams{
				Name:         child.Name,
				Slug:         child.Slug,
				ParentID:     sql.NullInt64{Int64: parentRow.ID, Valid: true},
				DisplayOrder: int64(childOrder + 1),
			})
			if err != nil {
				return err
			}
			createdCategories++
		}
	}

	for _, product := range seedKeyProducts {
		_, err := qry.GetProductByNameAndBrand(ctx, db.GetProductByNameAndBrandParams{
			Name: product.Name,
		})
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		var categoryID sql.NullInt64
		category, err := qry.GetCategoryBySlug(ctx, product.CategorySlug)
		if err == nil {
			categoryID = sql.NullInt64{Int64: category.ID, Valid: true}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		_, err = qry.CreateProduct(ctx, db.CreateProductParams{
			Name:         product.Name,
			CategoryID:   categoryID,
			Size:         sql.NullString{String: product.Size, Valid: true},
			IsKeyProduct: true,
		})
		if err != nil {
			return err
		}
		createdProducts++
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if createdStores+createdCategories+createdProducts > 0 {
		slog.Info("seeded catalog",
			"stores", createdStores,
			"categories", createdCategories,
			"products", createdProducts)
	}
	return nil
}
