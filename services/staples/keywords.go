package staples

import (
	"strings"

	"trolley-backend/lib/textutil"
)

// exclusionKeywords knocks processed goods out of the fresh-food view.
// Scraped names are messy, so this list is deliberately broad and
// includes brand names that only ever sell processed products. Some
// entries carry a trailing space to dodge substrings ("tea " must not
// exclude "steak").
var exclusionKeywords = []string{
	"frozen", "oven bake", "oven ready", "microwave", "heat & eat", "ready to cook",
	"schnitzel", "nugget", "crumbed", "battered", "coated", "breaded", "kiev",
	"finger", "patty", "pattie", "burger", "ball", "bite", "pop",
	"sauce", "paste", "powder", "seasoning", "stock", "marinade", "rub",
	"flavour", "flavored", "flavoured", "seasoned", "relish", "chutney",
	"birds eye", "mccain", "i&j", "cafe series", "on the menu", "herbert adams",
	"lean cuisine", "healthy choice", "weight watchers", "chiko",
	"canned", "tinned", "preserved", "diced tomato", "peeled tomato", "crushed tomato",
	"whole peeled", "vine ripened tomatoes", "chopped tomato", "tomato puree",
	"ardmona", "leggo's", "mutti",
	"pickle", "pickled", "gherkin", "jarred", "in brine", "in vinegar",
	"always fresh", "gourmet garden",
	"dog", "cat", "pet",
	"chip", "crisp", "noodle", "soup", "pizza", "pie", "pastry", "pasty",
	"spring roll", "dim sim", "dumpling", "quiche", "gozleme", "pastizzi",
	"jelly", "lolly", "lollies", "confectionery", "candy", "chocolate", "gummy",
	"licorice", "liquorice", "sweet", "toffee", "fudge", "fizzer",
	"biscuit", "cookie", "cracker", "cruskits", "salada", "crispbread",
	"sunscreen", "lotion", "spf", "after sun", "candle", "air wick", "essential oil",
	"shampoo", "conditioner", "soap", "body wash", "deodorant", "lip balm", "chapstick",
	"antiperspirant", "lynx", "palmolive", "roll-on",
	"juice", "cordial", "soft drink", "soda", "wine", "beer", "spirits", "cider",
	"energy drink", "celsius", "sparkling", "somersby", "apple cider",
	"nectar", "mineral water", "ice tea", "iced tea", "tea ", "lager", "vodka",
	"fruit drink", "coconut water", "poppers", "powerade", "h2coco", "lipton",
	"yoghurt", "yogurt", "cheese", "milk", "cream", "butter", "ice cream",
	"custard", "weis",
	"canned salmon", "canned tuna", "pink salmon", "ally salmon", "ally pink",
	"cereal", "muesli", "granola", "oats", "porridge",
	"jam", "spread", "peanut butter", "honey", "syrup", "marmalade",
	"baby food", "baby bellies", "organic puffs", "softcorn", "months+", "heinz",
	"cake", "muffin", "bread", "croissant", "danish", "donut", "doughnut", "scone",
	"allen's", "arnott's", "aeroplane", "nestle", "cadbury", "smiths", "pringles",
	"beacon", "baxters", "uncle tobys", "roll-ups", "spc ",
	"seed oil", "grape seed", "olive oil", "cooking oil", "vegetable oil",
	"guacamole", "dip", "hummus", "tzatziki",
	"macaroni", "lasagne", "lasagna", "bolognese", "cottage pie", "pasta bake",
	"ben's original", "uncle bens", "sunrice",
	"corn kernel", "cut bean", "peas and", "champignon", "black & gold",
	"avofresh", "smashed avocado",
	"beak & sons", "bbq beef", "bbq pork", "bbq chicken", "maple bbq",
	"bourbon bbq", "char siu", "teriyaki",
	"prawn cone", "blue wave",
	"bean sprouts", "aussie sprouts", "super sprouts",
	"dried", "dehydrated",
	"minced garlic", "finely minced",
	"xxxx", "smirnoff", "golden circle",
	"connoisseur", "magnum", "peters", "bulla",
}

// stapleConfig describes one staple bucket. Category slugs are
// resolved to ids per request; keywords catch uncategorized offers.
type stapleConfig struct {
	slug          string
	name          string
	icon          string
	categorySlugs []string
	parentSlugs   []string
	keywords      []string
}

// Order matters: the first bucket to claim a product wins, so fruit
// is checked before vegetables and meat before seafood.
var stapleConfigs = []stapleConfig{
	{
		slug:          "fresh-fruit",
		name:          "Fresh Fruit",
		icon:          "🍎",
		categorySlugs: []string{"fresh-fruit"},
		parentSlugs:   []string{"fruit-veg"},
		keywords: []string{
			"fruit", "apple", "banana", "orange", "berry", "grape", "mango",
			"melon", "pear", "peach", "plum", "kiwi", "avocado", "lemon", "lime",
			"mandarin", "pineapple", "watermelon", "strawberry", "blueberry", "raspberry",
		},
	},
	{
		slug:          "fresh-vegetables",
		name:          "Fresh Vegetables",
		icon:          "🥬",
		categorySlugs: []string{"fresh-vegetables", "salad", "herbs-garlic-chillies"},
		parentSlugs:   []string{"fruit-veg"},
		keywords: []string{
			"vegetable", "potato", "onion", "carrot", "tomato", "lettuce",
			"broccoli", "capsicum", "cucumber", "spinach", "mushroom", "zucchini",
			"corn", "bean", "pea", "cauliflower", "celery", "garlic", "ginger",
			"chilli", "cabbage", "pumpkin", "sweet potato", "salad", "herb",
		},
	},
	{
		slug:          "fresh-meat",
		name:          "Meat & Poultry",
		icon:          "🥩",
		categorySlugs: []string{"beef-veal", "chicken", "pork", "lamb", "seafood", "mince-burgers", "sausages-bbq"},
		parentSlugs:   []string{"meat-seafood"},
		keywords: []string{
			"meat", "chicken", "beef", "lamb", "pork", "mince", "steak", "roast",
			"chop", "sausage", "bacon", "thigh", "breast", "wing", "drumstick",
			"fillet", "cutlet", "rump", "scotch",
		},
	},
	{
		slug:          "seafood",
		name:          "Seafood",
		icon:          "🐟",
		categorySlugs: []string{"seafood"},
		parentSlugs:   []string{"meat-seafood"},
		keywords: []string{
			"seafood", "fish", "salmon", "prawn", "shrimp", "barramundi", "tuna",
			"cod", "snapper", "bream", "calamari", "squid", "crab", "lobster",
			"oyster", "mussel",
		},
	},
}

func isExcluded(name string) bool {
	return textutil.MatchName(name, exclusionKeywords)
}

// stapleIDSets maps each bucket slug to the category ids it claims.
type stapleIDSets map[string]map[int64]bool

// categorizeOffer places a special into a staple bucket by category id
// first, falling back to name keywords for uncategorized offers.
func categorizeOffer(name string, categoryID int64, ids stapleIDSets) (string, string, bool) {
	if isExcluded(name) {
		return "", "", false
	}
	nameLower := textutil.NormalizeName(name)
	for _, config := range stapleConfigs {
		if categoryID != 0 && ids[config.slug][categoryID] {
			return config.slug, config.name, true
		}
		for _, keyword := range config.keywords {
			if strings.Contains(nameLower, keyword) {
				return config.slug, config.name, true
			}
		}
	}
	return "", "", false
}

// categorizeName is the keyword-only variant for catalog products.
func categorizeName(name string) (string, string, bool) {
	if isExcluded(name) {
		return "", "", false
	}
	nameLower := textutil.NormalizeName(name)
	for _, config := range stapleConfigs {
		for _, keyword := range config.keywords {
			if strings.Contains(nameLower, keyword) {
				return config.slug, config.name, true
			}
		}
	}
	return "", "", false
}
