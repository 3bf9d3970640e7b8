package ingest

import (
	"regexp"
	"strings"
)

// Scraped names carry the product and its noise in one string:
// "John West Tuna In Tomato Sauce 95g" should land in canned food, not
// sauces, and "Arnott's Shapes BBQ" is a biscuit, not barbecue meat.
// Categorization therefore scores every rule set instead of taking the
// first hit: exclusions veto a rule outright, keyword matches score
// 100 plus the keyword length (longer match, more specific), bare
// pattern matches score 50, and each rule adds its priority weight so
// specific product types beat generic descriptor categories.
type categoryRule struct {
	slug     string
	priority int // 0 falls back to defaultPriority
	keywords []string
	patterns []*regexp.Regexp
	exclude  []string
}

const defaultPriority = 50

func rx(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// Descriptor phrases name what a product comes in or tastes like, not
// what it is. They are stripped before a second matching pass so
// "Tuna in Onion Savoury Sauce" can match tuna rules.
var descriptorPatterns = rx(
	`\s+in\s+\w+(\s+\w+)?\s+sauce`,
	`\s+in\s+(tomato|onion|oil|brine|springwater|water)`,
	`\s+with\s+\w+(\s+&\s+\w+)?`,
	`\s+\w+\s+flavou?red?`,
	`\s+style\s+\w+`,
	`\s+\d+\s*(g|ml|l|kg|pk|pack)$`,
)

func primaryProduct(text string) string {
	for _, p := range descriptorPatterns {
		text = p.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

func (r categoryRule) score(text string) int {
	for _, excl := range r.exclude {
		if strings.Contains(text, excl) {
			return 0
		}
	}

	score := 0
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) && score < 100+len(kw) {
			score = 100 + len(kw)
		}
	}
	if score < 50 {
		for _, p := range r.patterns {
			if p.MatchString(text) {
				score = 50
				break
			}
		}
	}
	if score == 0 {
		return 0
	}

	priority := r.priority
	if priority == 0 {
		priority = defaultPriority
	}
	return score + priority
}

func bestMatch(rules []categoryRule, text, primary string) string {
	best := ""
	bestScore := 0
	for _, r := range rules {
		s := r.score(text)
		if s == 0 {
			s = r.score(primary)
		}
		if s > bestScore {
			best = r.slug
			bestScore = s
		}
	}
	return best
}

// CategorizeProduct guesses a category slug for a scraped product name.
// Subcategories are tried first for the most specific match, then the
// parent categories as a fallback. Returns "" when nothing matches.
func CategorizeProduct(name, brand string) string {
	if name == "" {
		return ""
	}
	text := strings.ToLower(strings.TrimSpace(name + " " + brand))
	primary := primaryProduct(text)

	if slug := bestMatch(subcategoryRules, text, primary); slug != "" {
		return slug
	}
	return bestMatch(parentRules, text, primary)
}

// CategorySuggestions lists every parent category a name could belong
// to, most keyword hits first. Used for manual review of ambiguous
// products rather than automated tagging.
func CategorySuggestions(name, brand string) []string {
	if name == "" {
		return nil
	}
	text := strings.ToLower(strings.TrimSpace(name + " " + brand))

	type hit struct {
		slug  string
		count int
	}
	var hits []hit
	for _, r := range parentRules {
		count := 0
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				count++
			}
		}
		for _, p := range r.patterns {
			if p.MatchString(text) {
				count++
			}
		}
		if count > 0 {
			hits = append(hits, hit{r.slug, count})
		}
	}

	// Insertion-stable sort keeps ties in table order.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].count > hits[j-1].count; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	slugs := make([]string, len(hits))
	for i, h := range hits {
		slugs[i] = h.slug
	}
	return slugs
}

// Subcategory rules, most specific product types first. Exclusion
// lists carry the hard-won cases: meat-flavoured snacks, "frozen"
// licensed merchandise, hot dog rolls.
var subcategoryRules = []categoryRule{
	{
		slug:     "canned-food",
		priority: 90,
		keywords: []string{
			"canned tomatoes", "diced tomatoes", "crushed tomatoes",
			"canned tuna", "canned salmon", "baked beans",
			"canned corn", "canned beetroot", "chickpeas", "kidney beans",
			"black beans", "lentils", "spc", "edgell", "heinz beans",
			"john west", "sirena", "safcol", "greenseas",
		},
		patterns: rx(
			`(john west|sirena|safcol|greenseas)\s+\w+`,
			`(canned|tinned)\s+\w+`,
			`\d+g\s*(can|tin)`,
			`(spc|edgell|annalisa).*\d+g`,
			`tuna\s+(in|with)\s+`,
		),
		exclude: []string{"can opener", "tuna steak", "fresh tuna", "sashimi"},
	},
	{
		slug:     "seafood",
		priority: 85,
		keywords: []string{
			"salmon fillet", "salmon portions", "tuna steak", "prawns", "king prawns",
			"tiger prawns", "barramundi", "snapper", "hoki", "flathead", "calamari",
			"squid", "octopus", "mussels", "oyster", "crab", "lobster", "scallop",
			"basa", "dory", "whiting", "trout",
		},
		patterns: rx(
			`seafood`,
			`fish\s+fillet`,
			`(salmon|tuna|prawn|barramundi|snapper|whiting)\s+\d+g`,
			`fresh\s+(salmon|tuna|prawns|fish)`,
		),
		exclude: []string{
			"fish oil", "fish sauce", "fish fingers", "fish crackers", "fish shaped",
			"goldfish", "fish stock", "canned tuna", "tinned",
		},
	},
	{
		slug:     "beef-veal",
		priority: 85,
		keywords: []string{
			"beef", "veal", "steak", "rump", "scotch fillet", "porterhouse", "t-bone",
			"sirloin", "eye fillet", "brisket", "silverside", "corned beef",
		},
		patterns: rx(`beef\s+`, `veal\s+`, `angus`),
		exclude: []string{
			"beef flavour", "beef flavor", "beef stock", "beef broth", "beef noodle",
			"beef jerky", "twisties", "shapes", "chips", "crackers", "biscuit",
			"cup noodle", "instant noodle", "soup mix",
		},
	},
	{
		slug:     "chicken",
		priority: 85,
		keywords: []string{
			"chicken breast", "chicken thigh", "chicken wing", "chicken drumstick",
			"chicken maryland", "chicken tenderloin", "chicken fillet",
			"chicken schnitzel", "whole chicken", "chicken pieces",
		},
		patterns: rx(`chicken\s+(breast|thigh|wing|drum|maryland|tender|fillet|schnitzel)`),
		exclude: []string{
			"chicken salt", "chicken flavour", "chicken flavor", "chicken stock",
			"chicken noodle", "chicken soup", "chicken twisties", "chicken chips",
			"chicken crackers", "chicken seasoning", "rotisserie", "bbq chicken",
		},
	},
	{
		slug:     "pork",
		priority: 85,
		keywords: []string{
			"pork chop", "pork loin", "pork belly", "pork roast", "pork mince",
			"pork steak", "pork fillet", "pork shoulder", "pork ribs", "pork cutlet",
		},
		patterns: rx(`pork\s+(chop|loin|belly|roast|mince|steak|fillet|shoulder|rib|cutlet)`),
		exclude:  []string{"pork crackling", "pork rind", "pork flavour", "pork flavor", "chips", "snack"},
	},
	{
		slug:     "lamb",
		priority: 85,
		keywords: []string{
			"lamb chop", "lamb cutlet", "lamb leg", "lamb roast", "lamb shank",
			"lamb shoulder", "lamb rack", "lamb mince", "lamb loin", "lamb backstrap",
		},
		patterns: rx(`lamb\s+(chop|cutlet|leg|roast|shank|shoulder|rack|mince|loin|backstrap)`),
		exclude:  []string{"lamb flavour", "lamb flavor", "lamb stock", "lamb broth"},
	},
	{
		slug:     "mince-burgers",
		priority: 80,
		keywords: []string{
			"beef mince", "pork mince", "lamb mince", "chicken mince", "turkey mince",
			"burger patty", "beef patty", "patties", "rissole", "rissoles",
		},
		patterns: rx(`(beef|pork|lamb|chicken|turkey)\s+mince`, `mince\s+\d+g`, `burger\s+patty`),
		exclude: []string{
			"burger rings", "burger sauce", "burger seasoning", "burger buns",
			"burger cheese", "mince pie", "fruit mince",
		},
	},
	{
		slug:     "sausages-bbq",
		priority: 80,
		keywords: []string{"sausage", "snag", "bratwurst", "kransky", "frankfurter", "cabanossi", "chipolata"},
		patterns: rx(`sausage`, `bbq\s+meat`, `bbq\s+pack`),
		exclude: []string{
			"shapes", "chips", "pringles", "sauce", "rolls", "buns", "bread",
			"flavour", "flavor", "seasoning", "marinade", "rub", "cracker",
			"biscuit", "crisp", "snack", "ring", "twisties", "water", "sparkling",
		},
	},
	{
		slug:     "milk",
		priority: 70,
		keywords: []string{
			"full cream milk", "skim milk", "lite milk", "lactose free milk",
			"almond milk", "oat milk", "soy milk", "fresh milk", "long life milk",
			"uht milk", "a2 milk",
		},
		patterns: rx(`\d+\s*l(itre)?.*milk`, `milk\s+\d+\s*l`, `(pauls|pura|dairy farmers|devondale).*milk`),
		exclude: []string{
			"milk chocolate", "milky bar", "milky way", "milk biscuit",
			"condensed milk", "evaporated milk", "coconut milk", "milk powder",
		},
	},
	{
		slug:     "cheese",
		priority: 70,
		keywords: []string{
			"cheddar cheese", "tasty cheese", "mozzarella cheese", "parmesan cheese",
			"brie cheese", "camembert", "feta cheese", "haloumi", "cream cheese",
			"cottage cheese", "ricotta", "cheese slices", "cheese block", "shredded cheese",
		},
		patterns: rx(`cheese\s+\d+g`, `cheese\s+slices`, `(bega|kraft|mainland|philadelphia).*cheese`),
		exclude: []string{
			"cheese crackers", "cheese shapes", "cheese twisties", "cheese & onion",
			"cheese flavour", "cheese flavor", "cheese rings", "cheeseburger",
			"mac & cheese", "mac and cheese", "nacho cheese",
		},
	},
	{
		slug:     "yoghurt",
		priority: 70,
		keywords: []string{"yoghurt", "yogurt", "chobani", "yoplait", "activia", "vaalia", "jalna"},
		patterns: rx(`yogh?urt\s+\d+`),
		exclude:  []string{"yoghurt coating", "yoghurt covered", "frozen yoghurt", "frozen yogurt"},
	},
	{
		slug: "eggs",
		keywords: []string{
			"free range eggs", "cage free eggs", "dozen eggs", "barn laid eggs",
			"organic eggs", "large eggs", "extra large eggs", "jumbo eggs",
		},
		patterns: rx(`\d+\s*eggs?\s*(dozen|pk|pack)`, `eggs?\s+\d+\s*pk`, `(farm|barn|free range|cage free).*eggs`),
		exclude: []string{
			"egg noodles", "easter egg", "scotch egg", "egg custard", "chocolate egg",
		},
	},
	{
		slug: "butter-cream",
		keywords: []string{
			"salted butter", "unsalted butter", "spreadable butter", "margarine",
			"thickened cream", "pure cream", "sour cream", "cooking cream", "double cream",
		},
		patterns: rx(`butter\s+\d+g`, `cream\s+\d+ml`, `(devondale|mainland|western star|flora|nuttelex).*butter`),
		exclude: []string{
			"ice cream", "cream biscuit", "cream cheese", "butter chicken",
			"peanut butter", "body butter", "cocoa butter", "cookies & cream",
			"cookies and cream",
		},
	},
	{
		slug:     "soft-drinks",
		priority: 70,
		keywords: []string{
			"coca-cola", "coca cola", "coke", "pepsi", "sprite", "fanta", "solo",
			"sunkist", "schweppes", "lemonade", "soft drink", "kirks", "bundaberg",
		},
		patterns: rx(`(coca|pepsi|sprite|fanta|solo|kirks|schweppes).*\d+\s*(ml|l|pack)`, `soft\s+drink`),
	},
	{
		slug:     "water",
		priority: 70,
		keywords: []string{
			"spring water", "mineral water", "sparkling water", "still water",
			"bottled water", "san pellegrino", "evian", "mount franklin",
		},
		patterns: rx(`water\s+\d+\s*(ml|l|pack)`, `\d+\s*(ml|l).*water`, `(mount franklin|pump|evian|voss)`),
		exclude: []string{
			"coconut water", "rose water", "micellar water", "tonic water", "soda water",
		},
	},
	{
		slug:     "juice",
		priority: 70,
		keywords: []string{
			"orange juice", "apple juice", "fruit juice", "tomato juice",
			"cranberry juice", "pineapple juice", "nudie", "daily juice", "berri",
		},
		patterns: rx(`juice\s+\d+\s*(ml|l)`, `\d+\s*(ml|l).*juice`, `(nudie|berri|golden circle).*juice`),
	},
	{
		slug: "coffee-tea",
		keywords: []string{
			"instant coffee", "ground coffee", "coffee beans", "coffee capsules",
			"coffee pods", "tea bags", "green tea", "herbal tea", "black tea",
			"nescafe", "moccona", "lavazza", "vittoria", "twinings", "lipton",
		},
		patterns: rx(`coffee\s+\d+g`, `tea\s+\d+\s*(bag|pk)`, `(nescafe|moccona|lavazza|vittoria)`),
		exclude:  []string{"iced coffee", "coffee milk"},
	},
	{
		slug:     "energy-drinks",
		keywords: []string{"energy drink", "red bull", "v energy", "mother energy", "monster energy"},
		patterns: rx(`energy\s+drink`, `(red bull|mother|monster|rockstar).*\d+\s*(ml|pack)`),
		exclude:  []string{"energy bar", "energy ball", "energy bites"},
	},
	{
		slug:     "pasta-noodles",
		priority: 70,
		keywords: []string{
			"dried pasta", "spaghetti", "penne", "fettuccine", "linguine", "fusilli",
			"lasagne sheets", "egg noodles", "rice noodles", "ramen noodles", "udon",
			"san remo", "barilla",
		},
		patterns: rx(`pasta\s+\d+g`, `noodles?\s+\d+g`, `(san remo|barilla)`),
		exclude:  []string{"pasta sauce", "pasta bake", "fresh pasta", "pasta salad"},
	},
	{
		slug:     "rice-grains",
		priority: 70,
		keywords: []string{
			"basmati rice", "jasmine rice", "brown rice", "white rice",
			"long grain rice", "arborio rice", "quinoa", "couscous", "pearl barley",
			"sunrice",
		},
		patterns: rx(`rice\s+\d+\s*(g|kg)`, `(sunrice|ben's original|uncle ben)`),
		exclude: []string{
			"rice crackers", "rice cakes", "rice paper", "rice noodles",
			"rice pudding", "rice bran oil", "rice flour",
		},
	},
	{
		slug:     "sauces-condiments",
		priority: 40,
		keywords: []string{
			"tomato sauce", "bbq sauce", "barbecue sauce", "soy sauce",
			"worcestershire", "ketchup", "mustard", "relish", "aioli", "hot sauce",
			"sweet chilli sauce", "sriracha", "tabasco",
		},
		patterns: rx(
			`(tomato|bbq|soy|worcester|chilli|hot|sweet chilli|teriyaki|oyster)\s+sauce\s+\d+`,
			`(heinz|masterfoods|fountain|rosella).*sauce\s+\d+`,
			`ketchup\s+\d+`,
			`mayonnaise\s+\d+`,
		),
		exclude: []string{
			"tuna", "john west", "salmon", "sardine", "mackerel", "anchovies",
			"sirena", "safcol", "greenseas",
			"chicken", "beef", "pork", "lamb",
			"in sauce", "with sauce", "in tomato", "in onion", "in oil", "in brine",
			"in springwater", "with mayonnaise", "with corn", "with chilli",
			"pasta sauce", "simmer sauce", "cooking sauce", "stir fry sauce",
			"curry sauce", "satay sauce", "soup", "casserole",
		},
	},
	{
		slug:     "breakfast-cereals",
		keywords: []string{
			"weet-bix", "weetbix", "cornflakes", "nutri-grain", "muesli", "granola",
			"rolled oats", "porridge", "special k", "coco pops", "all bran",
			"sultana bran",
		},
		patterns: rx(`cereal\s+\d+g`, `breakfast\s+cereal`, `(kellogg|sanitarium|uncle tobys)`),
		exclude:  []string{"cereal bar", "breakfast bar"},
	},
	{
		slug: "cooking-oils",
		keywords: []string{
			"olive oil", "extra virgin olive oil", "vegetable oil", "canola oil",
			"sunflower oil", "coconut oil", "sesame oil",
		},
		patterns: rx(`(olive|vegetable|canola|sunflower|coconut|avocado)\s+oil\s*\d*`),
		exclude:  []string{"oil spray", "fish oil"},
	},
	{
		slug: "spreads-honey",
		keywords: []string{
			"honey", "manuka honey", "jam", "strawberry jam", "apricot jam",
			"peanut butter", "vegemite", "nutella", "hazelnut spread", "marmalade",
			"maple syrup", "golden syrup",
		},
		patterns: rx(`(strawberry|apricot|raspberry)\s+jam`, `(peanut|almond|cashew)\s+butter`, `honey\s+\d+g`),
		exclude:  []string{"honey chicken", "honey soy"},
	},
	{
		slug: "baking-supplies",
		keywords: []string{
			"plain flour", "self raising flour", "caster sugar", "brown sugar",
			"icing sugar", "baking powder", "baking soda", "bicarbonate", "yeast",
			"vanilla essence", "cocoa powder",
		},
		patterns: rx(`(plain|self raising|bread)\s+flour`, `(caster|brown|icing)\s+sugar`, `baking\s+(powder|soda)`),
	},
	{
		slug:     "chips-crisps",
		priority: 70,
		keywords: []string{
			"potato chips", "corn chips", "tortilla chips", "smiths chips", "thins",
			"pringles", "doritos", "kettle chips", "red rock deli", "twisties",
			"cheezels", "burger rings", "cheetos", "grain waves", "cc's", "samboy",
		},
		patterns: rx(`chips\s+\d+g`, `crisps\s+\d+g`, `(smiths|kettle|doritos|pringles|red rock|twisties|cheezels)`),
		exclude:  []string{"fish and chips", "fish & chips", "frozen chips", "oven chips", "hot chips"},
	},
	{
		slug:     "chocolate",
		priority: 70,
		keywords: []string{
			"chocolate block", "chocolate bar", "cadbury", "lindt", "ferrero rocher",
			"mars bar", "snickers", "twix", "kit kat", "toblerone", "maltesers",
			"m&m", "picnic", "crunchie", "cherry ripe", "kinder",
		},
		patterns: rx(`chocolate\s+\d+g`, `(cadbury|lindt|nestle|ferrero).*\d+g`, `choc\s+\d+g`),
		exclude: []string{
			"chocolate milk", "hot chocolate", "chocolate spread", "chocolate sauce",
			"chocolate chip", "chocolate flavour", "chocolate flavor",
		},
	},
	{
		slug:     "biscuits",
		priority: 70,
		keywords: []string{
			"tim tam", "oreo", "arnott's", "arnotts", "shapes", "scotch finger",
			"monte carlo", "shortbread", "anzac biscuit", "digestive", "tiny teddy",
			"iced vovo", "kingston",
		},
		patterns: rx(`biscuit\s+\d+g`, `cookies?\s+\d+g`, `(arnott|tim tam|oreo|shapes)`),
		exclude:  []string{"dog biscuit", "cat biscuit", "pet biscuit"},
	},
	{
		slug: "lollies",
		keywords: []string{
			"lollies", "gummy bears", "jelly beans", "licorice", "allsorts",
			"snakes", "party mix", "sour worms", "skittles", "starburst",
			"minties", "fantales", "redskins",
		},
		patterns: rx(`lollies\s+\d+g`, `candy\s+\d+g`, `(haribo|allen|darrell lea)`),
	},
	{
		slug: "nuts-snacks",
		keywords: []string{
			"roasted peanuts", "salted peanuts", "almonds", "cashews",
			"macadamia nuts", "walnuts", "pistachios", "mixed nuts", "trail mix",
		},
		patterns: rx(`nuts\s+\d+g`, `(roasted|salted|honey)\s+(peanuts|almonds|cashews|macadamia)`),
		exclude:  []string{"coconut", "doughnut", "donut", "hazelnut spread", "nutella"},
	},
	{
		slug: "ice-cream-frozen-desserts",
		keywords: []string{
			"ice cream", "gelato", "sorbet", "frozen yogurt", "magnum", "cornetto",
			"paddle pop", "streets", "peters", "connoisseur", "ben & jerry", "bulla",
			"zooper dooper", "calippo", "gaytime",
		},
		patterns: rx(`ice\s*cream\s+\d+`, `(streets|peters|bulla|connoisseur).*\d+`),
	},
	{
		slug:     "frozen-meals",
		priority: 75,
		keywords: []string{
			"frozen meal", "ready meal", "lean cuisine", "healthy choice",
			"weight watchers meal", "on the menu",
		},
		patterns: rx(`frozen\s+meal`, `ready\s+meal`, `(lean cuisine|healthy choice|on the menu)`),
	},
	{
		slug: "frozen-vegetables",
		keywords: []string{
			"frozen peas", "frozen corn", "frozen vegetables", "frozen beans",
			"frozen spinach", "frozen broccoli", "frozen mixed vegetables",
		},
		patterns: rx(`frozen\s+(pea|corn|veg|bean|spinach|broccoli|carrot)`, `(birds eye|mccain).*vegetables`),
	},
	{
		slug: "frozen-chips-wedges",
		keywords: []string{
			"frozen chips", "oven chips", "potato wedges", "hash browns",
			"potato gems", "steakhouse chips",
		},
		patterns: rx(`frozen\s+chips?`, `oven\s+chips?`, `(mccain|birds eye).*chips`, `hash\s*brown`),
		exclude: []string{
			"cheese & onion", "cheese and onion", "sour cream", "salt & vinegar",
			"chicken", "bbq", "smiths", "thins", "pringles",
		},
	},
	{
		slug:     "frozen-seafood",
		priority: 75,
		keywords: []string{
			"frozen prawns", "frozen fish", "frozen salmon", "fish fingers",
			"crumbed fish", "frozen calamari",
		},
		patterns: rx(`frozen\s+(prawns|fish|salmon|basa|calamari)`, `fish\s+fingers`),
	},
	{
		slug:     "frozen-meat-poultry",
		priority: 75,
		keywords: []string{
			"frozen chicken", "frozen beef", "frozen mince", "frozen sausages",
			"frozen burgers", "chicken nuggets", "chicken tenders",
		},
		patterns: rx(`frozen\s+(chicken|beef|mince|sausage|burger)`, `chicken\s+(nuggets|tenders|strips)`),
	},
	{
		slug:     "frozen-pizza",
		keywords: []string{"frozen pizza", "mccain pizza", "dr oetker pizza", "pizza base"},
		patterns: rx(`frozen\s+pizza`, `(mccain|dr oetker).*pizza`),
		exclude:  []string{"pizza sauce", "pizza seasoning"},
	},
	{
		slug: "frozen-pastry",
		keywords: []string{
			"sausage roll", "meat pie", "party pie", "beef pie", "chicken pie",
			"spring roll", "dim sim", "samosa", "puff pastry", "filo pastry",
		},
		patterns: rx(`(sausage|meat|party|beef|chicken)\s+(roll|pie)`, `(spring roll|dim sim|samosa)\s*\d*`),
	},
	{
		slug:     "bread",
		priority: 70,
		keywords: []string{
			"white bread", "wholemeal bread", "multigrain bread", "sourdough bread",
			"rye bread", "sliced bread", "bread loaf", "tip top bread", "wonder white",
		},
		patterns: rx(`(white|wholemeal|multigrain|sourdough|rye)\s+bread`, `bread\s+\d+g`, `(tip top|helga|wonder white)`),
		exclude:  []string{"bread crumbs", "bread mix"},
	},
	{
		slug: "bread-rolls-wraps",
		keywords: []string{
			"bread rolls", "dinner rolls", "burger buns", "hot dog rolls",
			"hot dog buns", "brioche buns", "tortilla wraps", "pita bread",
			"naan bread", "flatbread", "lebanese bread", "mountain bread",
		},
		patterns: rx(`(bread|dinner|burger|hot dog)\s+(roll|bun)`, `(tortilla|pita|naan|flatbread)\s*\d*`),
		exclude:  []string{"sausage roll", "spring roll"},
	},
	{
		slug: "fresh-fruit",
		keywords: []string{
			"fresh apple", "fresh banana", "fresh orange", "fresh grapes",
			"fresh strawberries", "fresh mango", "watermelon", "rockmelon",
			"honeydew", "nectarine", "fresh avocado", "passionfruit",
			"pink lady apple", "granny smith", "royal gala",
		},
		patterns: rx(`fresh\s+(apple|banana|orange|grape|strawberr|mango|pear)`, `australian\s+(mango|peach|grape|apple)`, `(gala|fuji|pink lady)\s+apple`),
		exclude: []string{
			"apple juice", "banana bread", "orange juice", "dried fruit",
			"fruit bar", "fruit snack", "juice", "cordial", "canned",
		},
	},
	{
		slug: "fresh-vegetables",
		keywords: []string{
			"fresh broccoli", "fresh carrot", "fresh potato", "fresh onion",
			"fresh tomato", "fresh lettuce", "fresh spinach", "fresh cucumber",
			"fresh zucchini", "fresh mushroom", "sweet potato", "loose carrots",
			"loose potatoes",
		},
		patterns: rx(`fresh\s+(broccoli|carrot|potato|onion|tomato|lettuce)`, `baby\s+(spinach|carrots|corn)`, `bunch\s+(celery|asparagus)`),
		exclude:  []string{"frozen", "canned", "tinned", "chips", "sauce", "popcorn", "corn chips"},
	},
	{
		slug:     "salad",
		keywords: []string{"salad mix", "salad bag", "coleslaw mix", "salad kit", "caesar salad", "mixed leaves"},
		patterns: rx(`salad\s+(mix|bag|kit|bowl)`, `mixed\s+leaves`),
		exclude:  []string{"salad dressing", "pasta salad", "potato salad"},
	},
	{
		slug: "herbs-garlic-chillies",
		keywords: []string{
			"fresh basil", "fresh parsley", "fresh coriander", "fresh mint",
			"fresh rosemary", "garlic bulb", "fresh ginger", "fresh chilli",
			"spring onion", "shallot", "lemongrass",
		},
		patterns: rx(`fresh\s+(basil|parsley|coriander|mint|rosemary|thyme|dill|ginger|chilli)`, `garlic\s+bulb`),
		exclude: []string{
			"garlic bread", "garlic sauce", "dried herbs", "ginger beer",
			"ginger ale", "ginger nut", "chilli sauce", "sweet chilli", "chilli con",
		},
	},
	{
		slug: "cold-cuts-salami",
		keywords: []string{
			"sliced ham", "leg ham", "salami", "prosciutto", "pastrami",
			"mortadella", "pepperoni", "ham off the bone", "smoked salmon slices",
		},
		patterns: rx(`sliced\s+(ham|salami|turkey|chicken)`, `(don|primo|hans).*sliced`),
	},
	{
		slug: "dips-spreads",
		keywords: []string{
			"hummus", "tzatziki", "guacamole", "beetroot dip", "french onion dip",
			"basil pesto", "tapenade", "baba ganoush",
		},
		patterns: rx(`(hummus|tzatziki|guacamole|pesto)\s*\d*g`, `(beetroot|french onion|spinach)\s+dip`),
		exclude:  []string{"chip dip", "sauce"},
	},
	{
		slug:     "cooked-meats",
		keywords: []string{"rotisserie chicken", "roast chicken", "bbq chicken", "hot roast"},
		patterns: rx(`(rotisserie|roast|bbq)\s+(chicken|beef|pork|lamb)`),
		exclude:  []string{"roast chicken flavour", "roast beef flavour"},
	},
	{
		slug:     "laundry",
		keywords: []string{"laundry", "washing powder", "fabric softener", "stain remover", "omo", "cold power", "dynamo", "napisan"},
		patterns: rx(`laundry\s+`, `washing\s+powder`),
	},
	{
		slug:     "dishwashing",
		keywords: []string{"dishwashing", "dish soap", "dishwasher tablets", "rinse aid", "finish", "fairy", "morning fresh"},
		patterns: rx(`dishwash`, `dish\s+`),
	},
	{
		slug:     "paper-products",
		keywords: []string{"toilet paper", "paper towel", "tissues", "kleenex", "sorbent", "quilton"},
		patterns: rx(`toilet\s+paper`, `paper\s+towel`),
	},
	{
		slug:     "hair-care",
		keywords: []string{"shampoo", "conditioner", "hair treatment", "hair gel", "hair spray", "pantene", "tresemme"},
		patterns: rx(`shampoo`, `conditioner`),
	},
	{
		slug:     "oral-care",
		keywords: []string{"toothpaste", "toothbrush", "mouthwash", "colgate", "oral-b", "sensodyne", "listerine"},
		patterns: rx(`toothpaste`, `toothbrush`, `mouthwash`),
	},
	{
		slug:     "deodorant",
		keywords: []string{"deodorant", "antiperspirant", "roll on", "rexona", "lynx"},
		patterns: rx(`deodorant`, `antiperspirant`),
	},
	{
		slug:     "baby-food",
		keywords: []string{"baby puree", "baby food pouch", "baby cereal", "baby snacks", "baby rusks"},
		patterns: rx(`baby\s+(puree|food|cereal|snack|rusk)`, `(heinz|rafferty|only organic).*baby`),
	},
	{
		slug:     "baby-formula",
		keywords: []string{"infant formula", "baby formula", "toddler milk", "aptamil", "s26", "karicare"},
		patterns: rx(`(infant|baby|toddler)\s+(formula|milk)`, `(aptamil|s26|karicare)\s*\d*`),
	},
	{
		slug:     "dog-food",
		keywords: []string{"dry dog food", "wet dog food", "dog biscuits", "pedigree", "supercoat"},
		patterns: rx(`(dry|wet)\s+dog\s+food`, `(pedigree|optimum|supercoat|advance|royal canin).*dog`),
	},
	{
		slug:     "cat-food",
		keywords: []string{"dry cat food", "wet cat food", "cat biscuits", "whiskas", "fancy feast"},
		patterns: rx(`(dry|wet)\s+cat\s+food`, `\bcat\s+(food|treats|biscuits)`),
		exclude:  []string{"sardine", "fish", "salmon", "tuna", "ocean"},
	},
	{
		slug:     "pet-treats",
		keywords: []string{"dog treats", "cat treats", "dog chews", "dental sticks", "schmackos", "greenies"},
		patterns: rx(`(dog|cat)\s+(treat|chew|stick)`, `(schmackos|dentastix|greenies)`),
	},
	{
		slug:     "pain-relief",
		keywords: []string{"panadol", "nurofen", "paracetamol", "ibuprofen", "aspirin", "pain relief", "voltaren"},
		patterns: rx(`(panadol|nurofen|paracetamol|ibuprofen|aspirin)\s*\d*`, `pain\s+relief`),
	},
	{
		slug:     "cold-flu",
		keywords: []string{"cold and flu", "cough syrup", "throat lozenges", "strepsils", "vicks", "codral", "lemsip"},
		patterns: rx(`(cold|flu)\s+(tablet|capsule|liquid)`, `(strepsils|vicks|codral|lemsip)`),
	},
}

// Parent category rules, the fallback when no subcategory matches.
// The fruit-veg and meat-seafood exclusion nets are deliberately wide:
// catalogue pages file anything from AirPods to BBQ Shapes under
// grocery headings.
var parentRules = []categoryRule{
	{
		slug:     "fruit-veg",
		priority: 30,
		keywords: []string{
			"broccolini", "beetroot", "zucchini", "capsicum", "cucumber",
			"asparagus", "celery", "leek", "fennel", "bok choy",
			"avocado", "rockmelon", "honeydew", "watermelon", "passionfruit",
			"mandarin", "nectarine", "kiwi", "papaya",
		},
		patterns: rx(
			`australian (mango|peach|grape|apple|orange|strawberr|blueberr|raspberr)`,
			`fresh (lettuce|spinach|kale|cabbage|mushroom|tomato|potato|onion)`,
			`bunch each`,
			`oakleaf|iceberg|cos lettuce`,
			`truss.*tomato|cocktail tomato|cherry tomato`,
			`punnet.*g$`,
			`per 200g|per kg|each$`,
			`woolworths (mushroom|lettuce|onion|potato|tomato|broccoli|carrot)`,
			`coles (kale|lettuce|salad mix|strawberr)`,
		),
		exclude: []string{
			"airpods", "iphone", "ipad", "samsung", "phone", "tablet", "earbuds",
			"headphone", "speaker", "camera",
			"lemonade", "soft drink", "drink", "mineral water", "sparkling",
			"fanta", "sprite", "solo", "schweppes", "coca", "cola", "pepsi",
			"juice", "cordial", "soda", "smoothie", "milk", "ml", "litre",
			"bottle", "can", "pack",
			"popcorn", "corn chips", "tortilla", "chip", "crisps", "pretzels",
			"doritos", "pringles", "thins", "smiths", "cracker", "biscuit",
			"cookie", "shapes", "bar", "dip", "dips",
			"cake", "muffin", "bread", "pastry", "croissant", "tart", "pie",
			"wrap", "wraps",
			"ravioli", "pasta", "risotto", "sausage", "salmon", "beef", "pork",
			"chicken", "lamb", "ham", "bacon", "tuna", "fish", "ricotta",
			"sauce", "paste", "stock", "broth", "seasoning", "dressing", "powder",
			"baked beans", "spc", "john west",
			"frozen", "ice cream", "gelato", "sorbet",
			"yoghurt", "yogurt", "cheese", "pouch",
			"shampoo", "conditioner", "cream", "lotion",
			"dishwashing", "detergent", "cleaning",
			"baby", "infant", "toddler",
			"wine", "beer", "cider", "vodka", "gin",
			"salad kit", "coleslaw", "caesar", "kaleslaw",
		},
	},
	{
		slug:     "meat-seafood",
		priority: 30,
		keywords: []string{
			"chicken breast", "chicken thigh", "beef steak", "lamb chop", "pork chop",
			"beef mince", "lamb mince", "pork mince", "sausage", "bacon rashers",
			"turkey breast", "beef roast", "lamb roast", "pork roast", "lamb cutlet",
			"rump steak", "scotch fillet", "eye fillet", "t-bone", "porterhouse",
			"salmon fillet", "tuna steak", "prawns", "barramundi fillet",
			"fish fillet", "calamari", "octopus", "mussels", "marinara mix",
			"frankfurter", "kransky", "chorizo",
		},
		patterns: rx(`\bkg\b.*meat`, `per\s*kg`, `fresh\s+seafood`),
		exclude: []string{
			"ice cream", "frozen", "dessert", "gelato", "paddle pop", "magnum",
			"crackers", "biscuit", "shapes", "cracker", "chips", "cheetos",
			"twisties", "burger rings", "pringles", "doritos", "thins", "snack",
			"bbq flavour", "bbq flavor", "barbecue flavour", "barbecue flavor",
			"chicken flavour", "chicken flavor", "beef flavour", "beef flavor",
			"noodles", "noodle", "stock", "broth", "soup", "sauce", "flavour",
			"flavor", "seasoning", "marinade", "rub",
			"fish oil", "supplement", "vitamin", "capsules", "tablets",
			"shampoo", "conditioner", "cream", "lotion", "soap",
			"crumpet", "muffin", "rolls", "buns", "bread", "brioche",
			"dog food", "cat food", "pet food", "dog treat", "cat treat",
			"whiskas", "pedigree",
			"peanut", "macadamia", "almond", "cashew", "walnut", "pistachio",
			"mixed nuts",
			"canned", "tinned", "can ",
		},
	},
	{
		slug: "deli",
		keywords: []string{
			"deli", "sliced", "salami", "prosciutto", "pastrami", "mortadella",
			"chorizo", "pepperoni", "kabana", "twiggy", "devon", "olives",
			"antipasto", "hummus", "dip", "tzatziki", "pate",
		},
		patterns: rx(`deli\s+`, `sliced\s+(ham|chicken|turkey|roast)`, `(potato|coleslaw|pasta|lentil) salad`, `tabbouleh`),
	},
	{
		slug:     "dairy-eggs-fridge",
		priority: 30,
		keywords: []string{
			"milk", "cheese", "yoghurt", "yogurt", "butter", "cream", "eggs",
			"custard", "sour cream", "cottage cheese", "ricotta", "feta", "brie",
			"camembert", "cheddar", "parmesan", "mozzarella", "haloumi",
			"cream cheese", "margarine", "kefir",
		},
		patterns: rx(`\bL\b.*milk`, `dairy\s+`, `\begg\b`, `slices?\s*\d+g`),
	},
	{
		slug:     "bakery",
		priority: 25,
		keywords: []string{
			"bread", "loaf", "bread rolls", "burger buns", "hot dog rolls",
			"croissant", "bagel", "english muffin", "cake", "donut", "doughnut",
			"pastry", "tart", "scone", "crumpet", "brioche", "focaccia",
			"sourdough", "wraps", "tortilla", "pita bread", "hot cross bun",
			"banana bread",
		},
		patterns: rx(`bakery\s+`, `sliced\s+bread`, `fresh\s+baked`, `(tip top|abbott|helga|wonder white)`),
		exclude:  []string{"bread crumbs", "breadcrumbs"},
	},
	{
		slug:     "pantry",
		priority: 20,
		keywords: []string{
			"pasta", "spaghetti", "penne", "rice", "noodles", "cereal", "oats",
			"muesli", "granola", "sauce", "tomato paste", "oil", "olive oil",
			"flour", "sugar", "honey", "jam", "peanut butter", "vegemite",
			"nutella", "spread", "canned", "tinned", "beans", "chickpeas",
			"lentils", "tuna", "soup", "stock", "broth", "gravy", "seasoning",
			"spice", "salt", "pepper", "vinegar", "soy sauce", "curry",
			"mayonnaise", "ketchup", "mustard", "relish",
		},
		patterns: rx(
			`cooking\s+`, `baking\s+`, `canned\s+`,
			`diced tomato`, `tomatoes? \d+g`,
			`chick ?peas?`, `bean mix`,
			`cup noodle`,
		),
	},
	{
		slug:     "drinks",
		priority: 20,
		keywords: []string{
			"water", "juice", "soft drink", "soda", "lemonade", "coffee",
			"tea", "cordial", "energy drink", "sports drink", "mineral water",
			"sparkling", "coconut water", "kombucha", "iced tea", "iced coffee",
			"flavoured milk", "up & go", "powerade", "gatorade", "red bull",
		},
		// "cola" needs word boundaries or it matches inside "chocolate"
		patterns: rx(`\bcola\b`, `\bL\b.*drink`, `sparkling\s+`, `mineral\s+`, `liquid breakfast`, `drink \d+ pack`),
	},
	{
		slug:     "freezer",
		priority: 20,
		keywords: []string{
			"ice cream", "gelato", "sorbet", "frozen pizza", "frozen chips",
			"nuggets", "fish fingers", "ice block", "icy pole", "zooper dooper",
			"frozen pies", "sausage rolls", "party pies", "dim sim", "spring rolls",
			"frozen berries", "frozen vegetables", "frozen peas", "frozen meals",
			"waffles",
		},
		patterns: rx(
			`frozen\s+`, `ice\s+cream`,
			`(mixed )?berries \d+g`,
			`samosa|spring roll|dim sim`,
			`french fries|steakhouse fries`,
			`veggie burger|plant.based`,
		),
		exclude: []string{
			"toothbrush", "oral b", "oral-b", "disney",
			"shapes", "arnott", "crackers", "cracker", "vege chips",
		},
	},
	{
		slug:     "snacks-confectionery",
		priority: 25,
		keywords: []string{
			"chocolate", "chips", "crisps", "lollies", "candy", "biscuit",
			"cookie", "cracker", "popcorn", "pretzels", "rice crackers",
			"muesli bar", "protein bar", "snack bar", "tim tam", "shapes",
			"twisties", "doritos", "pringles", "oreo", "m&m", "snickers", "mars",
			"twix", "kit kat", "cadbury", "nestle", "lindt", "gummy", "jelly",
			"licorice", "mints", "chewing gum", "cheezels", "thins", "arnott",
			"ferrero", "kinder", "maltesers", "favourites",
		},
		patterns: rx(
			`cadbury\s+`, `nestle\s+`, `smith`, `red rock`, `snack`, `gift\s+box`,
			`natural (almonds?|cashews?|macadamia|walnut|pistachio)`,
			`(almonds?|cashews?|macadamias?) \d+g`,
			`dried (fig|apricot|mango|apple|cranberr)`,
			`snakes|party mix|lollies`,
			`bbq\s+(shapes|chips|flavour|flavor)`, `barbecue\s+(shapes|chips|flavour)`,
			`(arnott|shapes).*bbq`,
		),
		exclude: []string{"roasted nuts", "salted nuts", "mixed nuts"},
	},
	{
		slug: "international",
		keywords: []string{
			"asian", "mexican", "italian", "indian", "thai", "chinese", "japanese",
			"korean", "taco", "burrito", "enchilada", "salsa", "curry paste",
			"satay", "teriyaki", "miso", "tofu", "wonton", "dumpling", "ramen",
			"udon", "soba", "rice paper", "fish sauce", "sriracha", "kimchi",
		},
		patterns: rx(`asian\s+`, `mexican\s+`, `indian\s+`, `stir\s+fry`),
	},
	{
		slug: "liquor",
		keywords: []string{
			"craft beer", "pale ale", "dry gin", "spiced rum", "white rum",
			"vodka", "whisky", "whiskey", "tequila", "bourbon", "scotch", "brandy",
			"liqueur", "champagne", "prosecco", "sparkling wine", "apple cider",
			"lager", "stout", "cabernet", "shiraz", "chardonnay", "merlot",
			"pinot", "sauvignon", "riesling", "moscato",
			"jack daniel", "johnnie walker", "jim beam", "corona", "heineken",
			"victoria bitter", "coopers", "xxxx gold",
		},
		patterns: rx(
			`\bbeer\b`, `\bwine\b`, `\bgin\b`, `\bale\b`, `\brum\b`,
			`\bcider\b`, `\bspirits?\b`,
			`\d+\s*ml.*alcohol`, `750\s*m(l|illilitre)`,
			`docg|vintage \d{4}`,
		),
		exclude: []string{
			"ginger", "original", "vinegar", "cinnamon", "oats", "porridge",
			"rice", "chips", "crackers", "biscuit", "maple", "whiting", "fish",
			"fillet",
		},
	},
	{
		slug: "beauty",
		keywords: []string{
			"makeup", "cosmetics", "foundation", "mascara", "lipstick",
			"eyeliner", "eyeshadow", "concealer", "nail polish", "perfume",
			"fragrance", "moisturiser", "serum", "face mask", "cleanser",
			"sunscreen", "l'oreal", "loreal", "maybelline", "olay", "neutrogena",
			"garnier", "skincare",
		},
		patterns: rx(`beauty\s+`, `cosmetic`, `face\s+(cream|wash|scrub)`),
	},
	{
		slug: "personal-care",
		keywords: []string{
			"shampoo", "conditioner", "soap", "body wash", "deodorant",
			"toothpaste", "toothbrush", "mouthwash", "razor", "shaving",
			"hair dye", "styling", "hairspray", "lotion", "body lotion",
			"hand cream", "lip balm", "tampon", "sanitary",
		},
		patterns: rx(`shampoo\s+`, `body\s+wash`, `tooth`, `shave foam|replacement cartridge`),
	},
	{
		slug: "health",
		keywords: []string{
			"vitamin", "supplement", "panadol", "nurofen", "aspirin", "allergy",
			"hayfever", "band-aid", "first aid", "pain relief", "antacid",
			"probiotic", "fish oil", "multivitamin", "protein powder",
			"swisse", "blackmores", "cenovis", "omega", "glucosamine",
			"magnesium", "zinc", "melatonin",
		},
		patterns: rx(`vitamin\s+`, `supplement`, `pain\s+relief`, `\d+mg\s+tablet`, `electrolyte`),
	},
	{
		slug: "cleaning-household",
		keywords: []string{
			"detergent", "laundry", "washing", "cleaning", "wipes", "bleach",
			"disinfectant", "air freshener", "surface spray", "glass cleaner",
			"stain remover", "paper towel", "toilet paper", "tissues", "bin bags",
			"dishwashing", "rinse aid", "dishwasher tablets", "sponge", "mop",
			"gloves", "omo", "cold power", "napisan", "vanish", "finish", "fairy",
			"palmolive", "ajax", "dettol", "glen 20", "batteries", "duracell",
			"energizer", "light bulb",
		},
		patterns: rx(`cleaning\s+`, `spray\s+`, `wipes`, `liquid\s+\d`, `oven cleaner|sandwich bag`),
	},
	{
		slug: "baby",
		keywords: []string{
			"nappy", "nappies", "diaper", "formula", "baby food", "baby wipes",
			"baby wash", "baby shampoo", "dummy", "teething", "huggies",
			"aptamil", "s26", "karicare",
		},
		patterns: rx(`baby\s+`, `infant`, `toddler`, `12\+ months`),
	},
	{
		slug: "pet",
		keywords: []string{
			"dog food", "cat food", "pet food", "kitty litter", "cat litter",
			"dog treats", "cat treats", "pet treats", "flea", "worming",
			"bird seed", "fish food", "whiskas", "pedigree", "dine",
			"fancy feast", "royal canin",
		},
		patterns: rx(`pet\s+food`, `dog\s+food`, `dog\s+treat`, `cat\s+food`, `cat\s+treat`),
		exclude:  []string{"chewing gum", "5gum", "gum tropical", "gum peppermint"},
	},
}
