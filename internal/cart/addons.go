package cart

import (
	"strings"

	"go-pos-terminal/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrUnknownAddon = errors.New("add-on is not offered for this product")

// AddonOption is one entry of an add-on menu.
type AddonOption struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Group string          `json:"group,omitempty"`
}

func option(id, name string, price int64, group string) AddonOption {
	return AddonOption{ID: id, Name: name, Price: decimal.NewFromInt(price), Group: group}
}

var (
	milkTeaAddons = []AddonOption{
		option("pearls", "Pearls", 15, ""),
		option("popping_bobba", "Popping Bobba", 15, ""),
		option("natade_coco", "Natade Coco", 15, ""),
	}
	mealAddons = []AddonOption{
		option("slice_cheese", "Slice Cheese", 15, "Add on"),
		option("rice", "Rice", 20, "Add on"),
		option("egg", "Egg", 20, "Add on"),
		option("beef", "Beef (Shawarma Wrap and Rice)", 25, "Add on"),
		option("bottled_water", "Bottled Water", 20, "Others"),
		option("coke_can", "Coke (can)", 65, "Others"),
	}
	snackAddons = []AddonOption{
		option("cheese_filling", "Cheese", 10, "Add on Filling"),
		option("biscoff_filling", "Biscoff", 25, "Add on Filling"),
		option("nutella_filling", "Nutella", 25, "Add on Filling"),
	}
	burgerAddons = []AddonOption{
		option("slice_cheese_burger", "Slice Cheese", 15, "Extras"),
		option("fried_egg", "Fried Egg", 20, "Extras"),
		option("bacon", "Bacon", 25, "Extras"),
	}
)

var mealCategories = []string{"Solo Meals", "Mugshot Silog", "Mugshot Rice Bowls", "Ala Carte"}

// AddonsFor returns the add-on menu offered with p, or nil when the product
// takes none.
func AddonsFor(p models.Product) []AddonOption {
	category := strings.TrimSpace(p.Category)
	switch {
	case p.Name == "Pancake (Plain)":
		return snackAddons
	case strings.EqualFold(category, "MilkTea Series"):
		return milkTeaAddons
	case strings.EqualFold(category, "Burger"):
		return burgerAddons
	}
	for _, c := range mealCategories {
		if strings.EqualFold(category, c) {
			return mealAddons
		}
	}
	return nil
}

// Selection is an add-on id and how many of it.
type Selection struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// ResolveAddons prices selections against the menu offered with p. Zero
// quantities are dropped.
func ResolveAddons(p models.Product, selections []Selection) (models.Addons, error) {
	offered := AddonsFor(p)
	var out models.Addons
	for _, sel := range selections {
		if sel.Quantity < 0 {
			return nil, errors.Errorf("add-on %q: negative quantity", sel.ID)
		}
		if sel.Quantity == 0 {
			continue
		}
		opt, ok := findOption(offered, sel.ID)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownAddon, "%q", sel.ID)
		}
		out = append(out, models.Addon{ID: opt.ID, Name: opt.Name, Price: opt.Price, Quantity: sel.Quantity})
	}
	return out.Normalize(), nil
}

func findOption(options []AddonOption, id string) (AddonOption, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return AddonOption{}, false
}
