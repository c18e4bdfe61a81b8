package models

type MenuItem struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Price       int64  `json:"price" yaml:"price"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	IsAvailable bool   `json:"is_available" yaml:"is_available"`
}

// MenuCategories is the set offered in the admin editor.
var MenuCategories = []string{
	"Main Course",
	"Starters",
	"Drinks",
	"Dessert",
	"Snack",
	"Breakfast",
}

// PublicMenuCategories is the order sections appear on the public menu.
var PublicMenuCategories = []string{
	"Starters",
	"Main Course",
	"Dessert",
	"Drinks",
}

type MenuSection struct {
	Category string      `json:"category"`
	Items    []*MenuItem `json:"items"`
}
