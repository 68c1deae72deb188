package models

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
)

// MenuItem represents a dish on the menu
type MenuItem struct {
	gorm.Model
	RestaurantID uint
	Name         string
	Description  string
	Category     string
	Price        float64
	Available    bool
	DietaryTags  string // comma-separated, e.g. "vegetarian,gluten-free"
	ImageURL     string
}

// MenuCategory represents the category of a menu item
type MenuCategory string

const (
	// Menu categories
	MenuCategoryAppetizer MenuCategory = "appetizer"
	MenuCategoryEntree    MenuCategory = "entree"
	MenuCategorySalad     MenuCategory = "salad"
	MenuCategorySide      MenuCategory = "side"
	MenuCategoryDessert   MenuCategory = "dessert"
	MenuCategoryBeverage  MenuCategory = "beverage"
)

// DietaryTag represents a dietary property of a menu item
type DietaryTag string

const (
	// Common dietary tags
	DietaryVegetarian DietaryTag = "vegetarian"
	DietaryVegan      DietaryTag = "vegan"
	DietaryGlutenFree DietaryTag = "gluten-free"
	DietaryDairyFree  DietaryTag = "dairy-free"
	DietaryNutFree    DietaryTag = "nut-free"
	DietarySpicy      DietaryTag = "spicy"
)

// ValidateMenuItem validates a menu item
func ValidateMenuItem(item *MenuItem) error {
	if item.Name == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.Price <= 0 {
		return fmt.Errorf("menu item price must be greater than 0")
	}
	if item.Category == "" {
		return fmt.Errorf("menu item category is required")
	}
	return nil
}

// TagList returns the item's dietary tags as a slice
func (mi *MenuItem) TagList() []string {
	if mi.DietaryTags == "" {
		return nil
	}
	parts := strings.Split(mi.DietaryTags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// HasTag checks if the item carries a specific dietary tag
func (mi *MenuItem) HasTag(tag string) bool {
	for _, t := range mi.TagList() {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// IsInCategory checks if the item belongs to a specific category
func (mi *MenuItem) IsInCategory(category MenuCategory) bool {
	return mi.Category == string(category)
}
