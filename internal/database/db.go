package database

import (
	"fmt"

	"maitred/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var DB *gorm.DB

// InitDB initializes the database connection. Dialect is "sqlite3" or
// "postgres"; the DSN is a file path for sqlite.
func InitDB(dialect, dsn string) error {
	var err error
	DB, err = gorm.Open(dialect, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// Migrate creates or updates all tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Restaurant{},
		&models.MenuItem{},
		&models.TableSession{},
		&models.Order{},
		&models.OrderItem{},
	).Error
}

// SeedDemoData inserts a demo restaurant and menu when the database is
// empty, so a fresh install can take orders immediately.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	db.Model(&models.Restaurant{}).Count(&count)
	if count > 0 {
		return nil
	}

	restaurant := models.Restaurant{
		Name:           "The Copper Spoon",
		Personality:    "warm and attentive",
		Tone:           "casual",
		ResponseStyle:  "concise",
		Specialty:      "Seasonal bistro fare; the Caesar Salad and the braised short rib are house favorites.",
		WelcomeMessage: "Welcome to The Copper Spoon! What can I get started for you?",
	}
	if err := db.Create(&restaurant).Error; err != nil {
		return fmt.Errorf("failed to seed restaurant: %w", err)
	}

	menu := []models.MenuItem{
		{RestaurantID: restaurant.ID, Name: "Caesar Salad", Description: "Crisp romaine, parmesan, croutons, house anchovy dressing", Category: "salad", Price: 12.99, Available: true},
		{RestaurantID: restaurant.ID, Name: "Tomato Soup", Description: "Roasted tomato, basil, cream", Category: "appetizer", Price: 8.50, Available: true, DietaryTags: "vegetarian,gluten-free"},
		{RestaurantID: restaurant.ID, Name: "Braised Short Rib", Description: "Beef short rib, garlic mash, red wine jus", Category: "entree", Price: 28.00, Available: true},
		{RestaurantID: restaurant.ID, Name: "Mushroom Risotto", Description: "Arborio rice, wild mushroom, parmesan", Category: "entree", Price: 21.00, Available: true, DietaryTags: "vegetarian"},
		{RestaurantID: restaurant.ID, Name: "Chocolate Torte", Description: "Dark chocolate, almond crust, caramel", Category: "dessert", Price: 9.75, Available: true, DietaryTags: "vegetarian"},
		{RestaurantID: restaurant.ID, Name: "House Lemonade", Description: "Fresh lemon, honey, mint", Category: "beverage", Price: 4.50, Available: true, DietaryTags: "vegan,gluten-free"},
	}
	for i := range menu {
		if err := db.Create(&menu[i]).Error; err != nil {
			return fmt.Errorf("failed to seed menu item %q: %w", menu[i].Name, err)
		}
	}
	return nil
}
