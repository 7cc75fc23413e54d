package seed

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bazaar_backend/internal/model"
	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/config"
)

func Run(db *gorm.DB, cfg config.SeedConfig) {
	SeedPackages(db)
	SeedSlots(db)
	SeedCategories(db)
	SeedSettings(db)
	if err := SeedAdmin(db, cfg); err != nil {
		log.Printf("Error seeding admin: %v", err)
	}
}

func SeedPackages(db *gorm.DB) {
	packages := []model.SubscriptionPackage{
		{
			Name:          "Starter",
			Description:   "Try the marketplace with a handful of listings",
			DurationWeeks: 2,
			ProductLimit:  3,
			Price:         4.99,
			IsActive:      true,
		},
		{
			Name:          "Seller",
			Description:   "For regular sellers",
			DurationWeeks: 4,
			ProductLimit:  15,
			Price:         14.99,
			IsActive:      true,
			IsPopular:     true,
		},
		{
			Name:          "Shop",
			Description:   "For small shops with a steady catalogue",
			DurationWeeks: 12,
			ProductLimit:  100,
			Price:         49.99,
			IsActive:      true,
		},
	}

	for _, pkg := range packages {
		result := db.Where(model.SubscriptionPackage{Name: pkg.Name}).FirstOrCreate(&pkg)
		if result.Error != nil {
			log.Printf("Error creating package %s: %v", pkg.Name, result.Error)
		}
	}

	log.Println("Subscription packages seeded successfully!")
}

func SeedSlots(db *gorm.DB) {
	maxQty := 10
	slots := []model.ProductSlot{
		{Name: "Single slot", Description: "One extra listing", SlotCount: 1, Price: 1.99, MaxQuantity: &maxQty, IsActive: true},
		{Name: "Five pack", Description: "Five extra listings", SlotCount: 5, Price: 7.99, IsActive: true},
	}

	for _, slot := range slots {
		result := db.Where(model.ProductSlot{Name: slot.Name}).FirstOrCreate(&slot)
		if result.Error != nil {
			log.Printf("Error creating slot %s: %v", slot.Name, result.Error)
		}
	}

	log.Println("Product slots seeded successfully!")
}

func SeedCategories(db *gorm.DB) {
	names := []string{"Electronics", "Fashion", "Home & Garden", "Sports", "Books", "Vehicles", "Other"}

	for _, name := range names {
		category := model.Category{Name: name, Slug: slug.Make(name)}
		result := db.Where(model.Category{Slug: category.Slug}).FirstOrCreate(&category)
		if result.Error != nil {
			log.Printf("Error creating category %s: %v", name, result.Error)
		}
	}

	log.Println("Categories seeded successfully!")
}

// SeedSettings writes the default value of every setting that has no row yet.
func SeedSettings(db *gorm.DB) {
	for key, raw := range service.SettingDefaults() {
		setting := model.SiteSetting{}
		result := db.Where(model.SiteSetting{Key: key}).
			Attrs(model.SiteSetting{Value: datatypes.JSON(raw), UpdatedBy: "seed", UpdatedAt: time.Now().UTC()}).
			FirstOrCreate(&setting)
		if result.Error != nil {
			log.Printf("Error creating setting %s: %v", key, result.Error)
		}
	}

	log.Println("Site settings seeded successfully!")
}

// SeedAdmin creates the configured admin account, or promotes it if it already exists.
func SeedAdmin(db *gorm.DB, cfg config.SeedConfig) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}

	var existing model.Profile
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.IsAdmin() {
			return nil
		}
		return db.Model(&existing).Update("role", model.RoleAdmin).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := model.Profile{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := db.Omit("Products", "Bans").Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Admin account %s created", email)
	return nil
}
