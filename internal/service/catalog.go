package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"bazaar_backend/internal/model"
	"bazaar_backend/pkg/subscription"
)

// Catalog manages what is for sale to sellers: packages, slot add-ons and categories.
type Catalog struct {
	Deps
}

type PackageView struct {
	model.SubscriptionPackage
	Pricing subscription.Pricing `json:"pricing"`
}

type SlotView struct {
	model.ProductSlot
	Pricing subscription.Pricing `json:"pricing"`
}

func validatePackage(p *model.SubscriptionPackage) error {
	v := &ValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		v.Add("name", "name is required")
	}
	if p.DurationWeeks < 1 {
		v.Add("duration_weeks", "duration must be at least one week")
	}
	if p.ProductLimit < 1 {
		v.Add("product_limit", "product limit must be at least 1")
	}
	validatePrice(v, p.Price)
	validateDiscount(v, p.Discount())
	return v.Err()
}

func (s *Catalog) Packages(ctx context.Context, includeInactive bool) ([]PackageView, error) {
	q := s.db(ctx).Order("price ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var packages []model.SubscriptionPackage
	if err := q.Find(&packages).Error; err != nil {
		return nil, fmt.Errorf("could not list packages: %w", err)
	}

	now := s.now()
	views := make([]PackageView, len(packages))
	for i, p := range packages {
		views[i] = PackageView{SubscriptionPackage: p, Pricing: p.Discount().Resolve(now)}
	}
	return views, nil
}

func (s *Catalog) Package(ctx context.Context, id uint) (*model.SubscriptionPackage, error) {
	var pkg model.SubscriptionPackage
	if err := s.db(ctx).First(&pkg, id).Error; err != nil {
		return nil, notFound(err, "package")
	}
	return &pkg, nil
}

// SavePackage creates or updates a package. Marking it popular clears the flag on
// every other package inside the same transaction.
func (s *Catalog) SavePackage(ctx context.Context, pkg *model.SubscriptionPackage) error {
	pkg.Name = strings.TrimSpace(pkg.Name)
	if err := validatePackage(pkg); err != nil {
		return err
	}

	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if pkg.ID != 0 {
			var existing model.SubscriptionPackage
			if err := tx.First(&existing, pkg.ID).Error; err != nil {
				return notFound(err, "package")
			}
			pkg.CreatedAt = existing.CreatedAt
		}
		if pkg.IsPopular {
			if err := tx.Model(&model.SubscriptionPackage{}).
				Where("id <> ? AND is_popular = ?", pkg.ID, true).
				Update("is_popular", false).Error; err != nil {
				return fmt.Errorf("could not clear popular flag: %w", err)
			}
		}
		if err := tx.Save(pkg).Error; err != nil {
			return fmt.Errorf("could not save package: %w", err)
		}
		return nil
	})
}

// DeletePackage soft-deletes; subscriptions sold under it keep resolving it.
func (s *Catalog) DeletePackage(ctx context.Context, id uint) error {
	res := s.db(ctx).Delete(&model.SubscriptionPackage{}, id)
	if res.Error != nil {
		return fmt.Errorf("could not delete package: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("package %w", ErrNotFound)
	}
	return nil
}

func validateSlot(slot *model.ProductSlot) error {
	v := &ValidationError{}
	if strings.TrimSpace(slot.Name) == "" {
		v.Add("name", "name is required")
	}
	if slot.SlotCount < 1 {
		v.Add("slot_count", "slot count must be at least 1")
	}
	if slot.MaxQuantity != nil && *slot.MaxQuantity < 1 {
		v.Add("max_quantity", "max quantity must be at least 1")
	}
	validatePrice(v, slot.Price)
	validateDiscount(v, slot.Discount())
	return v.Err()
}

func (s *Catalog) Slots(ctx context.Context, includeInactive bool) ([]SlotView, error) {
	q := s.db(ctx).Order("slot_count ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var slots []model.ProductSlot
	if err := q.Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("could not list slots: %w", err)
	}

	now := s.now()
	views := make([]SlotView, len(slots))
	for i, sl := range slots {
		views[i] = SlotView{ProductSlot: sl, Pricing: sl.Discount().Resolve(now)}
	}
	return views, nil
}

func (s *Catalog) SaveSlot(ctx context.Context, slot *model.ProductSlot) error {
	slot.Name = strings.TrimSpace(slot.Name)
	if err := validateSlot(slot); err != nil {
		return err
	}
	db := s.db(ctx)
	if slot.ID != 0 {
		var existing model.ProductSlot
		if err := db.First(&existing, slot.ID).Error; err != nil {
			return notFound(err, "slot")
		}
		slot.CreatedAt = existing.CreatedAt
	}
	if err := db.Save(slot).Error; err != nil {
		return fmt.Errorf("could not save slot: %w", err)
	}
	return nil
}

func (s *Catalog) DeleteSlot(ctx context.Context, id uint) error {
	res := s.db(ctx).Delete(&model.ProductSlot{}, id)
	if res.Error != nil {
		return fmt.Errorf("could not delete slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("slot %w", ErrNotFound)
	}
	return nil
}

func (s *Catalog) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := s.db(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	return categories, nil
}

func (s *Catalog) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	category := model.Category{Name: name, Slug: slug.Make(name)}
	if category.Slug == "" {
		return nil, invalid("name", "name must contain letters or digits")
	}

	db := s.db(ctx)
	var count int64
	if err := db.Model(&model.Category{}).
		Where("name = ? OR slug = ?", category.Name, category.Slug).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("could not check category: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("category %q already exists: %w", name, ErrConflict)
	}
	if err := db.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("could not create category: %w", err)
	}
	return &category, nil
}

// DeleteCategory refuses while listings still use the category.
func (s *Catalog) DeleteCategory(ctx context.Context, id uint) error {
	db := s.db(ctx)
	var used int64
	if err := db.Model(&model.Product{}).Where("category_id = ?", id).Count(&used).Error; err != nil {
		return fmt.Errorf("could not check category usage: %w", err)
	}
	if used > 0 {
		return fmt.Errorf("category has %d listings: %w", used, ErrConflict)
	}
	res := db.Delete(&model.Category{}, id)
	if res.Error != nil {
		return fmt.Errorf("could not delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %w", ErrNotFound)
	}
	return nil
}
