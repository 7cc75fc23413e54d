package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bazaar_backend/internal/model"
	"bazaar_backend/pkg/events"
	"bazaar_backend/pkg/storage"
	"bazaar_backend/pkg/subscription"
)

const (
	maxTitleLength       = 60
	minDescriptionLength = 50
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID    string
	Admin bool
}

func (a Actor) canManage(ownerID string) bool {
	return a.Admin || a.ID == ownerID
}

// ImageUpload is an already re-encoded listing photo.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ProductInput struct {
	Title             string
	Description       string
	Price             float64
	CategoryID        uint
	Tags              []string
	DiscountPrice     *float64
	DiscountStartDate *time.Time
	DiscountEndDate   *time.Time
}

// ProductPatch carries only the fields the seller sent; nil means unchanged.
type ProductPatch struct {
	Title             *string
	Description       *string
	Price             *float64
	CategoryID        *uint
	Tags              *[]string
	Status            *model.ProductStatus
	DiscountPrice     *float64
	DiscountStartDate *time.Time
	DiscountEndDate   *time.Time
	ClearDiscount     bool
}

// ProductView is a listing as rendered to clients.
type ProductView struct {
	*model.Product
	IsExpired bool                 `json:"is_expired"`
	Pricing   subscription.Pricing `json:"pricing"`
}

type ProductFilter struct {
	CategoryID uint
	Page       Page
}

type Listings struct {
	Deps
	Store           storage.ObjectStore
	TTL             time.Duration
	MaxCreateImages int
	MaxImages       int
}

func (s *Listings) View(p *model.Product) ProductView {
	now := s.now()
	return ProductView{
		Product:   p,
		IsExpired: p.IsExpired(now),
		Pricing:   p.Discount().Resolve(now),
	}
}

func validateTitle(v *ValidationError, title string) {
	switch {
	case strings.TrimSpace(title) == "":
		v.Add("title", "title is required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		v.Add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
}

func validateDescription(v *ValidationError, description string) {
	if utf8.RuneCountInString(strings.TrimSpace(description)) < minDescriptionLength {
		v.Add("description", fmt.Sprintf("description must be at least %d characters", minDescriptionLength))
	}
}

func validatePrice(v *ValidationError, price float64) {
	if price <= 0 {
		v.Add("price", "price must be greater than 0")
	}
}

func validateDiscount(v *ValidationError, w subscription.DiscountWindow) {
	if msg := subscription.ValidateWindow(w); msg != "" {
		v.Add("discount_price", msg)
	}
}

func (s *Listings) validateCreate(in ProductInput, images []ImageUpload) error {
	v := &ValidationError{}
	validateTitle(v, in.Title)
	validateDescription(v, in.Description)
	validatePrice(v, in.Price)
	if in.CategoryID == 0 {
		v.Add("category_id", "category is required")
	}
	switch {
	case len(images) == 0:
		v.Add("images", "at least one image is required")
	case len(images) > s.MaxCreateImages:
		v.Add("images", fmt.Sprintf("at most %d images are allowed", s.MaxCreateImages))
	}
	validateDiscount(v, subscription.DiscountWindow{
		Price:         in.Price,
		DiscountPrice: in.DiscountPrice,
		StartDate:     in.DiscountStartDate,
		EndDate:       in.DiscountEndDate,
	})
	return v.Err()
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/webp":
		return ".webp"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	return ""
}

type storedImage struct {
	key string
	url string
}

// upload stores images one by one. On failure everything stored so far is removed.
func (s *Listings) upload(ctx context.Context, userID, productID string, images []ImageUpload) ([]storedImage, error) {
	stored := make([]storedImage, 0, len(images))
	for _, img := range images {
		key := storage.ObjectKey(userID, productID, img.Filename, extensionFor(img.ContentType))
		url, err := s.Store.Put(ctx, key, img.Data, img.ContentType)
		if err != nil {
			s.discard(ctx, stored)
			return nil, fmt.Errorf("image upload failed: %w", err)
		}
		stored = append(stored, storedImage{key: key, url: url})
	}
	return stored, nil
}

func (s *Listings) discard(ctx context.Context, stored []storedImage) {
	for _, img := range stored {
		if err := s.Store.Delete(context.WithoutCancel(ctx), img.key); err != nil {
			log.Printf("Failed to remove orphaned image %s: %v", img.key, err)
		}
	}
}

func (s *Listings) checkCategory(tx *gorm.DB, id uint) error {
	var category model.Category
	if err := tx.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("category_id", "unknown category")
		}
		return fmt.Errorf("could not load category: %w", err)
	}
	return nil
}

func lockProfile(tx *gorm.DB, userID string) (*model.Profile, error) {
	var profile model.Profile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return &profile, nil
}

// Create publishes a listing. Entitlement is checked before any upload and again
// under the profile row lock, so two concurrent requests cannot both take the last slot.
func (s *Listings) Create(ctx context.Context, userID string, in ProductInput, images []ImageUpload) (*model.Product, error) {
	if err := s.validateCreate(in, images); err != nil {
		return nil, err
	}

	db := s.db(ctx)
	now := s.now()

	var profile model.Profile
	if err := db.First(&profile, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	report, err := entitlementFor(db, &profile, now)
	if err != nil {
		return nil, err
	}
	if !report.CanCreate() {
		return nil, ErrNoEntitlement
	}
	if err := s.checkCategory(db, in.CategoryID); err != nil {
		return nil, err
	}

	productID := uuid.NewString()
	stored, err := s.upload(ctx, userID, productID, images)
	if err != nil {
		return nil, err
	}

	urls := make(pq.StringArray, len(stored))
	for i, img := range stored {
		urls[i] = img.url
	}

	product := model.Product{
		ID:                productID,
		UserID:            userID,
		Title:             strings.TrimSpace(in.Title),
		Description:       strings.TrimSpace(in.Description),
		Price:             in.Price,
		DiscountPrice:     in.DiscountPrice,
		DiscountStartDate: in.DiscountStartDate,
		DiscountEndDate:   in.DiscountEndDate,
		Images:            urls,
		Tags:              pq.StringArray(normalizeTags(in.Tags)),
		CategoryID:        in.CategoryID,
		Status:            model.ProductStatusActive,
		ExpiresAt:         now.Add(s.TTL),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		locked, err := lockProfile(tx, userID)
		if err != nil {
			return err
		}
		report, err := entitlementFor(tx, locked, now)
		if err != nil {
			return err
		}
		if !report.CanCreate() {
			return ErrNoEntitlement
		}

		if err := tx.Omit(clause.Associations).Create(&product).Error; err != nil {
			return fmt.Errorf("could not create product: %w", err)
		}

		rows := make([]model.ProductImage, len(stored))
		for i, img := range stored {
			rows[i] = model.ProductImage{
				ProductID:    productID,
				URL:          img.url,
				StorageKey:   img.key,
				DisplayOrder: i,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("could not save product images: %w", err)
		}
		product.ProductImages = rows
		return nil
	})
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}

	s.emit(ctx, events.ProductCreated, product.ID, map[string]interface{}{
		"user_id":     userID,
		"category_id": product.CategoryID,
		"price":       product.Price,
	})
	return &product, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *Listings) loadOwned(tx *gorm.DB, actor Actor, productID string) (*model.Product, error) {
	var product model.Product
	if err := tx.First(&product, "id = ?", productID).Error; err != nil {
		return nil, notFound(err, "product")
	}
	if !actor.canManage(product.UserID) {
		return nil, ErrForbidden
	}
	return &product, nil
}

// Update applies a partial edit. Only the fields present are validated; entitlement
// and expiry are left alone.
func (s *Listings) Update(ctx context.Context, actor Actor, productID string, patch ProductPatch) (*model.Product, error) {
	db := s.db(ctx)
	product, err := s.loadOwned(db, actor, productID)
	if err != nil {
		return nil, err
	}

	v := &ValidationError{}
	updates := map[string]interface{}{}
	if patch.Title != nil {
		validateTitle(v, *patch.Title)
		updates["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		validateDescription(v, *patch.Description)
		updates["description"] = strings.TrimSpace(*patch.Description)
	}
	price := product.Price
	if patch.Price != nil {
		validatePrice(v, *patch.Price)
		price = *patch.Price
		updates["price"] = price
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(db, *patch.CategoryID); err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				return nil, err
			}
			v.Add("category_id", ve.Fields["category_id"])
		}
		updates["category_id"] = *patch.CategoryID
	}
	if patch.Tags != nil {
		updates["tags"] = pq.StringArray(normalizeTags(*patch.Tags))
	}
	if patch.Status != nil {
		// sold is set by checkout only
		if *patch.Status != model.ProductStatusActive && *patch.Status != model.ProductStatusHidden {
			v.Add("status", "status must be active or hidden")
		}
		updates["status"] = *patch.Status
	}
	switch {
	case patch.ClearDiscount:
		updates["discount_price"] = nil
		updates["discount_start_date"] = nil
		updates["discount_end_date"] = nil
	case patch.DiscountPrice != nil || patch.DiscountStartDate != nil || patch.DiscountEndDate != nil:
		validateDiscount(v, subscription.DiscountWindow{
			Price:         price,
			DiscountPrice: patch.DiscountPrice,
			StartDate:     patch.DiscountStartDate,
			EndDate:       patch.DiscountEndDate,
		})
		updates["discount_price"] = patch.DiscountPrice
		updates["discount_start_date"] = patch.DiscountStartDate
		updates["discount_end_date"] = patch.DiscountEndDate
	case patch.Price != nil:
		// the stored discount must stay below the new price
		w := product.Discount()
		w.Price = price
		validateDiscount(v, w)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := db.Model(product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("could not update product: %w", err)
	}
	return s.Get(ctx, productID)
}

func (s *Listings) checkImageRoom(db *gorm.DB, productID string, adding int) error {
	var existing int64
	if err := db.Model(&model.ProductImage{}).Where("product_id = ?", productID).Count(&existing).Error; err != nil {
		return fmt.Errorf("could not count product images: %w", err)
	}
	if int(existing)+adding > s.MaxImages {
		return invalid("images", fmt.Sprintf("a listing can hold at most %d images", s.MaxImages))
	}
	return nil
}

// AddImages appends photos to an existing listing, up to MaxImages in total.
func (s *Listings) AddImages(ctx context.Context, actor Actor, productID string, images []ImageUpload) ([]model.ProductImage, error) {
	if len(images) == 0 {
		return nil, invalid("images", "at least one image is required")
	}
	db := s.db(ctx)
	product, err := s.loadOwned(db, actor, productID)
	if err != nil {
		return nil, err
	}

	if err := s.checkImageRoom(db, productID, len(images)); err != nil {
		return nil, err
	}

	stored, err := s.upload(ctx, product.UserID, productID, images)
	if err != nil {
		return nil, err
	}

	var rows []model.ProductImage
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockProduct(tx, productID); err != nil {
			return err
		}
		// a concurrent upload may have landed since the first check
		if err := s.checkImageRoom(tx, productID, len(stored)); err != nil {
			return err
		}
		var next int
		if err := tx.Model(&model.ProductImage{}).
			Where("product_id = ?", productID).
			Select("COALESCE(MAX(display_order) + 1, 0)").
			Scan(&next).Error; err != nil {
			return fmt.Errorf("could not read image order: %w", err)
		}

		rows = make([]model.ProductImage, len(stored))
		for i, img := range stored {
			rows[i] = model.ProductImage{
				ProductID:    productID,
				URL:          img.url,
				StorageKey:   img.key,
				DisplayOrder: next + i,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("could not save product images: %w", err)
		}
		return syncImageURLs(tx, productID)
	})
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}
	return rows, nil
}

// RemoveImage drops one photo. A listing always keeps at least one.
func (s *Listings) RemoveImage(ctx context.Context, actor Actor, productID string, imageID uint) error {
	db := s.db(ctx)
	if _, err := s.loadOwned(db, actor, productID); err != nil {
		return err
	}

	var image model.ProductImage
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockProduct(tx, productID); err != nil {
			return err
		}
		if err := tx.First(&image, "id = ? AND product_id = ?", imageID, productID).Error; err != nil {
			return notFound(err, "image")
		}
		var count int64
		if err := tx.Model(&model.ProductImage{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
			return fmt.Errorf("could not count product images: %w", err)
		}
		if count <= 1 {
			return invalid("images", "a listing needs at least one image")
		}
		if err := tx.Delete(&image).Error; err != nil {
			return fmt.Errorf("could not delete image: %w", err)
		}
		return syncImageURLs(tx, productID)
	})
	if err != nil {
		return err
	}

	s.discard(ctx, []storedImage{{key: image.StorageKey}})
	return nil
}

func lockProduct(tx *gorm.DB, productID string) (*model.Product, error) {
	var product model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", productID).Error; err != nil {
		return nil, notFound(err, "product")
	}
	return &product, nil
}

// syncImageURLs rewrites products.images from the ordered image rows.
func syncImageURLs(tx *gorm.DB, productID string) error {
	var urls []string
	if err := tx.Model(&model.ProductImage{}).
		Where("product_id = ?", productID).
		Order("display_order ASC").
		Pluck("url", &urls).Error; err != nil {
		return fmt.Errorf("could not load image urls: %w", err)
	}
	if err := tx.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("images", pq.StringArray(urls)).Error; err != nil {
		return fmt.Errorf("could not update product images: %w", err)
	}
	return nil
}

// Delete removes the listing and its image rows together, then the stored objects.
func (s *Listings) Delete(ctx context.Context, actor Actor, productID string) error {
	db := s.db(ctx)
	product, err := s.loadOwned(db, actor, productID)
	if err != nil {
		return err
	}

	var images []model.ProductImage
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Find(&images).Error; err != nil {
			return fmt.Errorf("could not load product images: %w", err)
		}
		if err := tx.Where("product_id = ?", productID).Delete(&model.ProductImage{}).Error; err != nil {
			return fmt.Errorf("could not delete product images: %w", err)
		}
		if err := tx.Delete(&model.Product{}, "id = ?", productID).Error; err != nil {
			return fmt.Errorf("could not delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	stored := make([]storedImage, 0, len(images))
	for _, img := range images {
		stored = append(stored, storedImage{key: img.StorageKey})
	}
	s.discard(ctx, stored)

	s.emit(ctx, events.ProductDeleted, productID, map[string]interface{}{
		"user_id":    product.UserID,
		"deleted_by": actor.ID,
	})
	return nil
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC")
}

func (s *Listings) Get(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := s.db(ctx).
		Preload("ProductImages", orderedImages).
		Preload("Category").
		First(&product, "id = ?", productID).Error
	if err != nil {
		return nil, notFound(err, "product")
	}
	return &product, nil
}

// List returns listings buyers can see: active and not expired.
func (s *Listings) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	q := s.db(ctx).Model(&model.Product{}).
		Where("status = ? AND expires_at > ?", model.ProductStatusActive, s.now())
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("could not count products: %w", err)
	}

	var products []model.Product
	err := filter.Page.apply(q).
		Preload("ProductImages", orderedImages).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("could not list products: %w", err)
	}
	return products, total, nil
}

// Mine lists every listing of a seller, expired and sold ones included.
func (s *Listings) Mine(ctx context.Context, userID string, page Page) ([]model.Product, int64, error) {
	q := s.db(ctx).Model(&model.Product{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("could not count products: %w", err)
	}

	var products []model.Product
	err := page.apply(q).
		Preload("ProductImages", orderedImages).
		Order("created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("could not list products: %w", err)
	}
	return products, total, nil
}

// Expiring lists active listings whose expiry falls in [from, to).
func (s *Listings) Expiring(ctx context.Context, from, to time.Time) ([]model.Product, error) {
	var products []model.Product
	err := s.db(ctx).
		Preload("User").
		Where("status = ? AND expires_at >= ? AND expires_at < ?", model.ProductStatusActive, from, to).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("could not load expiring products: %w", err)
	}
	return products, nil
}
