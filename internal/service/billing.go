package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bazaar_backend/internal/model"
	"bazaar_backend/pkg/events"
)

// Billing runs the simulated checkouts. Each one waits CheckoutDelay as a stand-in
// for a payment provider, then writes every row it touches in one transaction.
type Billing struct {
	Deps
	CheckoutDelay time.Duration
}

type SlotPurchase struct {
	Transaction  model.Transaction `json:"transaction"`
	CreditsAdded int               `json:"credits_added"`
	Credits      int               `json:"credits"`
}

func metadata(v map[string]interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

// CheckoutSubscription starts a new subscription period. Earlier subscriptions are
// left as they are; entitlement follows the most recently started active one.
func (s *Billing) CheckoutSubscription(ctx context.Context, userID string, packageID uint) (*model.Subscription, error) {
	db := s.db(ctx)
	var pkg model.SubscriptionPackage
	if err := db.First(&pkg, packageID).Error; err != nil {
		return nil, notFound(err, "package")
	}
	if !pkg.IsActive {
		return nil, invalid("package_id", "package is not available")
	}

	if err := simulateCheckout(ctx, s.CheckoutDelay); err != nil {
		return nil, fmt.Errorf("checkout aborted: %w", err)
	}

	now := s.now()
	pricing := pkg.Discount().Resolve(now)
	sub := model.Subscription{
		UserID:    userID,
		PackageID: pkg.ID,
		Status:    model.SubscriptionActive,
		StartsAt:  now,
		ExpiresAt: now.Add(pkg.Duration()),
		PricePaid: pricing.ActivePrice,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockProfile(tx, userID); err != nil {
			return err
		}
		if err := tx.Omit("User", "Package").Create(&sub).Error; err != nil {
			return fmt.Errorf("could not create subscription: %w", err)
		}
		txn := model.Transaction{
			Kind:      model.TransactionSubscription,
			BuyerID:   userID,
			PackageID: &pkg.ID,
			Quantity:  1,
			Amount:    pricing.ActivePrice,
			Status:    model.TransactionCompleted,
			Metadata: metadata(map[string]interface{}{
				"package_name":    pkg.Name,
				"discount_active": pricing.DiscountActive,
				"duration_weeks":  pkg.DurationWeeks,
			}),
		}
		if err := tx.Create(&txn).Error; err != nil {
			return fmt.Errorf("could not record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sub.Package = &pkg
	s.emit(ctx, events.SubscriptionPurchased, userID, map[string]interface{}{
		"package_id": pkg.ID,
		"expires_at": sub.ExpiresAt,
		"price_paid": sub.PricePaid,
	})
	return &sub, nil
}

func (s *Billing) Subscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := s.db(ctx).
		Preload("Package", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ?", userID).
		Order("starts_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("could not list subscriptions: %w", err)
	}
	return subs, nil
}

// MaxSlotQuantity caps how many packs one slot purchase may buy.
const MaxSlotQuantity = 100

// PurchaseSlots adds slot_count * quantity credits to the buyer's profile.
// max_quantity is informational and not enforced here.
func (s *Billing) PurchaseSlots(ctx context.Context, userID string, slotID uint, quantity int) (*SlotPurchase, error) {
	if quantity < 1 || quantity > MaxSlotQuantity {
		return nil, invalid("quantity", fmt.Sprintf("quantity must be between 1 and %d", MaxSlotQuantity))
	}
	db := s.db(ctx)
	var slot model.ProductSlot
	if err := db.First(&slot, slotID).Error; err != nil {
		return nil, notFound(err, "slot")
	}
	if !slot.IsActive {
		return nil, invalid("slot_id", "slot is not available")
	}
	if slot.SlotCount < 1 || slot.SlotCount > math.MaxInt32/quantity {
		return nil, invalid("quantity", "too many credits for one purchase")
	}

	if err := simulateCheckout(ctx, s.CheckoutDelay); err != nil {
		return nil, fmt.Errorf("checkout aborted: %w", err)
	}

	pricing := slot.Discount().Resolve(s.now())
	added := slot.SlotCount * quantity
	result := &SlotPurchase{CreditsAdded: added}

	err := db.Transaction(func(tx *gorm.DB) error {
		profile, err := lockProfile(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Model(&model.Profile{}).Where("id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", added)).Error; err != nil {
			return fmt.Errorf("could not add credits: %w", err)
		}
		result.Credits = profile.Credits + added

		result.Transaction = model.Transaction{
			Kind:     model.TransactionSlot,
			BuyerID:  userID,
			SlotID:   &slot.ID,
			Quantity: quantity,
			Amount:   pricing.ActivePrice * float64(quantity),
			Status:   model.TransactionCompleted,
			Metadata: metadata(map[string]interface{}{
				"slot_name":       slot.Name,
				"slot_count":      slot.SlotCount,
				"unit_price":      pricing.ActivePrice,
				"discount_active": pricing.DiscountActive,
			}),
		}
		if err := tx.Create(&result.Transaction).Error; err != nil {
			return fmt.Errorf("could not record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.SlotPurchased, userID, map[string]interface{}{
		"slot_id":       slot.ID,
		"quantity":      quantity,
		"credits_added": added,
	})
	return result, nil
}

// PurchaseProduct sells a listing to a buyer and marks it sold.
func (s *Billing) PurchaseProduct(ctx context.Context, buyerID, productID string) (*model.Transaction, error) {
	db := s.db(ctx)
	var product model.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		return nil, notFound(err, "product")
	}
	if product.UserID == buyerID {
		return nil, invalid("product_id", "you cannot buy your own listing")
	}
	if !product.IsListed(s.now()) {
		return nil, fmt.Errorf("product is no longer available: %w", ErrConflict)
	}

	if err := simulateCheckout(ctx, s.CheckoutDelay); err != nil {
		return nil, fmt.Errorf("checkout aborted: %w", err)
	}

	var txn model.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := lockProduct(tx, productID)
		if err != nil {
			return err
		}
		now := s.now()
		if !locked.IsListed(now) {
			return fmt.Errorf("product is no longer available: %w", ErrConflict)
		}
		if err := tx.Model(&model.Product{}).Where("id = ?", productID).
			Update("status", model.ProductStatusSold).Error; err != nil {
			return fmt.Errorf("could not mark product sold: %w", err)
		}

		pricing := locked.Discount().Resolve(now)
		sellerID := locked.UserID
		txn = model.Transaction{
			Kind:      model.TransactionOrder,
			BuyerID:   buyerID,
			SellerID:  &sellerID,
			ProductID: &locked.ID,
			Quantity:  1,
			Amount:    pricing.ActivePrice,
			Status:    model.TransactionCompleted,
			Metadata: metadata(map[string]interface{}{
				"title":           locked.Title,
				"discount_active": pricing.DiscountActive,
			}),
		}
		if err := tx.Create(&txn).Error; err != nil {
			return fmt.Errorf("could not record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.OrderCompleted, productID, map[string]interface{}{
		"buyer_id":  buyerID,
		"seller_id": product.UserID,
		"amount":    txn.Amount,
	})
	return &txn, nil
}

// Transactions lists everything the user bought or sold.
func (s *Billing) Transactions(ctx context.Context, userID string, page Page) ([]model.Transaction, int64, error) {
	q := s.db(ctx).Model(&model.Transaction{}).Where("buyer_id = ? OR seller_id = ?", userID, userID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("could not count transactions: %w", err)
	}
	var txns []model.Transaction
	if err := page.apply(q).Order("created_at DESC").Find(&txns).Error; err != nil {
		return nil, 0, fmt.Errorf("could not list transactions: %w", err)
	}
	return txns, total, nil
}
