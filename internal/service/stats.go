package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bazaar_backend/internal/model"
)

type AdminStats struct {
	TotalUsers          int64   `json:"total_users"`
	BannedUsers         int64   `json:"banned_users"`
	TotalListings       int64   `json:"total_listings"`
	ActiveListings      int64   `json:"active_listings"`
	SoldListings        int64   `json:"sold_listings"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
	Revenue             float64 `json:"revenue"`
	PendingPayouts      int64   `json:"pending_payouts"`
}

type CategoryStat struct {
	CategoryID uint   `json:"category_id"`
	Name       string `json:"name"`
	Count      int64  `json:"count"`
}

type DailyStat struct {
	Date        string `json:"date"`
	NewListings int64  `json:"new_listings"`
}

// SellerStats is the seller dashboard summary.
type SellerStats struct {
	TotalListings  int64          `json:"total_listings"`
	ActiveListings int64          `json:"active_listings"`
	SoldListings   int64          `json:"sold_listings"`
	Sales          float64        `json:"sales"`
	UnreadMessages int64          `json:"unread_messages"`
	Categories     []CategoryStat `json:"categories"`
	DailyStats     []DailyStat    `json:"daily_stats"`
}

// SalesSummary is one seller's completed sales over a reporting period.
type SalesSummary struct {
	SellerID string
	Email    string
	FullName string
	Orders   int64
	Amount   float64
}

type Stats struct {
	Deps
}

func (s *Stats) Admin(ctx context.Context) (*AdminStats, error) {
	db := s.db(ctx)
	now := s.now()
	var st AdminStats

	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&st.TotalUsers, &model.Profile{}, "", nil},
		{&st.BannedUsers, &model.Profile{}, "EXISTS (SELECT 1 FROM user_bans b WHERE b.profile_id = profiles.id AND b.start_date <= ? AND b.end_date >= ?) OR (banned_until > ? AND NOT EXISTS (SELECT 1 FROM user_bans b WHERE b.profile_id = profiles.id))", []interface{}{now, now, now}},
		{&st.TotalListings, &model.Product{}, "", nil},
		{&st.ActiveListings, &model.Product{}, "status = ? AND expires_at > ?", []interface{}{model.ProductStatusActive, now}},
		{&st.SoldListings, &model.Product{}, "status = ?", []interface{}{model.ProductStatusSold}},
		{&st.ActiveSubscriptions, &model.Subscription{}, "status = ? AND expires_at >= ?", []interface{}{model.SubscriptionActive, now}},
		{&st.PendingPayouts, &model.Payout{}, "status = ?", []interface{}{model.PayoutPending}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("could not compute stats: %w", err)
		}
	}

	if err := db.Model(&model.Transaction{}).
		Where("status = ? AND kind IN ?", model.TransactionCompleted, []model.TransactionKind{model.TransactionSubscription, model.TransactionSlot}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&st.Revenue).Error; err != nil {
		return nil, fmt.Errorf("could not compute revenue: %w", err)
	}
	return &st, nil
}

func (s *Stats) Seller(ctx context.Context, userID string) (*SellerStats, error) {
	db := s.db(ctx)
	now := s.now()
	st := SellerStats{Categories: []CategoryStat{}, DailyStats: []DailyStat{}}

	products := db.Model(&model.Product{}).Where("user_id = ?", userID)
	if err := products.Session(&gorm.Session{}).Count(&st.TotalListings).Error; err != nil {
		return nil, fmt.Errorf("could not count listings: %w", err)
	}
	if err := products.Session(&gorm.Session{}).
		Where("status = ? AND expires_at > ?", model.ProductStatusActive, now).
		Count(&st.ActiveListings).Error; err != nil {
		return nil, fmt.Errorf("could not count listings: %w", err)
	}
	if err := products.Session(&gorm.Session{}).
		Where("status = ?", model.ProductStatusSold).
		Count(&st.SoldListings).Error; err != nil {
		return nil, fmt.Errorf("could not count listings: %w", err)
	}

	if err := db.Model(&model.Transaction{}).
		Where("seller_id = ? AND kind = ? AND status = ?", userID, model.TransactionOrder, model.TransactionCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&st.Sales).Error; err != nil {
		return nil, fmt.Errorf("could not sum sales: %w", err)
	}
	if err := db.Model(&model.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", userID).
		Count(&st.UnreadMessages).Error; err != nil {
		return nil, fmt.Errorf("could not count messages: %w", err)
	}

	if err := db.Table("products").
		Select("products.category_id, categories.name, COUNT(products.id) AS count").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("products.user_id = ?", userID).
		Group("products.category_id, categories.name").
		Order("count DESC").
		Scan(&st.Categories).Error; err != nil {
		return nil, fmt.Errorf("could not group listings: %w", err)
	}

	since := now.AddDate(0, 0, -7)
	if err := db.Table("products").
		Select("TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS date, COUNT(id) AS new_listings").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&st.DailyStats).Error; err != nil {
		return nil, fmt.Errorf("could not load daily stats: %w", err)
	}
	return &st, nil
}

// SalesSince groups completed orders per seller from the given instant.
func (s *Stats) SalesSince(ctx context.Context, since time.Time) ([]SalesSummary, error) {
	var out []SalesSummary
	err := s.db(ctx).Table("transactions t").
		Select("p.id AS seller_id, p.email, p.full_name, COUNT(t.id) AS orders, COALESCE(SUM(t.amount), 0) AS amount").
		Joins("JOIN profiles p ON p.id = t.seller_id").
		Where("t.kind = ? AND t.status = ? AND t.created_at >= ? AND t.deleted_at IS NULL", model.TransactionOrder, model.TransactionCompleted, since).
		Group("p.id, p.email, p.full_name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("could not summarize sales: %w", err)
	}
	return out, nil
}

// Activity counts what happened on the platform since the given instant.
type Activity struct {
	NewUsers            int64
	NewListings         int64
	Orders              int64
	Revenue             float64
	ActiveSubscriptions int64
	PendingPayouts      int64
}

func (s *Stats) ActivitySince(ctx context.Context, since time.Time) (*Activity, error) {
	db := s.db(ctx)
	var a Activity
	steps := []struct {
		q   *gorm.DB
		dst *int64
	}{
		{db.Model(&model.Profile{}).Where("created_at >= ?", since), &a.NewUsers},
		{db.Model(&model.Product{}).Where("created_at >= ?", since), &a.NewListings},
		{db.Model(&model.Transaction{}).Where("kind = ? AND created_at >= ?", model.TransactionOrder, since), &a.Orders},
		{db.Model(&model.Subscription{}).Where("status = ? AND expires_at >= ?", model.SubscriptionActive, s.now()), &a.ActiveSubscriptions},
		{db.Model(&model.Payout{}).Where("status = ?", model.PayoutPending), &a.PendingPayouts},
	}
	for _, st := range steps {
		if err := st.q.Count(st.dst).Error; err != nil {
			return nil, fmt.Errorf("could not compute activity: %w", err)
		}
	}
	if err := db.Model(&model.Transaction{}).
		Where("status = ? AND created_at >= ?", model.TransactionCompleted, since).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&a.Revenue).Error; err != nil {
		return nil, fmt.Errorf("could not compute revenue: %w", err)
	}
	return &a, nil
}
