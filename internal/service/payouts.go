package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"bazaar_backend/internal/model"
)

type Payouts struct {
	Deps
}

// Balance is what a seller can still withdraw: completed sales minus payouts
// that were not rejected.
func (s *Payouts) Balance(ctx context.Context, sellerID string) (float64, error) {
	return sellerBalance(s.db(ctx), sellerID)
}

func sellerBalance(tx *gorm.DB, sellerID string) (float64, error) {
	var sales float64
	if err := tx.Model(&model.Transaction{}).
		Where("seller_id = ? AND kind = ? AND status = ?", sellerID, model.TransactionOrder, model.TransactionCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sales).Error; err != nil {
		return 0, fmt.Errorf("could not sum sales: %w", err)
	}
	var paid float64
	if err := tx.Model(&model.Payout{}).
		Where("seller_id = ? AND status <> ?", sellerID, model.PayoutRejected).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error; err != nil {
		return 0, fmt.Errorf("could not sum payouts: %w", err)
	}
	return sales - paid, nil
}

func (s *Payouts) Request(ctx context.Context, sellerID string, amount float64, note string) (*model.Payout, error) {
	if amount <= 0 {
		return nil, invalid("amount", "amount must be greater than 0")
	}
	payout := model.Payout{
		SellerID: sellerID,
		Amount:   amount,
		Status:   model.PayoutPending,
		Note:     strings.TrimSpace(note),
	}
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProfile(tx, sellerID); err != nil {
			return err
		}
		balance, err := sellerBalance(tx, sellerID)
		if err != nil {
			return err
		}
		if amount > balance {
			return invalid("amount", fmt.Sprintf("amount exceeds available balance of %.2f", balance))
		}
		if err := tx.Create(&payout).Error; err != nil {
			return fmt.Errorf("could not create payout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (s *Payouts) Mine(ctx context.Context, sellerID string) ([]model.Payout, error) {
	var payouts []model.Payout
	if err := s.db(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("could not list payouts: %w", err)
	}
	return payouts, nil
}

func (s *Payouts) List(ctx context.Context, status model.PayoutStatus, page Page) ([]model.Payout, int64, error) {
	q := s.db(ctx).Model(&model.Payout{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("could not count payouts: %w", err)
	}
	var payouts []model.Payout
	if err := page.apply(q).Order("created_at ASC").Find(&payouts).Error; err != nil {
		return nil, 0, fmt.Errorf("could not list payouts: %w", err)
	}
	return payouts, total, nil
}

// Review settles a pending payout as paid or rejected.
func (s *Payouts) Review(ctx context.Context, id uint, status model.PayoutStatus, note string) (*model.Payout, error) {
	if status != model.PayoutPaid && status != model.PayoutRejected {
		return nil, invalid("status", "status must be paid or rejected")
	}
	db := s.db(ctx)
	var payout model.Payout
	if err := db.First(&payout, id).Error; err != nil {
		return nil, notFound(err, "payout")
	}
	if payout.Status != model.PayoutPending {
		return nil, fmt.Errorf("payout already %s: %w", payout.Status, ErrConflict)
	}

	now := s.now()
	updates := map[string]interface{}{"status": status, "processed_at": now}
	if note = strings.TrimSpace(note); note != "" {
		updates["note"] = note
	}
	if err := db.Model(&payout).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("could not update payout: %w", err)
	}
	return &payout, nil
}

type Messages struct {
	Deps
}

// Send delivers a message about a listing. Buyers write to the seller; the seller
// answers by naming the recipient.
func (s *Messages) Send(ctx context.Context, senderID, productID, recipientID, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("body", "message is required")
	}
	db := s.db(ctx)
	var product model.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		return nil, notFound(err, "product")
	}

	if senderID != product.UserID {
		recipientID = product.UserID
	} else if recipientID == "" || recipientID == senderID {
		return nil, invalid("recipient_id", "recipient is required")
	}

	msg := model.Message{
		ProductID:   productID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := db.Omit("Product").Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("could not send message: %w", err)
	}
	return &msg, nil
}

func (s *Messages) Inbox(ctx context.Context, userID string, page Page) ([]model.Message, int64, error) {
	q := s.db(ctx).Model(&model.Message{}).Where("recipient_id = ? OR sender_id = ?", userID, userID)
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("could not count messages: %w", err)
	}
	var messages []model.Message
	if err := page.apply(q).Order("created_at DESC").Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("could not list messages: %w", err)
	}
	return messages, total, nil
}

func (s *Messages) MarkRead(ctx context.Context, userID string, id uint) error {
	db := s.db(ctx)
	var msg model.Message
	if err := db.First(&msg, id).Error; err != nil {
		return notFound(err, "message")
	}
	if msg.RecipientID != userID {
		return ErrForbidden
	}
	if msg.ReadAt != nil {
		return nil
	}
	if err := db.Model(&msg).Update("read_at", s.now()).Error; err != nil {
		return fmt.Errorf("could not update message: %w", err)
	}
	return nil
}
