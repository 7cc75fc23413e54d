package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bazaar_backend/internal/model"
	"bazaar_backend/pkg/storage"
)

const (
	minPasswordLength = 6
	maxDeviceLength   = 100
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Accounts struct {
	Deps
	Store storage.ObjectStore
}

type SignupInput struct {
	Email    string
	Password string
	FullName string
}

type ProfileUpdate struct {
	FullName *string
	Address  *string
	Phone    *string
}

type UserFilter struct {
	Search string
	Role   model.Role
	Page   Page
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the profile with role user and no slot credits.
func (s *Accounts) Signup(ctx context.Context, in SignupInput) (*model.Profile, error) {
	v := &ValidationError{}
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		v.Add("email", "a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		v.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	db := s.db(ctx)
	var count int64
	if err := db.Model(&model.Profile{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("could not check email: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %w", err)
	}

	profile := model.Profile{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         model.RoleUser,
	}
	if err := db.Omit("Products", "Bans").Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("could not create profile: %w", err)
	}
	return &profile, nil
}

func (s *Accounts) Authenticate(ctx context.Context, email, password string) (*model.Profile, error) {
	var profile model.Profile
	err := s.db(ctx).Where("email = ?", normalizeEmail(email)).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("could not load profile: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &profile, nil
}

func (s *Accounts) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	if err := s.db(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return &profile, nil
}

func (s *Accounts) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*model.Profile, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Address != nil {
		updates["address"] = strings.TrimSpace(*in.Address)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if len(updates) == 0 {
		return profile, nil
	}
	if err := s.db(ctx).Model(profile).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("could not update profile: %w", err)
	}
	return profile, nil
}

func (s *Accounts) List(ctx context.Context, filter UserFilter) ([]model.Profile, int64, error) {
	q := s.db(ctx).Model(&model.Profile{})
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("could not count users: %w", err)
	}
	var profiles []model.Profile
	if err := filter.Page.apply(q).Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, 0, fmt.Errorf("could not list users: %w", err)
	}
	return profiles, total, nil
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *Accounts) SetRole(ctx context.Context, actorID, userID string, role model.Role) (*model.Profile, error) {
	if !role.Valid() {
		return nil, invalid("role", "role must be user or admin")
	}
	if actorID == userID && role != model.RoleAdmin {
		return nil, invalid("role", "you cannot remove your own admin role")
	}
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db(ctx).Model(profile).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("could not update role: %w", err)
	}
	return profile, nil
}

// RecordLogin stores a successful sign-in. Failures are only logged.
func (s *Accounts) RecordLogin(ctx context.Context, profileID, ip, device string) {
	if utf8.RuneCountInString(device) > maxDeviceLength {
		device = string([]rune(device)[:maxDeviceLength])
	}
	entry := model.LoginHistory{ProfileID: profileID, IP: ip, Device: device}
	if err := s.db(ctx).Create(&entry).Error; err != nil {
		log.Printf("Failed to record login for %s: %v", profileID, err)
	}
}

func (s *Accounts) RecentLogins(ctx context.Context, profileID string, limit int) ([]model.LoginHistory, error) {
	var logins []model.LoginHistory
	if err := s.db(ctx).Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logins).Error; err != nil {
		return nil, fmt.Errorf("could not load login history: %w", err)
	}
	return logins, nil
}

// Delete removes a user with their listings, bans and login history, then their
// stored photos. Subscriptions and messages go with the rows they reference.
func (s *Accounts) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return invalid("user_id", "you cannot delete your own account here")
	}
	var keys []string
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProfile(tx, userID); err != nil {
			return err
		}
		products := func() *gorm.DB {
			return tx.Model(&model.Product{}).Select("id").Where("user_id = ?", userID)
		}
		if err := tx.Model(&model.ProductImage{}).Where("product_id IN (?)", products()).
			Pluck("storage_key", &keys).Error; err != nil {
			return fmt.Errorf("could not load product images: %w", err)
		}
		if err := tx.Where("product_id IN (?)", products()).Delete(&model.ProductImage{}).Error; err != nil {
			return fmt.Errorf("could not delete product images: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Product{}).Error; err != nil {
			return fmt.Errorf("could not delete products: %w", err)
		}
		if err := tx.Where("profile_id = ?", userID).Delete(&model.UserBan{}).Error; err != nil {
			return fmt.Errorf("could not delete bans: %w", err)
		}
		if err := tx.Where("profile_id = ?", userID).Delete(&model.LoginHistory{}).Error; err != nil {
			return fmt.Errorf("could not delete login history: %w", err)
		}
		if err := tx.Delete(&model.Profile{}, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("could not delete profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.Store != nil {
		for _, key := range keys {
			if err := s.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
				log.Printf("Failed to remove image %s of deleted user %s: %v", key, userID, err)
			}
		}
	}
	return nil
}
