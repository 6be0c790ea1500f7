package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/security"
	"github.com/cartelabolao/cartela-admin/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EditionOption tweaks a seeded edition.
type EditionOption func(*models.Edition)

func WithStatus(status enums.EditionStatus) EditionOption {
	return func(e *models.Edition) { e.Status = status }
}

func WithQuotasPerGroup(n int) EditionOption {
	return func(e *models.Edition) { e.QuotasPerGroup = n }
}

func WithNumber(n int) EditionOption {
	return func(e *models.Edition) { e.Number = n }
}

// SeedEdition inserts an edition; defaults to an active edition with groups of 10.
func SeedEdition(t testing.TB, db *gorm.DB, opts ...EditionOption) *models.Edition {
	t.Helper()
	var max int
	if err := db.Model(&models.Edition{}).Select("COALESCE(MAX(number), 0)").Scan(&max).Error; err != nil {
		t.Fatalf("edition number: %v", err)
	}
	edition := &models.Edition{
		Number:              max + 1,
		DrawDate:            time.Now().UTC().Add(7 * 24 * time.Hour),
		IndividualCardPrice: 1000,
		BolaoQuotaPrice:     2500,
		QuotasPerGroup:      10,
		CardsPerGroup:       10,
		Status:              enums.EditionStatusActive,
	}
	for _, opt := range opts {
		opt(edition)
	}
	if err := db.Create(edition).Error; err != nil {
		t.Fatalf("seed edition: %v", err)
	}
	return edition
}

// SeedCustomer inserts an active customer; an empty phone gets a unique one.
func SeedCustomer(t testing.TB, db *gorm.DB, name, phone string) *models.Customer {
	t.Helper()
	if phone == "" {
		phone = fmt.Sprintf("5511%09d", time.Now().UnixNano()%1_000_000_000)
	}
	customer := &models.Customer{
		Name:      name,
		Phone:     phone,
		Active:    true,
		SearchKey: name + " " + phone,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func SeedSeller(t testing.TB, db *gorm.DB, kind enums.SellerKind, name string) *models.Seller {
	t.Helper()
	seller := &models.Seller{Kind: kind, Name: name, Phone: "5511900000000", Active: true}
	if err := db.Create(seller).Error; err != nil {
		t.Fatalf("seed seller: %v", err)
	}
	return seller
}

// SaleOption tweaks a seeded sale.
type SaleOption func(*models.Sale)

func WithPaymentStatus(status enums.PaymentStatus) SaleOption {
	return func(s *models.Sale) {
		s.PaymentStatus = status
		if status == enums.PaymentStatusPaid {
			now := time.Now().UTC()
			s.PaidAt = &now
		} else {
			s.PaidAt = nil
		}
	}
}

func WithAmount(amount int64) SaleOption {
	return func(s *models.Sale) { s.Amount = amount }
}

func WithSeller(seller types.Seller) SaleOption {
	return func(s *models.Sale) { s.SetSeller(seller) }
}

func WithCreatedAt(at time.Time) SaleOption {
	at = at.UTC()
	return func(s *models.Sale) {
		s.CreatedAt = at
		if s.PaidAt != nil {
			s.PaidAt = &at
		}
	}
}

// SeedSale inserts a paid sale of the given type.
func SeedSale(t testing.TB, db *gorm.DB, edition *models.Edition, customer *models.Customer, saleType enums.SaleType, opts ...SaleOption) *models.Sale {
	t.Helper()
	now := time.Now().UTC()
	sale := &models.Sale{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		EditionID:      edition.ID,
		SaleType:       saleType,
		Amount:         edition.UnitPrice(saleType),
		QuotasQuantity: 1,
		PaymentStatus:  enums.PaymentStatusPaid,
		SaleOrigin:     enums.SaleOriginDirect,
		PaidAt:         &now,
	}
	for _, opt := range opts {
		opt(sale)
	}
	if err := db.Omit("Customer").Create(sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return sale
}

// SeedUser inserts an active user whose password hash uses the cheapest argon2 parameters.
func SeedUser(t testing.TB, db *gorm.DB, email, password string, role enums.UserRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Email:        strings.ToLower(email),
		Name:         strings.Split(email, "@")[0],
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
