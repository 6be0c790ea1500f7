// Package fixtures fills an empty development database with a small but
// complete data set.
package fixtures

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/config"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/security"
	"github.com/cartelabolao/cartela-admin/pkg/textnorm"
	"github.com/cartelabolao/cartela-admin/pkg/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Result counts what Seed inserted.
type Result struct {
	Skipped   bool
	Users     int
	Editions  int
	Customers int
	Sellers   int
	Sales     int
}

var seedCustomers = []struct{ name, phone string }{
	{"Maria Aparecida", "5511987650001"},
	{"João Batista", "5511987650002"},
	{"Ana Lúcia", "5511987650003"},
	{"Carlos Eduardo", "5511987650004"},
	{"Fernanda Souza", "5511987650005"},
	{"Paulo Henrique", "5511987650006"},
}

// Seed is a no-op when any user already exists.
func Seed(ctx context.Context, tx txRunner, cfg config.Config, logg *logger.Logger) (Result, error) {
	var result Result
	if logg == nil {
		logg = logger.Nop()
	}
	err := tx.WithTx(ctx, func(db *gorm.DB) error {
		var users int64
		if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if users > 0 {
			result.Skipped = true
			return nil
		}

		hash, err := security.HashPassword(cfg.Fixtures.AdminPassword, cfg.Password)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin := &models.User{
			Email:        strings.ToLower(strings.TrimSpace(cfg.Fixtures.AdminEmail)),
			Name:         "Administrador",
			PasswordHash: hash,
			Role:         enums.UserRoleAdmin,
			Active:       true,
		}
		if err := create(ctx, db, admin); err != nil {
			return err
		}
		result.Users++

		now := time.Now().UTC()
		edition := &models.Edition{
			Number:              1,
			DrawDate:            now.AddDate(0, 0, 7),
			IndividualCardPrice: 1000,
			BolaoQuotaPrice:     2500,
			QuotasPerGroup:      4,
			CardsPerGroup:       10,
			Status:              enums.EditionStatusActive,
		}
		if err := create(ctx, db, edition); err != nil {
			return err
		}
		result.Editions++

		promoter := &models.Seller{Kind: enums.SellerKindPromoter, Name: "Promotora Centro", Phone: "5511955550001", Active: true}
		reseller := &models.Seller{Kind: enums.SellerKindReseller, Name: "Lotérica Boa Sorte", Phone: "5511955550002", Active: true}
		for _, seller := range []*models.Seller{promoter, reseller} {
			if err := create(ctx, db, seller); err != nil {
				return err
			}
			result.Sellers++
		}

		customers := make([]*models.Customer, 0, len(seedCustomers))
		for _, c := range seedCustomers {
			customer := &models.Customer{
				Name:      c.name,
				Phone:     c.phone,
				Active:    true,
				SearchKey: textnorm.SearchKey(c.name, c.phone),
			}
			if err := create(ctx, db, customer); err != nil {
				return err
			}
			customers = append(customers, customer)
			result.Customers++
		}

		// Paid bolão sales stay unallocated so the first automation tick
		// has work to do.
		for i, customer := range customers {
			seller := types.DirectSeller()
			switch i % 3 {
			case 1:
				seller = types.PromoterSeller(promoter.ID)
			case 2:
				seller = types.ResellerSeller(reseller.ID)
			}
			status := enums.PaymentStatusPaid
			if i == len(customers)-1 {
				status = enums.PaymentStatusPending
			}
			saleType := enums.SaleTypeBolaoQuota
			if i == 0 {
				saleType = enums.SaleTypeIndividualCard
			}
			sale := &models.Sale{
				CustomerID:     customer.ID,
				EditionID:      edition.ID,
				SaleType:       saleType,
				Amount:         edition.UnitPrice(saleType),
				QuotasQuantity: 1,
				PaymentStatus:  status,
			}
			sale.SetSeller(seller)
			if status == enums.PaymentStatusPaid {
				paidAt := now
				sale.PaidAt = &paidAt
			}
			if err := create(ctx, db, sale); err != nil {
				return err
			}
			if saleType == enums.SaleTypeIndividualCard {
				card := &models.IndividualCard{SaleID: sale.ID}
				if err := create(ctx, db, card); err != nil {
					return err
				}
			}
			result.Sales++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"skipped":   result.Skipped,
		"users":     result.Users,
		"customers": result.Customers,
		"sales":     result.Sales,
	}), "fixtures seeded")
	return result, nil
}

func create(ctx context.Context, db *gorm.DB, value any) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(value).Error; err != nil {
		return fmt.Errorf("seed %T: %w", value, err)
	}
	return nil
}
