package seeder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/repository/account"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// AccountSeed describes one default chart-of-accounts row.
type AccountSeed struct {
	Code       string
	Name       string
	Type       entity.AccountType
	ParentCode string
}

// DefaultChart is the starter chart of accounts. Parents precede children.
var DefaultChart = []AccountSeed{
	{Code: "1000", Name: "Assets", Type: entity.AccountTypeAsset},
	{Code: "1100", Name: "Cash", Type: entity.AccountTypeAsset, ParentCode: "1000"},
	{Code: "1200", Name: "Accounts Receivable", Type: entity.AccountTypeAsset, ParentCode: "1000"},
	{Code: "1300", Name: "Inventory", Type: entity.AccountTypeAsset, ParentCode: "1000"},
	{Code: "2000", Name: "Liabilities", Type: entity.AccountTypeLiability},
	{Code: "2100", Name: "Accounts Payable", Type: entity.AccountTypeLiability, ParentCode: "2000"},
	{Code: "3000", Name: "Owner's Equity", Type: entity.AccountTypeEquity},
	{Code: "4000", Name: "Revenue", Type: entity.AccountTypeRevenue},
	{Code: "4100", Name: "Product Sales", Type: entity.AccountTypeRevenue, ParentCode: "4000"},
	{Code: "5000", Name: "Expenses", Type: entity.AccountTypeExpense},
	{Code: "5100", Name: "Operating Expenses", Type: entity.AccountTypeExpense, ParentCode: "5000"},
	{Code: "5200", Name: "Cost of Goods Sold", Type: entity.AccountTypeExpense, ParentCode: "5000"},
}

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	accounts account.Store
	logger   *zap.Logger
}

// New constructs a Seeder backed by the account store.
func New(accounts account.Store, logger *zap.Logger) *Seeder {
	return &Seeder{accounts: accounts, logger: logger}
}

// Accounts inserts the missing rows of chart. Existing codes are left untouched.
func (s *Seeder) Accounts(ctx context.Context, chart []AccountSeed) (int, error) {
	ids := make(map[string]int64, len(chart))
	created := 0

	for _, seed := range chart {
		existing, err := s.accounts.GetByCode(ctx, seed.Code)
		switch {
		case err == nil:
			ids[seed.Code] = existing.ID
			continue
		case !errors.Is(err, crud.ErrNotFound):
			return created, fmt.Errorf("lookup account %s: %w", seed.Code, err)
		}

		acc := &entity.Account{
			Code:   seed.Code,
			Name:   seed.Name,
			Type:   seed.Type,
			Status: entity.StatusActive,
		}
		if seed.ParentCode != "" {
			parentID, ok := ids[seed.ParentCode]
			if !ok {
				return created, fmt.Errorf("account %s: parent %s not seeded", seed.Code, seed.ParentCode)
			}
			acc.ParentID = &parentID
		}
		if err := s.accounts.Create(ctx, acc); err != nil {
			return created, fmt.Errorf("create account %s: %w", seed.Code, err)
		}
		ids[seed.Code] = acc.ID
		created++
	}

	if s.logger != nil {
		s.logger.Info("seeded chart of accounts", zap.Int("created", created), zap.Int("total", len(chart)))
	}
	return created, nil
}
