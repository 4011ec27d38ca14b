package repository

import (
	"context"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
)

// MasterDataRepository read-only port over the imported till master data
// (PdItem, CombTb, PdVatTb, CompPro/OptPro, PChoice).
type MasterDataRepository interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	ListCombos(ctx context.Context) ([]entity.Combo, error)
	ListVatRates(ctx context.Context) ([]entity.VatRate, error)
	ListComponentLinks(ctx context.Context) ([]entity.ComponentLink, error)
	ListDefaultChoices(ctx context.Context) ([]entity.DefaultChoice, error)
}

// ChannelRepository sales channel to price band mappings.
type ChannelRepository interface {
	ListActive(ctx context.Context) ([]entity.ChannelMapping, error)
}
