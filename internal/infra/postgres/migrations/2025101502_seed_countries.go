package migrations

import (
	"context"

	"geo-elevate/internal/infra/memory"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			bundled := memory.BundledCountries()
			rows := make([]countryRow, 0, len(bundled))
			for _, c := range bundled {
				rows = append(rows, countryRow{Code: c.Code, Name: c.Name, Capital: c.Capital, Region: c.Region})
			}
			_, err := db.NewInsert().Model(&rows).On("CONFLICT (code) DO NOTHING").Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			var codes []string
			for _, c := range memory.BundledCountries() {
				codes = append(codes, c.Code)
			}
			_, err := db.NewDelete().Model((*countryRow)(nil)).Where("code IN (?)", bun.In(codes)).Exec(ctx)
			return err
		},
	)
}
