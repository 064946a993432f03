package postgres

import (
	"context"
	"fmt"

	"geo-elevate/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CountryLoader reads the catalog from the countries table.
type CountryLoader struct {
	pool *pgxpool.Pool
}

func NewCountryLoader(pool *pgxpool.Pool) *CountryLoader {
	return &CountryLoader{pool: pool}
}

func (l *CountryLoader) FetchCountries(ctx context.Context) ([]domain.Country, error) {
	rows, err := l.pool.Query(ctx, `SELECT name, capital, region, code FROM countries WHERE capital <> '' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	defer rows.Close()

	var countries []domain.Country
	for rows.Next() {
		var c domain.Country
		if err := rows.Scan(&c.Name, &c.Capital, &c.Region, &c.Code); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	return countries, nil
}
