package memory

import (
	"context"

	"geo-elevate/internal/domain"
)

// StaticCountrySource serves a fixed country list; it backs the offline
// fallback and tests.
type StaticCountrySource struct {
	countries []domain.Country
}

func NewStaticCountrySource(countries []domain.Country) *StaticCountrySource {
	return &StaticCountrySource{countries: countries}
}

func (s *StaticCountrySource) FetchCountries(_ context.Context) ([]domain.Country, error) {
	if len(s.countries) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	return append([]domain.Country(nil), s.countries...), nil
}

// BundledCountries is the catalog shipped with the binary.
func BundledCountries() []domain.Country {
	return []domain.Country{
		{Name: "France", Capital: "Paris", Region: "Europe", Code: "FR"},
		{Name: "Germany", Capital: "Berlin", Region: "Europe", Code: "DE"},
		{Name: "Japan", Capital: "Tokyo", Region: "Asia", Code: "JP"},
		{Name: "Brazil", Capital: "Brasília", Region: "Americas", Code: "BR"},
		{Name: "Canada", Capital: "Ottawa", Region: "Americas", Code: "CA"},
		{Name: "Australia", Capital: "Canberra", Region: "Oceania", Code: "AU"},
		{Name: "Egypt", Capital: "Cairo", Region: "Africa", Code: "EG"},
		{Name: "India", Capital: "New Delhi", Region: "Asia", Code: "IN"},
		{Name: "Italy", Capital: "Rome", Region: "Europe", Code: "IT"},
		{Name: "Spain", Capital: "Madrid", Region: "Europe", Code: "ES"},
		{Name: "United States", Capital: "Washington, D.C.", Region: "Americas", Code: "US"},
		{Name: "United Kingdom", Capital: "London", Region: "Europe", Code: "GB"},
		{Name: "China", Capital: "Beijing", Region: "Asia", Code: "CN"},
		{Name: "Russia", Capital: "Moscow", Region: "Europe", Code: "RU"},
		{Name: "South Africa", Capital: "Pretoria", Region: "Africa", Code: "ZA"},
		{Name: "Argentina", Capital: "Buenos Aires", Region: "Americas", Code: "AR"},
		{Name: "Mexico", Capital: "Mexico City", Region: "Americas", Code: "MX"},
		{Name: "Nigeria", Capital: "Abuja", Region: "Africa", Code: "NG"},
		{Name: "South Korea", Capital: "Seoul", Region: "Asia", Code: "KR"},
		{Name: "Turkey", Capital: "Ankara", Region: "Asia", Code: "TR"},
	}
}
