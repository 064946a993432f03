package restcountries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"geo-elevate/internal/domain"
)

// DefaultURL asks only for the fields the catalog needs.
const DefaultURL = "https://restcountries.com/v3.1/all?fields=name,capital,cca2,region,flags"

type restCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Capital []string `json:"capital"`
	CCA2    string   `json:"cca2"`
	Region  string   `json:"region"`
}

// Client fetches the country catalog from the REST Countries API.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, httpClient *http.Client) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: url, httpClient: httpClient}
}

// FetchCountries returns every country that has a capital.
func (c *Client) FetchCountries(ctx context.Context) ([]domain.Country, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("restcountries returned status %d", resp.StatusCode)
	}

	var payload []restCountry
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}

	countries := make([]domain.Country, 0, len(payload))
	for _, rc := range payload {
		if len(rc.Capital) == 0 || strings.TrimSpace(rc.Capital[0]) == "" {
			continue
		}
		countries = append(countries, domain.Country{
			Name:    rc.Name.Common,
			Capital: rc.Capital[0],
			Region:  rc.Region,
			Code:    rc.CCA2,
		})
	}
	return countries, nil
}
