package restcountries

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"geo-elevate/internal/domain"
)

func TestFetchCountriesMapsAndFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fields") == "" {
			t.Errorf("expected fields query, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name":{"common":"France"},"capital":["Paris"],"cca2":"FR","region":"Europe","flags":{"png":"x"}},
			{"name":{"common":"Antarctica"},"capital":[],"cca2":"AQ","region":"Antarctic"},
			{"name":{"common":"South Africa"},"capital":["Pretoria","Bloemfontein","Cape Town"],"cca2":"ZA","region":"Africa"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/v3.1/all?fields=name,capital,cca2,region", server.Client())
	countries, err := client.FetchCountries(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(countries) != 2 {
		t.Fatalf("expected 2 countries with capitals, got %+v", countries)
	}
	want := domain.Country{Name: "South Africa", Capital: "Pretoria", Region: "Africa", Code: "ZA"}
	if countries[1] != want {
		t.Fatalf("expected %+v, got %+v", want, countries[1])
	}
}

func TestFetchCountriesReportsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, server.Client()).FetchCountries(context.Background()); err == nil {
		t.Fatalf("expected status error")
	}

	unreachable := NewClient("http://127.0.0.1:1/all", &http.Client{})
	if _, err := unreachable.FetchCountries(context.Background()); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}
