package geoloc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

const openCageURL = "https://api.opencagedata.com/geocode/v1/json"

// GeocodeResult is the best reverse-geocode match for a coordinate pair.
type GeocodeResult struct {
	Formatted  string
	Country    string
	State      string
	City       string
	PostalCode string
	Confidence int
}

type openCageResponse struct {
	Results []struct {
		Formatted  string `json:"formatted"`
		Confidence int    `json:"confidence"`
		Components struct {
			Country  string `json:"country"`
			State    string `json:"state"`
			City     string `json:"city"`
			Town     string `json:"town"`
			Postcode string `json:"postcode"`
		} `json:"components"`
	} `json:"results"`
}

// ReverseGeocode resolves lat/lon to an address via OpenCage. Requires an
// API key.
func ReverseGeocode(ctx context.Context, g Getter, apiKey string, lat, lon float64) (*GeocodeResult, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("opencage: no API key configured")
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("%f+%f", lat, lon))
	q.Set("key", apiKey)

	res, err := g.Get(ctx, openCageURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var parsed openCageResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, fmt.Errorf("opencage: invalid JSON: %w", err)
	}
	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("opencage: no results")
	}

	best := parsed.Results[0]
	city := best.Components.City
	if city == "" {
		city = best.Components.Town
	}
	return &GeocodeResult{
		Formatted:  best.Formatted,
		Country:    best.Components.Country,
		State:      best.Components.State,
		City:       city,
		PostalCode: best.Components.Postcode,
		Confidence: best.Confidence,
	}, nil
}
