package geoloc

import (
	"context"
	"encoding/json"
	"fmt"
)

// IPWhoisResponse mirrors the ipwho.is JSON payload.
type IPWhoisResponse struct {
	IP        string  `json:"ip"`
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Country   string  `json:"country"`
	Region    string  `json:"region"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  struct {
		ID string `json:"id"`
	} `json:"timezone"`
	Connection struct {
		ASN int    `json:"asn"`
		ISP string `json:"isp"`
		Org string `json:"org"`
	} `json:"connection"`
}

// FetchIPWhois queries ipwho.is for one IP through the dispatcher.
func FetchIPWhois(ctx context.Context, g Getter, ip string) (*IPWhoisResponse, error) {
	res, err := g.Get(ctx, fmt.Sprintf("https://ipwho.is/%s", ip))
	if err != nil {
		return nil, err
	}

	var parsed IPWhoisResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, fmt.Errorf("ipwho.is: invalid JSON: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("ipwho.is: lookup failed: %s", parsed.Message)
	}
	return &parsed, nil
}
