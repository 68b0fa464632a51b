package geoloc

import (
	"context"
	"encoding/json"
	"fmt"
)

// ipAPIFields requests every field ip-api.com exposes in one bitmask.
const ipAPIFields = "66846719"

// IPAPIResponse mirrors the ip-api.com JSON payload.
type IPAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Query      string  `json:"query"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Timezone   string  `json:"timezone"`
	ISP        string  `json:"isp"`
	Org        string  `json:"org"`
	AS         string  `json:"as"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// FetchIPAPI queries ip-api.com for one IP through the dispatcher.
func FetchIPAPI(ctx context.Context, g Getter, ip string) (*IPAPIResponse, error) {
	url := fmt.Sprintf("http://ip-api.com/json/%s?fields=%s", ip, ipAPIFields)
	res, err := g.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var parsed IPAPIResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return nil, fmt.Errorf("ip-api: invalid JSON: %w", err)
	}
	if parsed.Status != "success" {
		return nil, fmt.Errorf("ip-api: lookup failed: %s", parsed.Message)
	}
	return &parsed, nil
}
