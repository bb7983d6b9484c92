package route

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ORSProvider fetches cycling routes from OpenRouteService.
type ORSProvider struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

func NewORSProvider(client *http.Client, apiKey string) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openrouteservice api key is empty")
	}
	return &ORSProvider{
		client:  client,
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
	}, nil
}

func (o *ORSProvider) Name() string { return "openrouteservice" }

func (o *ORSProvider) FetchRoute(ctx context.Context, start, end Coordinate) (Route, error) {
	body, err := json.Marshal(map[string]any{
		// ORS expects lng,lat order.
		"coordinates":  [][]float64{{start.Lng, start.Lat}, {end.Lng, end.Lat}},
		"preference":   "recommended",
		"instructions": false,
	})
	if err != nil {
		return Route{}, fmt.Errorf("openrouteservice: encode request: %w", err)
	}

	makeReq := func() (*http.Request, error) {
		req, err := http.NewRequest(
			http.MethodPost,
			o.baseURL+"/v2/directions/cycling-regular/geojson",
			bytes.NewReader(body),
		)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", o.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doWithRetry(ctx, o.client, makeReq)
	if err != nil {
		return Route{}, fmt.Errorf("openrouteservice: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Features []struct {
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Route{}, fmt.Errorf("openrouteservice: decode response: %w", err)
	}
	if len(payload.Features) == 0 || len(payload.Features[0].Geometry.Coordinates) < 2 {
		return Route{}, errors.New("openrouteservice: response contained no route geometry")
	}

	return routeFromGeometry(payload.Features[0].Geometry.Coordinates, o.Name()), nil
}
