package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// GraphHopperProvider fetches cycling routes from GraphHopper.
type GraphHopperProvider struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

func NewGraphHopperProvider(client *http.Client, apiKey string) (*GraphHopperProvider, error) {
	if apiKey == "" {
		return nil, errors.New("graphhopper api key is empty")
	}
	return &GraphHopperProvider{
		client:  client,
		apiKey:  apiKey,
		baseURL: "https://graphhopper.com/api/1",
	}, nil
}

func (g *GraphHopperProvider) Name() string { return "graphhopper" }

func (g *GraphHopperProvider) FetchRoute(ctx context.Context, start, end Coordinate) (Route, error) {
	values := url.Values{}
	values.Add("point", fmt.Sprintf("%f,%f", start.Lat, start.Lng))
	values.Add("point", fmt.Sprintf("%f,%f", end.Lat, end.Lng))
	values.Set("vehicle", "bike")
	values.Set("instructions", "false")
	values.Set("calc_points", "true")
	values.Set("points_encoded", "false")
	values.Set("key", g.apiKey)

	makeReq := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/route?%s", g.baseURL, values.Encode()), nil)
	}

	resp, err := doWithRetry(ctx, g.client, makeReq)
	if err != nil {
		return Route{}, fmt.Errorf("graphhopper: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Paths []struct {
			Points struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"points"`
		} `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Route{}, fmt.Errorf("graphhopper: decode response: %w", err)
	}
	if len(payload.Paths) == 0 || len(payload.Paths[0].Points.Coordinates) < 2 {
		return Route{}, errors.New("graphhopper: response contained no route geometry")
	}

	return routeFromGeometry(payload.Paths[0].Points.Coordinates, g.Name()), nil
}
