package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// Place represents a simplified location result. JSON tags match the wire
// shape used inside chat search results and hints.
type Place struct {
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Rating           float32 `json:"rating"`
	PlaceID          string  `json:"place_id"`
	UserRatingsTotal int     `json:"user_ratings_total"`
}

// PlacesService handles interactions with Google Places API.
type PlacesService struct {
	client *maps.Client
}

// NewPlacesService creates a new PlacesService with the given API Key.
func NewPlacesService(apiKey string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client}, nil
}

// Search runs a free-form text search ("art museums in Paris") and returns at
// most limit well-rated places. limit <= 0 means the default of 3.
func (s *PlacesService) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty places query")
	}
	if limit <= 0 {
		limit = 3
	}

	r := &maps.TextSearchRequest{
		Query:    query,
		Language: "en",
	}

	resp, err := s.client.TextSearch(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var results []Place
	for _, result := range resp.Results {
		if result.Rating < 4.0 { // Filter for high quality
			continue
		}
		results = append(results, Place{
			Name:             result.Name,
			Address:          result.FormattedAddress,
			Rating:           result.Rating,
			PlaceID:          result.PlaceID,
			UserRatingsTotal: result.UserRatingsTotal,
		})
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

// SearchDestination finds notable places for a trip destination. interest
// narrows the search ("street food", "museums"); empty means top attractions.
func (s *PlacesService) SearchDestination(ctx context.Context, destination, interest string, limit int) ([]Place, error) {
	if strings.TrimSpace(destination) == "" {
		return nil, fmt.Errorf("empty destination")
	}
	query := strings.TrimSpace(interest)
	if query == "" {
		query = "top attractions"
	}
	return s.Search(ctx, fmt.Sprintf("%s in %s", query, destination), limit)
}
