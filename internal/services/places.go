package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brewmap/backend/internal/models"
)

var ErrPlacesUnavailable = errors.New("places api request failed")

const nearbyCacheTTL = 5 * time.Minute

// PlacesClient proxies the Google Places HTTP API so the API key stays
// server-side. First nearby pages are cached in Redis when a client is
// configured; token-paginated follow-up pages are never cached because the
// token is single-use.
type PlacesClient struct {
	APIKey     string
	HTTPClient *http.Client
	Endpoint   string
	Cache      *redis.Client // optional
}

func NewPlacesClient(apiKey string, cache *redis.Client) *PlacesClient {
	return &PlacesClient{
		APIKey:   apiKey,
		Endpoint: "https://maps.googleapis.com/maps/api/place",
		HTTPClient: &http.Client{
			Timeout: 8 * time.Second,
		},
		Cache: cache,
	}
}

// placesResponse is the subset of the upstream envelope we consume.
type placesResponse struct {
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
	NextPageToken string        `json:"next_page_token"`
	Results       []placeResult `json:"results"`
	Result        *placeResult  `json:"result"`
}

type placeResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Address  string `json:"formatted_address"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating float64 `json:"rating"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

// NearbySearch runs a nearby search centered on lat/lng. pageToken, when
// set, requests the next page; the upstream token needs a short warm-up
// before it is accepted, and an early call fails with INVALID_REQUEST.
// That is surfaced as-is rather than retried.
func (c *PlacesClient) NearbySearch(ctx context.Context, lat, lng float64, radiusMeters int, placeType, pageToken string) (*models.NearbyCafes, error) {
	cacheKey := fmt.Sprintf("places:nearby:%.4f:%.4f:%d:%s", lat, lng, radiusMeters, placeType)
	if c.Cache != nil && pageToken == "" {
		if raw, err := c.Cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached models.NearbyCafes
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("radius", strconv.Itoa(radiusMeters))
	q.Set("type", placeType)
	q.Set("key", c.APIKey)
	if pageToken != "" {
		q.Set("pagetoken", pageToken)
	}

	var resp placesResponse
	if err := c.getJSON(ctx, "/nearbysearch/json?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("%w: status=%s %s", ErrPlacesUnavailable, resp.Status, resp.ErrorMessage)
	}

	out := &models.NearbyCafes{
		Cafes:         make([]models.Cafe, 0, len(resp.Results)),
		NextPageToken: resp.NextPageToken,
	}
	for _, r := range resp.Results {
		out.Cafes = append(out.Cafes, toCafe(r))
	}

	if c.Cache != nil && pageToken == "" {
		if raw, err := json.Marshal(out); err == nil {
			c.Cache.Set(ctx, cacheKey, raw, nearbyCacheTTL)
		}
	}
	return out, nil
}

// Details fetches a single place by id.
func (c *PlacesClient) Details(ctx context.Context, placeID string) (*models.Cafe, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "place_id,name,vicinity,formatted_address,geometry,rating,photos")
	q.Set("key", c.APIKey)

	var resp placesResponse
	if err := c.getJSON(ctx, "/details/json?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || resp.Result == nil {
		return nil, fmt.Errorf("%w: status=%s %s", ErrPlacesUnavailable, resp.Status, resp.ErrorMessage)
	}

	cafe := toCafe(*resp.Result)
	return &cafe, nil
}

// FetchPhoto opens the place photo identified by photoRef, following the
// redirect Places serves for photo content. Keeps the API key out of any
// URL the client sees. The caller owns the returned body.
func (c *PlacesClient) FetchPhoto(ctx context.Context, photoRef string, maxWidth int) (io.ReadCloser, string, error) {
	q := url.Values{}
	q.Set("photoreference", photoRef)
	q.Set("maxwidth", strconv.Itoa(maxWidth))
	q.Set("key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/photo?"+q.Encode(), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("%w: photo http %d", ErrPlacesUnavailable, resp.StatusCode)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *PlacesClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+path, nil)
	if err != nil {
		return err
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: http %d", ErrPlacesUnavailable, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toCafe(r placeResult) models.Cafe {
	cafe := models.Cafe{
		PlaceID:  r.PlaceID,
		Name:     r.Name,
		Vicinity: r.Vicinity,
		Address:  r.Address,
		Rating:   r.Rating,
		Location: models.GeoPoint{
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		},
	}
	if len(r.Photos) > 0 {
		cafe.PhotoRef = r.Photos[0].PhotoReference
	}
	return cafe
}
