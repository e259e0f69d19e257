// Package census accesses the external game read API used to bootstrap
// the ownership state and to fetch static map geometry.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://census.daybreakgames.com"

// RegionOwnership is one region's controlling faction from a point-in-time
// map snapshot. The snapshot source provides no per-region timestamp.
type RegionOwnership struct {
	RegionID  int
	FactionID int
}

// MapHex is a single hexagonal map tile belonging to a facility.
type MapHex struct {
	X int
	Y int
}

// Client queries the census REST API. All requests carry the configured
// service ID credential.
type Client struct {
	serviceID string
	baseURL   string
	http      *http.Client
}

// NewClient returns a census client authenticating as serviceID. An empty
// baseURL selects the public census endpoint.
func NewClient(serviceID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		serviceID: serviceID,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// The map endpoint nests its payload three levels deep for no discernible
// reason; these types exist purely to peel it apart.
type mapStateResponse struct {
	MapList []struct {
		ZoneID  jsonInt `json:"ZoneId"`
		Regions struct {
			Row []struct {
				RowData struct {
					RegionID  jsonInt `json:"RegionId"`
					FactionID jsonInt `json:"FactionId"`
				} `json:"RowData"`
			} `json:"Row"`
		} `json:"Regions"`
	} `json:"map_list"`
}

type mapHexResponse struct {
	MapHexList []struct {
		X jsonInt `json:"x"`
		Y jsonInt `json:"y"`
	} `json:"map_hex_list"`
}

// jsonInt decodes the API's string-encoded integers.
type jsonInt int

func (i *jsonInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer field %q: %w", s, err)
	}
	*i = jsonInt(v)
	return nil
}

// MapState returns the full region ownership snapshot for one server
// across the given continents. Servers cannot be batched; the caller
// loops over them one by one.
func (c *Client) MapState(ctx context.Context, serverID int, continentIDs []int) ([]RegionOwnership, error) {
	zones := make([]string, len(continentIDs))
	for i, id := range continentIDs {
		zones[i] = strconv.Itoa(id)
	}
	params := url.Values{}
	params.Set("world_id", strconv.Itoa(serverID))
	params.Set("zone_ids", strings.Join(zones, ","))

	var payload mapStateResponse
	if err := c.get(ctx, "/get/ps2:v2/map/", params, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch map state for server %d: %w", serverID, err)
	}

	var regions []RegionOwnership
	for _, zone := range payload.MapList {
		for _, row := range zone.Regions.Row {
			regions = append(regions, RegionOwnership{
				RegionID:  int(row.RowData.RegionID),
				FactionID: int(row.RowData.FactionID),
			})
		}
	}
	log.WithFields(log.Fields{
		"server_id": serverID,
		"regions":   len(regions),
	}).Debug("Fetched map state snapshot")
	return regions, nil
}

// MapHexes returns the hex tiles making up a facility's footprint.
func (c *Client) MapHexes(ctx context.Context, baseID int) ([]MapHex, error) {
	params := url.Values{}
	params.Set("map_region_id", strconv.Itoa(baseID))
	params.Set("c:limit", "1000")

	var payload mapHexResponse
	if err := c.get(ctx, "/get/ps2:v2/map_hex/", params, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch map hexes for base %d: %w", baseID, err)
	}

	hexes := make([]MapHex, len(payload.MapHexList))
	for i, h := range payload.MapHexList {
		hexes[i] = MapHex{X: int(h.X), Y: int(h.Y)}
	}
	return hexes, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/%s%s?%s", c.baseURL, c.serviceID, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
