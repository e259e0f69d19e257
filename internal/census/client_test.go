package census

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const mapStatePayload = `{
	"map_list": [
		{
			"ZoneId": "2",
			"Regions": {
				"IsList": "1",
				"Row": [
					{"RowData": {"RegionId": "2101", "FactionId": "1"}},
					{"RowData": {"RegionId": "2102", "FactionId": "3"}}
				]
			}
		},
		{
			"ZoneId": "4",
			"Regions": {
				"IsList": "1",
				"Row": [
					{"RowData": {"RegionId": "4201", "FactionId": "2"}}
				]
			}
		}
	],
	"returned": 2
}`

func TestMapState_DecodesNestedPayload(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(mapStatePayload))
	}))
	defer srv.Close()

	c := NewClient("s:example", srv.URL)
	regions, err := c.MapState(context.Background(), 17, []int{2, 4})
	if err != nil {
		t.Fatalf("MapState() error = %v", err)
	}

	if gotPath != "/s:example/get/ps2:v2/map/" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotQuery != "world_id=17&zone_ids=2%2C4" {
		t.Errorf("request query = %q", gotQuery)
	}

	want := []RegionOwnership{
		{RegionID: 2101, FactionID: 1},
		{RegionID: 2102, FactionID: 3},
		{RegionID: 4201, FactionID: 2},
	}
	if len(regions) != len(want) {
		t.Fatalf("MapState() returned %d regions, want %d", len(regions), len(want))
	}
	for i, region := range regions {
		if region != want[i] {
			t.Errorf("region %d = %+v, want %+v", i, region, want[i])
		}
	}
}

func TestMapState_ErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("s:example", srv.URL)
	if _, err := c.MapState(context.Background(), 17, []int{2}); err == nil {
		t.Error("MapState() error = nil, want non-nil on HTTP 503")
	}
}

func TestMapHexes_Decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"map_hex_list": [{"x": "1", "y": "0"}, {"x": "-2", "y": "3"}]}`))
	}))
	defer srv.Close()

	c := NewClient("s:example", srv.URL)
	hexes, err := c.MapHexes(context.Background(), 2101)
	if err != nil {
		t.Fatalf("MapHexes() error = %v", err)
	}
	want := []MapHex{{X: 1, Y: 0}, {X: -2, Y: 3}}
	if len(hexes) != 2 || hexes[0] != want[0] || hexes[1] != want[1] {
		t.Errorf("MapHexes() = %v, want %v", hexes, want)
	}
}
