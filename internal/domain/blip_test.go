package domain

import (
	"testing"
	"time"
)

func TestBlip_KindAndMeta(t *testing.T) {
	meta := BlipMeta{
		Timestamp:   time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
		ServerID:    17,
		ContinentID: 2,
	}

	tests := []struct {
		name string
		blip Blip
		want Kind
	}{
		{"base control", BaseControl{BlipMeta: meta, BaseID: 100}, KindBaseControl},
		{"player", PlayerBlip{BlipMeta: meta, PlayerID: 5000}, KindPlayer},
		{"relative player", RelativePlayerBlip{BlipMeta: meta, PlayerAID: 1, PlayerBID: 2}, KindRelativePlayer},
		{"outfit", OutfitBlip{BlipMeta: meta, OutfitID: 42}, KindOutfit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.blip.Kind(); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
			if got := tt.blip.Meta(); got != meta {
				t.Errorf("Meta() = %+v, want %+v", got, meta)
			}
		})
	}
}
