package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"ps2map-controller/internal/domain"
)

type fakeSource struct {
	batches [][]domain.Blip
	err     error
	calls   int
}

func (s *fakeSource) PopBlips(ctx context.Context, olderThan time.Time) ([]domain.Blip, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next, nil
}

type recordingHandler struct {
	name    string
	batches []domain.Batch
}

func (h *recordingHandler) Handle(batch domain.Batch) {
	h.batches = append(h.batches, batch)
}

func baseControl(serverID, baseID, oldFaction, newFaction int) domain.BaseControl {
	return domain.BaseControl{
		BlipMeta: domain.BlipMeta{
			Timestamp: time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
			ServerID:  serverID,
		},
		BaseID:       baseID,
		OldFactionID: oldFaction,
		NewFactionID: newFaction,
	}
}

func playerBlip(serverID, playerID, baseID int) domain.PlayerBlip {
	return domain.PlayerBlip{
		BlipMeta: domain.BlipMeta{
			Timestamp: time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
			ServerID:  serverID,
		},
		PlayerID: playerID,
		BaseID:   baseID,
	}
}

func TestDispatch_GroupsByKindAndServer(t *testing.T) {
	d := New(&fakeSource{}, time.Second, time.Second)
	h := &recordingHandler{}
	d.AddHandler(h)

	// [A@server1, A@server2, B@server1] must produce exactly three
	// batches, one per (kind, server) pair, never mixing either.
	d.dispatch([]domain.Blip{
		baseControl(1, 100, 1, 2),
		baseControl(2, 200, 2, 3),
		playerBlip(1, 5000, 100),
	})

	if len(h.batches) != 3 {
		t.Fatalf("Handle called %d times, want 3", len(h.batches))
	}
	want := []struct {
		kind     domain.Kind
		serverID int
		count    int
	}{
		{domain.KindBaseControl, 1, 1},
		{domain.KindBaseControl, 2, 1},
		{domain.KindPlayer, 1, 1},
	}
	for i, batch := range h.batches {
		if batch.Kind != want[i].kind || batch.ServerID != want[i].serverID {
			t.Errorf("batch %d = (%s, %d), want (%s, %d)",
				i, batch.Kind, batch.ServerID, want[i].kind, want[i].serverID)
		}
		if len(batch.Blips) != want[i].count {
			t.Errorf("batch %d holds %d blips, want %d", i, len(batch.Blips), want[i].count)
		}
		for _, blip := range batch.Blips {
			if blip.Kind() != batch.Kind {
				t.Errorf("batch %d mixes kinds: found %s", i, blip.Kind())
			}
			if blip.Meta().ServerID != batch.ServerID {
				t.Errorf("batch %d mixes servers: found %d", i, blip.Meta().ServerID)
			}
		}
	}
}

func TestDispatch_PreservesFetchOrderWithinGroup(t *testing.T) {
	d := New(&fakeSource{}, time.Second, time.Second)
	h := &recordingHandler{}
	d.AddHandler(h)

	d.dispatch([]domain.Blip{
		baseControl(17, 100, 1, 2),
		baseControl(17, 100, 2, 3),
	})

	if len(h.batches) != 1 {
		t.Fatalf("Handle called %d times, want 1", len(h.batches))
	}
	blips := h.batches[0].Blips
	if len(blips) != 2 {
		t.Fatalf("batch holds %d blips, want 2", len(blips))
	}
	first := blips[0].(domain.BaseControl)
	second := blips[1].(domain.BaseControl)
	if first.NewFactionID != 2 || second.NewFactionID != 3 {
		t.Errorf("fetch order not preserved: got new factions %d, %d",
			first.NewFactionID, second.NewFactionID)
	}
}

func TestDispatch_HandlersCalledInRegistrationOrder(t *testing.T) {
	d := New(&fakeSource{}, time.Second, time.Second)
	var order []string
	first := &orderedHandler{name: "first", order: &order}
	second := &orderedHandler{name: "second", order: &order}
	d.AddHandler(first)
	d.AddHandler(second)

	d.dispatch([]domain.Blip{baseControl(1, 100, 1, 2)})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handler order = %v, want [first second]", order)
	}
}

type orderedHandler struct {
	name  string
	order *[]string
}

func (h *orderedHandler) Handle(batch domain.Batch) {
	*h.order = append(*h.order, h.name)
}

func TestRun_FetchErrorIsFatal(t *testing.T) {
	errBuffer := errors.New("buffer gone")
	d := New(&fakeSource{err: errBuffer}, time.Millisecond, time.Second)

	err := d.Run(context.Background())
	if !errors.Is(err, errBuffer) {
		t.Errorf("Run() error = %v, want wrapped %v", err, errBuffer)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	d := New(&fakeSource{}, time.Millisecond, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestRun_DispatchesFetchedBlips(t *testing.T) {
	source := &fakeSource{batches: [][]domain.Blip{
		{baseControl(17, 100, 1, 2), baseControl(17, 100, 2, 3)},
	}}
	d := New(source, time.Millisecond, time.Second)
	h := &recordingHandler{}
	d.AddHandler(h)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = d.Run(ctx)

	if len(h.batches) != 1 {
		t.Fatalf("Handle called %d times, want 1", len(h.batches))
	}
	if h.batches[0].ServerID != 17 || len(h.batches[0].Blips) != 2 {
		t.Errorf("batch = (%d, %d blips), want server 17 with 2 blips",
			h.batches[0].ServerID, len(h.batches[0].Blips))
	}
}
