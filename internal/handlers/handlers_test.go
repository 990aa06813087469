package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/gcs/internal/config"
	"github.com/OCAP2/gcs/internal/dispatcher"
	"github.com/OCAP2/gcs/internal/storage"
	"github.com/OCAP2/gcs/internal/storage/memory"
	"github.com/OCAP2/gcs/pkg/core"
	"github.com/OCAP2/gcs/pkg/streaming"
)

// fakeVehicles records engine calls as strings.
type fakeVehicles struct {
	calls []string
	ids   []string
}

func (f *fakeVehicles) Upsert(d core.VehicleDescription) { f.calls = append(f.calls, "upsert "+d.ID) }
func (f *fakeVehicles) Remove(id string)                 { f.calls = append(f.calls, "remove "+id) }
func (f *fakeVehicles) UpdatePosition(id string, _ core.Navigation) {
	f.calls = append(f.calls, "position "+id)
}
func (f *fakeVehicles) UpdateAttitude(id string, _ core.Flight) {
	f.calls = append(f.calls, "attitude "+id)
}
func (f *fakeVehicles) UpdateStatus(s core.VehicleStatus) { f.calls = append(f.calls, "status "+s.ID) }
func (f *fakeVehicles) IDs() []string                     { return f.ids }

type fakeMissions struct {
	calls []string
	ids   []string
}

func (f *fakeMissions) Upsert(m core.Mission) { f.calls = append(f.calls, "upsert "+m.ID) }
func (f *fakeMissions) Remove(id string)      { f.calls = append(f.calls, "remove "+id) }
func (f *fakeMissions) UpdateRoute(r core.MissionRoute) {
	f.calls = append(f.calls, "route "+r.ID)
}
func (f *fakeMissions) UpsertRouteItem(id string, index int, _ core.MissionRouteItem) {
	f.calls = append(f.calls, "item "+id+" "+string(rune('0'+index)))
}
func (f *fakeMissions) RemoveRouteItem(id string, index int) {
	f.calls = append(f.calls, "delete "+id+" "+string(rune('0'+index)))
}
func (f *fakeMissions) UpdateStatus(s core.MissionStatus) { f.calls = append(f.calls, "status "+s.ID) }
func (f *fakeMissions) IDs() []string                     { return f.ids }

type failingJournal struct{ storage.Backend }

func (failingJournal) RecordNavigation(*storage.NavigationRecord) error {
	return errors.New("disk full")
}

type fixture struct {
	d        *dispatcher.Dispatcher
	s        *Service
	vehicles *fakeVehicles
	missions *fakeMissions
	journal  *memory.Backend
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func newTestService(t *testing.T) *fixture {
	t.Helper()
	d, err := dispatcher.New(nopLogger{})
	require.NoError(t, err)

	f := &fixture{
		d:        d,
		vehicles: &fakeVehicles{},
		missions: &fakeMissions{},
		journal:  memory.New(config.MemoryConfig{}),
	}
	f.s = NewService(Dependencies{
		Vehicles: f.vehicles,
		Missions: f.missions,
		Journal:  f.journal,
	})
	f.s.RegisterHandlers(d, dispatcher.Logged())
	return f
}

func (f *fixture) dispatch(t *testing.T, ev core.ServerEvent) {
	t.Helper()
	require.NoError(t, f.d.Dispatch(dispatcher.NewEvent(ev)))
}

func TestRegistersEveryFeedType(t *testing.T) {
	f := newTestService(t)

	for _, typ := range []string{
		streaming.TypeVehicleUpserted,
		streaming.TypeVehicleRemoved,
		streaming.TypeVehicleStatusUpdated,
		streaming.TypeFlightUpdated,
		streaming.TypeNavigationUpdated,
		streaming.TypeMissionUpserted,
		streaming.TypeMissionRemoved,
		streaming.TypeMissionStatusUpdated,
		streaming.TypeMissionRouteUpdated,
		streaming.TypeMissionRouteItemUpserted,
		streaming.TypeMissionRouteItemRemoved,
	} {
		assert.True(t, f.d.HasHandler(typ), typ)
	}
}

func TestVehicleEvents(t *testing.T) {
	f := newTestService(t)

	f.dispatch(t, core.VehicleUpserted{Vehicle: core.VehicleDescription{ID: "v1"}})
	f.dispatch(t, core.VehicleStatusUpdated{Status: core.VehicleStatus{ID: "v1", IsOnline: true}})
	f.dispatch(t, core.FlightUpdated{VehicleID: "v1"})
	f.dispatch(t, core.VehicleRemoved{VehicleID: "v1"})

	assert.Equal(t, []string{"upsert v1", "status v1", "attitude v1", "remove v1"}, f.vehicles.calls)
}

func TestNavigationIsJournaled(t *testing.T) {
	f := newTestService(t)

	pos := core.Geodetic{Latitude: 45, Longitude: 10, Altitude: 100, Frame: core.FrameAboveSeaLevel}
	f.dispatch(t, core.NavigationUpdated{VehicleID: "v1", Navigation: core.Navigation{Timestamp: 1700000000000, Position: pos}})

	assert.Equal(t, []string{"position v1"}, f.vehicles.calls)
	rec, ok := f.journal.Track("v1")
	require.True(t, ok)
	require.Len(t, rec.Samples, 1)
	assert.Equal(t, pos, rec.Samples[0].Position)
	assert.Equal(t, int64(1700000000000), rec.Samples[0].Time.UnixMilli())
}

func TestNavigationJournalError(t *testing.T) {
	f := newTestService(t)
	f.s.deps.Journal = failingJournal{}

	err := f.d.Dispatch(dispatcher.NewEvent(core.NavigationUpdated{VehicleID: "v1"}))
	assert.ErrorContains(t, err, "disk full")
	// the position is applied before journaling
	assert.Equal(t, []string{"position v1"}, f.vehicles.calls)
}

func TestMissionEvents(t *testing.T) {
	f := newTestService(t)

	f.dispatch(t, core.MissionUpserted{Mission: core.Mission{ID: "m1"}})
	f.dispatch(t, core.MissionRouteUpdated{Route: core.MissionRoute{ID: "m1"}})
	f.dispatch(t, core.MissionRouteItemUpserted{MissionID: "m1", Index: 2})
	f.dispatch(t, core.MissionRouteItemRemoved{MissionID: "m1", Index: 1})
	f.dispatch(t, core.MissionStatusUpdated{Status: core.MissionStatus{ID: "m1"}})
	f.dispatch(t, core.MissionRemoved{MissionID: "m1"})

	assert.Equal(t, []string{
		"upsert m1",
		"route m1",
		"item m1 2",
		"delete m1 1",
		"status m1",
		"remove m1",
	}, f.missions.calls)
}

func TestMissingIDsAreSkipped(t *testing.T) {
	f := newTestService(t)

	f.dispatch(t, core.VehicleUpserted{})
	f.dispatch(t, core.VehicleRemoved{})
	f.dispatch(t, core.VehicleStatusUpdated{})
	f.dispatch(t, core.FlightUpdated{})
	f.dispatch(t, core.NavigationUpdated{})
	f.dispatch(t, core.MissionUpserted{})
	f.dispatch(t, core.MissionRemoved{})
	f.dispatch(t, core.MissionStatusUpdated{})
	f.dispatch(t, core.MissionRouteUpdated{})
	f.dispatch(t, core.MissionRouteItemUpserted{Index: 0})
	f.dispatch(t, core.MissionRouteItemUpserted{MissionID: "m1", Index: -1})
	f.dispatch(t, core.MissionRouteItemRemoved{MissionID: "m1", Index: -1})

	assert.Empty(t, f.vehicles.calls)
	assert.Empty(t, f.missions.calls)
	assert.Empty(t, f.journal.Proposals())
}

func TestWrongPayloadType(t *testing.T) {
	f := newTestService(t)

	err := f.d.Dispatch(dispatcher.Event{Type: streaming.TypeVehicleRemoved, Payload: core.MissionRemoved{MissionID: "m1"}})
	assert.ErrorContains(t, err, "unexpected payload")
	assert.Empty(t, f.missions.calls)
}

func TestApplySnapshot(t *testing.T) {
	f := newTestService(t)
	f.vehicles.ids = []string{"v1", "stale"}
	f.missions.ids = []string{"m1", "m2"}

	f.s.ApplySnapshot(
		[]core.VehicleDescription{{ID: "v1"}, {ID: ""}, {ID: "v2"}},
		[]core.Mission{{ID: "m2"}},
	)

	assert.Equal(t, []string{"upsert v1", "upsert v2", "remove stale"}, f.vehicles.calls)
	assert.Equal(t, []string{"upsert m2", "remove m1"}, f.missions.calls)
}
