// Package handlers applies server events to the vehicle and mission engines.
package handlers

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/OCAP2/gcs/internal/dispatcher"
	"github.com/OCAP2/gcs/internal/storage"
	"github.com/OCAP2/gcs/pkg/core"
	"github.com/OCAP2/gcs/pkg/streaming"
)

// Vehicles is the part of vehicles.Engine the handlers drive.
type Vehicles interface {
	Upsert(desc core.VehicleDescription)
	Remove(id string)
	UpdatePosition(id string, nav core.Navigation)
	UpdateAttitude(id string, flight core.Flight)
	UpdateStatus(status core.VehicleStatus)
	IDs() []string
}

// Missions is the part of missions.Engine the handlers drive.
type Missions interface {
	Upsert(m core.Mission)
	Remove(id string)
	UpdateRoute(route core.MissionRoute)
	UpsertRouteItem(id string, index int, item core.MissionRouteItem)
	RemoveRouteItem(id string, index int)
	UpdateStatus(status core.MissionStatus)
	IDs() []string
}

// Dependencies holds all dependencies needed by handlers.
type Dependencies struct {
	Vehicles Vehicles
	Missions Missions
	// Journal receives navigation samples. Optional.
	Journal storage.Backend
	Logger  *slog.Logger
}

// Service maps server events to engine calls. Its handlers must run on the
// map loop.
type Service struct {
	deps   Dependencies
	logger *slog.Logger
}

// NewService creates a new handler service.
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deps: deps, logger: logger.With("component", "handlers")}
}

// RegisterHandlers registers every feed event with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher, opts ...dispatcher.Option) {
	// Vehicles
	d.Register(streaming.TypeVehicleUpserted, s.handleVehicleUpserted, opts...)
	d.Register(streaming.TypeVehicleRemoved, s.handleVehicleRemoved, opts...)
	d.Register(streaming.TypeVehicleStatusUpdated, s.handleVehicleStatus, opts...)

	// Telemetry, high volume
	d.Register(streaming.TypeFlightUpdated, s.handleFlight, opts...)
	d.Register(streaming.TypeNavigationUpdated, s.handleNavigation, opts...)

	// Missions
	d.Register(streaming.TypeMissionUpserted, s.handleMissionUpserted, opts...)
	d.Register(streaming.TypeMissionRemoved, s.handleMissionRemoved, opts...)
	d.Register(streaming.TypeMissionStatusUpdated, s.handleMissionStatus, opts...)
	d.Register(streaming.TypeMissionRouteUpdated, s.handleRoute, opts...)
	d.Register(streaming.TypeMissionRouteItemUpserted, s.handleRouteItemUpserted, opts...)
	d.Register(streaming.TypeMissionRouteItemRemoved, s.handleRouteItemRemoved, opts...)
}

// ApplySnapshot reconciles both engines against full REST snapshots:
// everything listed is upserted, everything else is removed.
func (s *Service) ApplySnapshot(vehicles []core.VehicleDescription, missions []core.Mission) {
	seen := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		if v.ID == "" {
			continue
		}
		seen = append(seen, v.ID)
		s.deps.Vehicles.Upsert(v)
	}
	for _, id := range s.deps.Vehicles.IDs() {
		if !slices.Contains(seen, id) {
			s.deps.Vehicles.Remove(id)
		}
	}

	seen = seen[:0]
	for _, m := range missions {
		if m.ID == "" {
			continue
		}
		seen = append(seen, m.ID)
		s.deps.Missions.Upsert(m)
	}
	for _, id := range s.deps.Missions.IDs() {
		if !slices.Contains(seen, id) {
			s.deps.Missions.Remove(id)
		}
	}
	s.logger.Info("snapshot applied", "vehicles", len(vehicles), "missions", len(missions))
}

// payload asserts the concrete event type. A mismatch means the dispatcher
// was fed an event under the wrong type.
func payload[T core.ServerEvent](e dispatcher.Event) (T, error) {
	p, ok := e.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: unexpected payload %T", e.Type, e.Payload)
	}
	return p, nil
}

func (s *Service) skip(e dispatcher.Event, reason string) error {
	s.logger.Debug("skipping event", "type", e.Type, "reason", reason)
	return nil
}

func (s *Service) handleVehicleUpserted(e dispatcher.Event) error {
	p, err := payload[core.VehicleUpserted](e)
	if err != nil {
		return err
	}
	if p.Vehicle.ID == "" {
		return s.skip(e, "missing vehicle id")
	}
	s.deps.Vehicles.Upsert(p.Vehicle)
	return nil
}

func (s *Service) handleVehicleRemoved(e dispatcher.Event) error {
	p, err := payload[core.VehicleRemoved](e)
	if err != nil {
		return err
	}
	if p.VehicleID == "" {
		return s.skip(e, "missing vehicle id")
	}
	s.deps.Vehicles.Remove(p.VehicleID)
	return nil
}

func (s *Service) handleVehicleStatus(e dispatcher.Event) error {
	p, err := payload[core.VehicleStatusUpdated](e)
	if err != nil {
		return err
	}
	if p.Status.ID == "" {
		return s.skip(e, "missing vehicle id")
	}
	s.deps.Vehicles.UpdateStatus(p.Status)
	return nil
}

func (s *Service) handleFlight(e dispatcher.Event) error {
	p, err := payload[core.FlightUpdated](e)
	if err != nil {
		return err
	}
	if p.VehicleID == "" {
		return s.skip(e, "missing vehicle id")
	}
	s.deps.Vehicles.UpdateAttitude(p.VehicleID, p.Flight)
	return nil
}

func (s *Service) handleNavigation(e dispatcher.Event) error {
	p, err := payload[core.NavigationUpdated](e)
	if err != nil {
		return err
	}
	if p.VehicleID == "" {
		return s.skip(e, "missing vehicle id")
	}
	s.deps.Vehicles.UpdatePosition(p.VehicleID, p.Navigation)

	if s.deps.Journal == nil {
		return nil
	}
	r := storage.NewNavigationRecord(p.VehicleID, p.Navigation)
	if err := s.deps.Journal.RecordNavigation(&r); err != nil {
		return fmt.Errorf("journal navigation of %s: %w", p.VehicleID, err)
	}
	return nil
}

func (s *Service) handleMissionUpserted(e dispatcher.Event) error {
	p, err := payload[core.MissionUpserted](e)
	if err != nil {
		return err
	}
	if p.Mission.ID == "" {
		return s.skip(e, "missing mission id")
	}
	s.deps.Missions.Upsert(p.Mission)
	return nil
}

func (s *Service) handleMissionRemoved(e dispatcher.Event) error {
	p, err := payload[core.MissionRemoved](e)
	if err != nil {
		return err
	}
	if p.MissionID == "" {
		return s.skip(e, "missing mission id")
	}
	s.deps.Missions.Remove(p.MissionID)
	return nil
}

func (s *Service) handleMissionStatus(e dispatcher.Event) error {
	p, err := payload[core.MissionStatusUpdated](e)
	if err != nil {
		return err
	}
	if p.Status.ID == "" {
		return s.skip(e, "missing mission id")
	}
	s.deps.Missions.UpdateStatus(p.Status)
	return nil
}

func (s *Service) handleRoute(e dispatcher.Event) error {
	p, err := payload[core.MissionRouteUpdated](e)
	if err != nil {
		return err
	}
	if p.Route.ID == "" {
		return s.skip(e, "missing mission id")
	}
	s.deps.Missions.UpdateRoute(p.Route)
	return nil
}

func (s *Service) handleRouteItemUpserted(e dispatcher.Event) error {
	p, err := payload[core.MissionRouteItemUpserted](e)
	if err != nil {
		return err
	}
	if p.MissionID == "" {
		return s.skip(e, "missing mission id")
	}
	if p.Index < 0 {
		return s.skip(e, "negative index")
	}
	s.deps.Missions.UpsertRouteItem(p.MissionID, p.Index, p.Item)
	return nil
}

func (s *Service) handleRouteItemRemoved(e dispatcher.Event) error {
	p, err := payload[core.MissionRouteItemRemoved](e)
	if err != nil {
		return err
	}
	if p.MissionID == "" {
		return s.skip(e, "missing mission id")
	}
	if p.Index < 0 {
		return s.skip(e, "negative index")
	}
	s.deps.Missions.RemoveRouteItem(p.MissionID, p.Index)
	return nil
}
