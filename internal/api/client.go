// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OCAP2/gcs/pkg/core"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// Client handles communication with the ground station REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. A zero timeout means 30 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Healthcheck checks if the server is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// GetVehicles fetches the vehicle descriptions snapshot.
func (c *Client) GetVehicles(ctx context.Context) ([]core.VehicleDescription, error) {
	var out []core.VehicleDescription
	if err := c.getJSON(ctx, "/vehicles", &out); err != nil {
		return nil, fmt.Errorf("get vehicles: %w", err)
	}
	return out, nil
}

// GetMissions fetches all missions with their routes.
func (c *Client) GetMissions(ctx context.Context) ([]core.Mission, error) {
	var out []core.Mission
	if err := c.getJSON(ctx, "/missions/missions", &out); err != nil {
		return nil, fmt.Errorf("get missions: %w", err)
	}
	return out, nil
}

// SetRouteItem replaces the route item at index, or appends it when index
// equals the route length.
func (c *Client) SetRouteItem(ctx context.Context, missionID string, index int, item core.MissionRouteItem) error {
	path := fmt.Sprintf("/missions/%s/upsert_route_item/%d", missionID, index)
	if err := c.postJSON(ctx, path, item); err != nil {
		return fmt.Errorf("upsert route item %s/%d: %w", missionID, index, err)
	}
	return nil
}

type vehicleExecutor struct {
	VehicleID string `json:"vehicle_id"`
}

type executeCommandRequest struct {
	Command  json.RawMessage            `json:"command"`
	Executor map[string]vehicleExecutor `json:"executor"`
}

// ExecuteCommand asks the server to run cmd on a vehicle.
func (c *Client) ExecuteCommand(ctx context.Context, vehicleID string, cmd core.VehicleCommand) error {
	raw, err := core.MarshalCommand(cmd)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", cmd.CommandName(), err)
	}
	req := executeCommandRequest{
		Command:  raw,
		Executor: map[string]vehicleExecutor{"Vehicle": {VehicleID: vehicleID}},
	}
	if err := c.postJSON(ctx, "/commands/execute/", req); err != nil {
		return fmt.Errorf("execute %s on %s: %w", cmd.CommandName(), vehicleID, err)
	}
	return nil
}

// Publish sends an operator proposal as the matching command or route edit.
func (c *Client) Publish(ctx context.Context, p core.Proposal) error {
	switch p := p.(type) {
	case core.HomeProposed:
		return c.ExecuteCommand(ctx, p.VehicleID, core.SetReturn{Position: p.Position})
	case core.TargetProposed:
		return c.ExecuteCommand(ctx, p.VehicleID, core.NavTo{Position: p.Position})
	case core.RouteItemProposed:
		item := p.Item
		pos := p.Position
		item.Position = &pos
		return c.SetRouteItem(ctx, p.MissionID, p.Index, item)
	default:
		return fmt.Errorf("unsupported proposal %T", p)
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
