package grpcserver

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"droneDeliveryScheduler/models"
)

// Client calls ScheduleService. Scheduling failures come back as schedule.ErrXxx values.
type Client struct {
	conn  grpc.ClientConnInterface
	token string
}

// NewClient wraps an existing connection. token is sent as a Bearer JWT on every call.
func NewClient(conn grpc.ClientConnInterface, token string) *Client {
	return &Client{conn: conn, token: token}
}

// Dial opens a plaintext connection to addr.
func Dial(addr, token string, opts ...grpc.DialOption) (*Client, func() error, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return NewClient(conn, token), conn.Close, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	err := c.conn.Invoke(ctx, "/"+serviceName+"/"+method, req, resp, grpc.CallContentSubtype(codecName))
	return fromStatus(err)
}

// ScheduleDelivery returns the id of the drone the delivery was booked on.
func (c *Client) ScheduleDelivery(ctx context.Context, deliveryID string, at time.Time) (string, error) {
	var resp ScheduleDeliveryResponse
	if err := c.invoke(ctx, "ScheduleDelivery", &ScheduleDeliveryRequest{DeliveryID: deliveryID, At: at}, &resp); err != nil {
		return "", err
	}
	return resp.DroneID, nil
}

// NextDelivery returns nil when nothing is scheduled after the instant.
func (c *Client) NextDelivery(ctx context.Context, after time.Time) (*models.Delivery, error) {
	var resp GetNextDeliveryResponse
	if err := c.invoke(ctx, "GetNextDelivery", &GetNextDeliveryRequest{After: after}, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	droneID := resp.DroneID
	return &models.Delivery{ID: resp.DeliveryID, DroneID: &droneID}, nil
}

func (c *Client) CurrentPlanning(ctx context.Context, droneID string) ([]models.State, error) {
	var resp GetCurrentPlanningResponse
	if err := c.invoke(ctx, "GetCurrentPlanning", &GetCurrentPlanningRequest{DroneID: droneID}, &resp); err != nil {
		return nil, err
	}
	plan := make([]models.State, len(resp.States))
	for i, s := range resp.States {
		plan[i] = models.State(s)
	}
	return plan, nil
}

func (c *Client) ResetDay(ctx context.Context, droneID string) (int, error) {
	var resp ResetDayResponse
	if err := c.invoke(ctx, "ResetDay", &ResetDayRequest{DroneID: droneID}, &resp); err != nil {
		return 0, err
	}
	return resp.Reset, nil
}

func (c *Client) RegisterDrone(ctx context.Context, droneID string, flightTime int) error {
	return c.invoke(ctx, "RegisterDrone", &RegisterDroneRequest{DroneID: droneID, FlightTime: flightTime}, &RegisterDroneResponse{})
}

func (c *Client) AddFlightTime(ctx context.Context, droneID string, delta int) error {
	return c.invoke(ctx, "AddFlightTime", &AddFlightTimeRequest{DroneID: droneID, Delta: delta}, &AddFlightTimeResponse{})
}

func (c *Client) RemoveDrone(ctx context.Context, droneID string) error {
	return c.invoke(ctx, "RemoveDrone", &RemoveDroneRequest{DroneID: droneID}, &RemoveDroneResponse{})
}

// Deliveries lists the deliveries bound to a drone, oldest first.
func (c *Client) Deliveries(ctx context.Context, droneID string) ([]models.Delivery, error) {
	var resp ListDeliveriesResponse
	if err := c.invoke(ctx, "ListDeliveries", &ListDeliveriesRequest{DroneID: droneID}, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Delivery, len(resp.Deliveries))
	for i, d := range resp.Deliveries {
		id := resp.DroneID
		out[i] = models.Delivery{ID: d.DeliveryID, DroneID: &id, CreatedAt: d.CreatedAt}
	}
	return out, nil
}

func (c *Client) ListDrones(ctx context.Context) ([]DroneInfo, error) {
	var resp ListDronesResponse
	if err := c.invoke(ctx, "ListDrones", &ListDronesRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Drones, nil
}
