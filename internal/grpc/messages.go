package grpcserver

import "time"

type ScheduleDeliveryRequest struct {
	DeliveryID string    `json:"delivery_id"`
	At         time.Time `json:"at"`
}

type ScheduleDeliveryResponse struct {
	Accepted bool   `json:"accepted"`
	DroneID  string `json:"drone_id"`
}

type GetNextDeliveryRequest struct {
	After time.Time `json:"after"`
}

// GetNextDeliveryResponse has Found=false when no delivery is scheduled after the instant.
type GetNextDeliveryResponse struct {
	Found      bool   `json:"found"`
	DeliveryID string `json:"delivery_id,omitempty"`
	DroneID    string `json:"drone_id,omitempty"`
}

type GetCurrentPlanningRequest struct {
	DroneID string `json:"drone_id"`
}

type GetCurrentPlanningResponse struct {
	DroneID string   `json:"drone_id"`
	States  []string `json:"states"`
}

// ResetDayRequest clears one drone, or the whole fleet when DroneID is empty.
type ResetDayRequest struct {
	DroneID string `json:"drone_id,omitempty"`
}

type ResetDayResponse struct {
	Reset int `json:"reset"`
}

type RegisterDroneRequest struct {
	DroneID    string `json:"drone_id"`
	FlightTime int    `json:"flight_time"`
}

type RegisterDroneResponse struct {
	DroneID string `json:"drone_id"`
}

// AddFlightTimeRequest adds Delta to the drone's flight time, in the same unit
// as the review threshold.
type AddFlightTimeRequest struct {
	DroneID string `json:"drone_id"`
	Delta   int    `json:"delta"`
}

type AddFlightTimeResponse struct{}

type ListDronesRequest struct{}

type DroneInfo struct {
	DroneID    string `json:"drone_id"`
	FlightTime int    `json:"flight_time"`
	Planned    bool   `json:"planned"`
	Deliveries int    `json:"deliveries"`
}

type ListDronesResponse struct {
	Drones []DroneInfo `json:"drones"`
}

type RemoveDroneRequest struct {
	DroneID string `json:"drone_id"`
}

type RemoveDroneResponse struct{}

type ListDeliveriesRequest struct {
	DroneID string `json:"drone_id"`
}

type DeliveryInfo struct {
	DeliveryID string `json:"delivery_id"`
	CreatedAt  string `json:"created_at"`
}

type ListDeliveriesResponse struct {
	DroneID    string         `json:"drone_id"`
	Deliveries []DeliveryInfo `json:"deliveries"`
}
