package grpcserver

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneDeliveryScheduler/internal/auth"
	"droneDeliveryScheduler/internal/schedule"
	"droneDeliveryScheduler/models"
)

const serviceName = "schedule.v1.ScheduleService"

// ScheduleServiceServer is the server API of schedule.v1.ScheduleService.
type ScheduleServiceServer interface {
	ScheduleDelivery(context.Context, *ScheduleDeliveryRequest) (*ScheduleDeliveryResponse, error)
	GetNextDelivery(context.Context, *GetNextDeliveryRequest) (*GetNextDeliveryResponse, error)
	GetCurrentPlanning(context.Context, *GetCurrentPlanningRequest) (*GetCurrentPlanningResponse, error)
	ResetDay(context.Context, *ResetDayRequest) (*ResetDayResponse, error)
	RegisterDrone(context.Context, *RegisterDroneRequest) (*RegisterDroneResponse, error)
	AddFlightTime(context.Context, *AddFlightTimeRequest) (*AddFlightTimeResponse, error)
	ListDrones(context.Context, *ListDronesRequest) (*ListDronesResponse, error)
	RemoveDrone(context.Context, *RemoveDroneRequest) (*RemoveDroneResponse, error)
	ListDeliveries(context.Context, *ListDeliveriesRequest) (*ListDeliveriesResponse, error)
}

// ScheduleServer implements schedule.v1.ScheduleService on top of the scheduler.
type ScheduleServer struct {
	Scheduler *schedule.Scheduler
}

// ScheduleDelivery books a delivery on the first free drone at the requested slot.
func (s *ScheduleServer) ScheduleDelivery(ctx context.Context, req *ScheduleDeliveryRequest) (*ScheduleDeliveryResponse, error) {
	if _, err := auth.RequireDispatcher(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.DeliveryID) == "" {
		return nil, status.Error(codes.InvalidArgument, "delivery_id is required")
	}
	if req.At.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "at is required")
	}
	d := &models.Delivery{ID: strings.TrimSpace(req.DeliveryID)}
	ok, err := s.Scheduler.ScheduleDelivery(ctx, req.At, d)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &ScheduleDeliveryResponse{Accepted: ok}
	if d.DroneID != nil {
		resp.DroneID = *d.DroneID
	}
	return resp, nil
}

// GetNextDelivery returns the earliest delivery strictly after the given instant.
func (s *ScheduleServer) GetNextDelivery(ctx context.Context, req *GetNextDeliveryRequest) (*GetNextDeliveryResponse, error) {
	if _, err := auth.RequireKind(ctx, auth.KindDrone, auth.KindDispatcher, auth.KindAdmin); err != nil {
		return nil, err
	}
	d, err := s.Scheduler.NextDelivery(ctx, req.After)
	if err != nil {
		return nil, toStatus(err)
	}
	if d == nil {
		return &GetNextDeliveryResponse{}, nil
	}
	resp := &GetNextDeliveryResponse{Found: true, DeliveryID: d.ID}
	if d.DroneID != nil {
		resp.DroneID = *d.DroneID
	}
	return resp, nil
}

func (s *ScheduleServer) GetCurrentPlanning(ctx context.Context, req *GetCurrentPlanningRequest) (*GetCurrentPlanningResponse, error) {
	if strings.TrimSpace(req.DroneID) == "" {
		return nil, status.Error(codes.InvalidArgument, "drone_id is required")
	}
	if _, err := auth.RequireDroneOrStaff(ctx, req.DroneID); err != nil {
		return nil, err
	}
	plan, err := s.Scheduler.CurrentPlanning(ctx, req.DroneID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &GetCurrentPlanningResponse{DroneID: req.DroneID, States: make([]string, len(plan))}
	for i, st := range plan {
		resp.States[i] = string(st)
	}
	return resp, nil
}

func (s *ScheduleServer) ResetDay(ctx context.Context, req *ResetDayRequest) (*ResetDayResponse, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	n, err := s.Scheduler.ResetDay(ctx, strings.TrimSpace(req.DroneID))
	if err != nil {
		return nil, toStatus(err)
	}
	return &ResetDayResponse{Reset: n}, nil
}

func (s *ScheduleServer) RegisterDrone(ctx context.Context, req *RegisterDroneRequest) (*RegisterDroneResponse, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.DroneID) == "" || req.FlightTime < 0 {
		return nil, status.Error(codes.InvalidArgument, "drone_id is required and flight_time must not be negative")
	}
	d, err := s.Scheduler.RegisterDrone(ctx, req.DroneID, req.FlightTime)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RegisterDroneResponse{DroneID: d.ID}, nil
}

func (s *ScheduleServer) AddFlightTime(ctx context.Context, req *AddFlightTimeRequest) (*AddFlightTimeResponse, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if req.Delta < 0 {
		return nil, status.Error(codes.InvalidArgument, "delta must not be negative")
	}
	if err := s.Scheduler.AddFlightTime(ctx, req.DroneID, req.Delta); err != nil {
		return nil, toStatus(err)
	}
	return &AddFlightTimeResponse{}, nil
}

func (s *ScheduleServer) ListDrones(ctx context.Context, _ *ListDronesRequest) (*ListDronesResponse, error) {
	if _, err := auth.RequireDispatcher(ctx); err != nil {
		return nil, err
	}
	fleet, err := s.Scheduler.Fleet(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &ListDronesResponse{Drones: make([]DroneInfo, 0, len(fleet))}
	for _, d := range fleet {
		info := DroneInfo{DroneID: d.ID, FlightTime: d.FlightTime, Planned: d.HasDayPlan()}
		for _, ts := range d.TimeSlots {
			if ts.State == models.StateDelivery {
				info.Deliveries++
			}
		}
		resp.Drones = append(resp.Drones, info)
	}
	return resp, nil
}

func (s *ScheduleServer) RemoveDrone(ctx context.Context, req *RemoveDroneRequest) (*RemoveDroneResponse, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.DroneID) == "" {
		return nil, status.Error(codes.InvalidArgument, "drone_id is required")
	}
	if err := s.Scheduler.RemoveDrone(ctx, req.DroneID); err != nil {
		return nil, toStatus(err)
	}
	return &RemoveDroneResponse{}, nil
}

// ListDeliveries returns the deliveries bound to a drone, oldest first.
func (s *ScheduleServer) ListDeliveries(ctx context.Context, req *ListDeliveriesRequest) (*ListDeliveriesResponse, error) {
	if strings.TrimSpace(req.DroneID) == "" {
		return nil, status.Error(codes.InvalidArgument, "drone_id is required")
	}
	if _, err := auth.RequireDroneOrStaff(ctx, req.DroneID); err != nil {
		return nil, err
	}
	list, err := s.Scheduler.DroneDeliveries(ctx, req.DroneID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &ListDeliveriesResponse{DroneID: req.DroneID, Deliveries: make([]DeliveryInfo, 0, len(list))}
	for _, d := range list {
		resp.Deliveries = append(resp.Deliveries, DeliveryInfo{DeliveryID: d.ID, CreatedAt: d.CreatedAt})
	}
	return resp, nil
}

// unaryHandler adapts a typed method to the grpc.MethodDesc handler shape.
func unaryHandler[Req any, Resp any](name string, call func(*ScheduleServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*ScheduleServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes schedule.v1.ScheduleService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ScheduleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ScheduleDelivery", (*ScheduleServer).ScheduleDelivery),
		unaryHandler("GetNextDelivery", (*ScheduleServer).GetNextDelivery),
		unaryHandler("GetCurrentPlanning", (*ScheduleServer).GetCurrentPlanning),
		unaryHandler("ResetDay", (*ScheduleServer).ResetDay),
		unaryHandler("RegisterDrone", (*ScheduleServer).RegisterDrone),
		unaryHandler("AddFlightTime", (*ScheduleServer).AddFlightTime),
		unaryHandler("ListDrones", (*ScheduleServer).ListDrones),
		unaryHandler("RemoveDrone", (*ScheduleServer).RemoveDrone),
		unaryHandler("ListDeliveries", (*ScheduleServer).ListDeliveries),
	},
	Metadata: "schedule/v1/schedule.proto",
}
