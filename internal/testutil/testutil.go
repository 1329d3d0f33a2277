package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"droneDeliveryScheduler/internal/db"
	"droneDeliveryScheduler/models"
	"droneDeliveryScheduler/repository"
)

// OpenInMemoryDB opens a named shared-cache in-memory SQLite database with migrations applied.
// The database is closed through t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// Repositories opens an in-memory database and returns both repositories on it.
func Repositories(t *testing.T, name string) (*repository.DroneRepository, *repository.DeliveryRepository) {
	t.Helper()
	d := OpenInMemoryDB(t, name)
	return repository.NewDroneRepository(d), repository.NewDeliveryRepository(d)
}

// SeedDrone registers a drone with the given accumulated flight time.
func SeedDrone(t *testing.T, drones *repository.DroneRepository, id string, flightTime int) *models.Drone {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	d, err := drones.Create(ctx, &models.Drone{ID: id, FlightTime: flightTime})
	if err != nil {
		t.Fatalf("create drone %s: %v", id, err)
	}
	return d
}

// GenerateJWTHS256 returns a signed JWT string with minimal claims used by the app.
func GenerateJWTHS256(t *testing.T, secret, name, kind string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"name": name,
		"kind": kind,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}
