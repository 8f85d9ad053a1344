package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stepwise/internal/adapters/postgres"
	"github.com/samirrijal/stepwise/internal/adapters/valkey"
	"github.com/samirrijal/stepwise/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes   *usecases.RouteService
	Sessions *usecases.SessionService
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
}
