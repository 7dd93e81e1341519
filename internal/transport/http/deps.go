package http

import (
	"github.com/notifylight/server/internal/application/delivery"
	"github.com/notifylight/server/internal/infrastructure/dynamo"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	DeviceRepo      *dynamo.DeviceRepo
	MessageRepo     *dynamo.MessageRepo
	DeliveryLogRepo *dynamo.DeliveryLogRepo
	Engine          *delivery.Engine
}
