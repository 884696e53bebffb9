package health

import "context"

// StorePinger checks durable-store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}
