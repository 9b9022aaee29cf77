package driving

import "context"

// StatusService exposes the index-initialised flag.
type StatusService interface {
	// Get returns whether the index holds usable data.
	Get(ctx context.Context) (bool, error)

	// Set overrides the flag.
	Set(ctx context.Context, initialized bool) error
}
