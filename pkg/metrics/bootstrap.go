package metrics

import (
	"time"
)

// BootstrapMetrics provides observability for startup orchestration.
//
// This interface is optional - pass nil to disable metrics collection
// with zero overhead.
type BootstrapMetrics interface {
	// RecordStep records a completed startup step.
	//
	// Parameters:
	//   - step: Step name (e.g., "migrate", "superuser", "seed-permissions")
	//   - duration: Time taken by the step
	//   - err: Step error, nil on success
	RecordStep(step string, duration time.Duration, err error)

	// RecordSeededRows records how many rows a seeding step created.
	//
	// Parameters:
	//   - module: Seeded module ("permissions", "configs")
	//   - created: Number of rows created in this pass (0 on re-runs)
	RecordSeededRows(module string, created int)
}
