package impl

import (
	"kinwatch/internal/domain/policy"
	"kinwatch/internal/domain/service"

	"go.uber.org/fx"
)

// Module provides the decision pipeline and its collaborators. The clock and
// failure policy are provided here so tests can swap them with fx.Replace.
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		func() service.Clock { return service.SystemClock{} },
		policy.DefaultFailurePolicy,
		NewDeviceService,
		NewPreferenceService,
		NewStealthService,
		NewThrottleService,
		NewDeliveryService,
		NewDigestService,
		NewDispatchService,
		NewEventService,
		NewJobsService,
	),
)
