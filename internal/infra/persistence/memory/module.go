package memory

import "go.uber.org/fx"

// Module provides one shared Store and every repository backed by it, and
// loads the configured seed on start.
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		NewStore,
		NewTransactionManager,
		NewFamilyRepository,
		NewRecipientRepository,
		NewPreferenceRepository,
		NewStealthQueueRepository,
		NewAdminAuditRepository,
		NewThrottleRepository,
		NewDigestRepository,
		NewDelayedRepository,
		NewHistoryRepository,
		NewPushEndpointRepository,
	),
	fx.Invoke(registerSeed),
)
