package postgres

import "go.uber.org/fx"

// Module provides the GORM connection and every repository backed by it.
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		New,
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
)
