// Package model holds the GORM table mappings of the postgres storage driver.
package model

// All lists every table model, in migration order.
func All() []any {
	return []any{
		&FamilyModel{},
		&RecipientModel{},
		&PreferenceModel{},
		&PushEndpointModel{},
		&ThrottleRecordModel{},
		&DigestItemModel{},
		&DelayedNotificationModel{},
		&HistoryEntryModel{},
		&StealthQueueModel{},
		&AdminAuditModel{},
	}
}
