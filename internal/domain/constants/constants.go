// Package constants holds values shared across layers.
package constants

const (
	EnvDevelop    = "develop"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// Pub/Sub providers selectable in config.
const (
	PubSubProviderInline = "inline"
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// NotificationFamilyEventTopic is the message attribute identifying a fan-out event.
const NotificationFamilyEventTopic = "notification.family_event"
