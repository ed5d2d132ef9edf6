package entity

import "github.com/google/uuid"

// ChannelOutcome is the result of one channel attempt.
type ChannelOutcome struct {
	Channel       Channel        `json:"channel"`
	Status        DeliveryStatus `json:"status"`
	MessageID     string         `json:"message_id,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
	Fallback      bool           `json:"fallback,omitempty"`
}

// DeliveryResult is the structured outcome returned for one recipient.
type DeliveryResult struct {
	RecipientID     uuid.UUID        `json:"recipient_id"`
	Sent            bool             `json:"sent"`
	Delayed         bool             `json:"delayed"`
	Suppressed      bool             `json:"suppressed"`
	Route           Route            `json:"route,omitempty"`
	Reason          Reason           `json:"reason"`
	Channels        []ChannelOutcome `json:"channels,omitempty"`
	PrimaryChannel  Channel          `json:"primary_channel,omitempty"`
	FallbackUsed    bool             `json:"fallback_used"`
	FallbackChannel Channel          `json:"fallback_channel,omitempty"`
	AllDelivered    bool             `json:"all_delivered"`
}

// SucceededOn reports whether the channel delivered at least once.
func (r *DeliveryResult) SucceededOn(ch Channel) bool {
	for _, o := range r.Channels {
		if o.Channel == ch && o.Status == StatusSent {
			return true
		}
	}

	return false
}

// FanOutResult aggregates the per-recipient results of one family event.
type FanOutResult struct {
	EventID uuid.UUID         `json:"event_id"`
	Reason  Reason            `json:"reason,omitempty"`
	Results []*DeliveryResult `json:"results"`
	Errors  int               `json:"errors"`
}
