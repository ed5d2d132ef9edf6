// Package content renders notification copy from event parameters.
package content

import (
	"strings"

	"kinwatch/internal/domain/entity"
	"kinwatch/internal/domain/service"

	"github.com/google/uuid"
)

const defaultChildName = "your child"

type template struct {
	title string
	body  string
}

// Placeholders are {child} plus any key of the event params, e.g. {device}.
var templates = map[entity.Category]template{
	entity.CategoryCriticalFlag:       {"Urgent: review needed", "{child} may need your attention right away."},
	entity.CategoryContentFlag:        {"Content flagged", "Something {child} viewed was flagged for review."},
	entity.CategoryCrisisAlert:        {"Crisis alert", "{child} may be in crisis. Open the app for support resources."},
	entity.CategorySelfHarmAlert:      {"Safety alert", "We detected signs of self-harm risk for {child}."},
	entity.CategoryMandatoryReport:    {"Safety report filed", "A safety report involving {child} has been filed."},
	entity.CategoryEmergencyUnlock:    {"Emergency unlock", "{child} used an emergency unlock."},
	entity.CategoryLoginAlert:         {"New sign-in", "A new sign-in to your account from {device}."},
	entity.CategoryExtensionRequest:   {"Time request", "{child} is asking for more time."},
	entity.CategoryPermissionRevoked:  {"Permission revoked", "A permission for {child} was revoked."},
	entity.CategoryDeviceRemoved:      {"Device removed", "{device} was removed from your family."},
	entity.CategoryStatusTransition:   {"Status changed", "{child} is now {status}."},
	entity.CategorySyncTimeout:        {"Device offline", "{child}'s device has not synced for {offline_hours} hours."},
	entity.CategoryLocationTransition: {"Location update", "{child} arrived at {place}."},
	entity.CategoryLimitReached:       {"Limit reached", "{child} reached a screen time limit."},
}

// Builder maps an event to its title, body and data payload.
type Builder struct{}

// NewBuilder creates a content builder.
func NewBuilder() service.ContentBuilder {
	return Builder{}
}

// Build renders the event. Missing params render as an empty string.
func (Builder) Build(event *entity.NotificationEvent) service.Content {
	tpl, ok := templates[event.Category]
	if !ok {
		tpl = template{title: "Family update", body: "There is a new update for {child}."}
	}

	child := event.ChildName
	if child == "" {
		child = defaultChildName
	}
	pairs := []string{"{child}", child}
	for k, v := range event.Params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	data := map[string]string{
		"type":     string(event.Category),
		"severity": string(event.Severity),
		"event_id": event.ID.String(),
	}
	if event.ChildID != uuid.Nil {
		data["child_id"] = event.ChildID.String()
	}
	if u := event.Params["action_url"]; u != "" {
		data["action_url"] = u
	}

	return service.Content{
		Title: r.Replace(tpl.title),
		Body:  stripUnresolved(r.Replace(tpl.body)),
		Data:  data,
	}
}

// stripUnresolved drops placeholders the params did not supply.
func stripUnresolved(s string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			b.WriteString(s)

			return b.String()
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			b.WriteString(s)

			return b.String()
		}
		b.WriteString(s[:open])
		s = s[open+end+1:]
	}
}
