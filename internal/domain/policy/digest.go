package policy

import (
	"fmt"
	"strings"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
)

// DigestMessage is the consolidated text for one recipient.
type DigestMessage struct {
	Title      string
	Body       string
	ChildNames []string
	Total      int
	Badge      entity.Severity
}

// GroupDigestItems partitions items by child, keeping first-seen order, and
// tracks the count and highest severity per child.
func GroupDigestItems(items []*entity.DigestItem) []entity.DigestGroup {
	index := make(map[uuid.UUID]int)
	var groups []entity.DigestGroup
	for _, item := range items {
		i, ok := index[item.ChildID]
		if !ok {
			i = len(groups)
			index[item.ChildID] = i
			groups = append(groups, entity.DigestGroup{
				ChildID:     item.ChildID,
				ChildName:   item.ChildName,
				MaxSeverity: item.Severity,
			})
		}
		groups[i].Count++
		groups[i].MaxSeverity = entity.MaxSeverity(groups[i].MaxSeverity, item.Severity)
	}

	return groups
}

// BuildDigestMessage renders one message across all groups.
func BuildDigestMessage(groups []entity.DigestGroup, digestType entity.DigestType) DigestMessage {
	msg := DigestMessage{}
	for _, g := range groups {
		msg.Total += g.Count
		msg.Badge = entity.MaxSeverity(msg.Badge, g.MaxSeverity)
		name := g.ChildName
		if name == "" {
			name = "your child"
		}
		msg.ChildNames = append(msg.ChildNames, name)
	}

	period := "Hourly"
	if digestType == entity.DigestDaily {
		period = "Daily"
	}
	msg.Title = fmt.Sprintf("%s summary", period)

	noun := "update"
	if msg.Total != 1 {
		noun = "updates"
	}
	msg.Body = fmt.Sprintf("%d %s for %s", msg.Total, noun, strings.Join(msg.ChildNames, ", "))
	if msg.Badge.IsValid() {
		msg.Body = fmt.Sprintf("[%s] %s", strings.ToUpper(string(msg.Badge)), msg.Body)
	}

	return msg
}
