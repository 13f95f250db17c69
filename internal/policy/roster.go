package policy

import (
	"context"
	"fmt"
	"strings"
)

// StaticRoster is a fixed leader -> members table.
type StaticRoster map[string][]string

// ParseRoster reads "leaderID=member1,member2;leader2=member3".
func ParseRoster(raw string) (StaticRoster, error) {
	roster := StaticRoster{}
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		leader, members, ok := strings.Cut(entry, "=")
		leader = strings.TrimSpace(leader)
		if !ok || leader == "" {
			return nil, fmt.Errorf("invalid roster entry %q", entry)
		}
		for _, member := range strings.Split(members, ",") {
			if member = strings.TrimSpace(member); member != "" {
				roster[leader] = append(roster[leader], member)
			}
		}
		if _, exists := roster[leader]; !exists {
			roster[leader] = []string{}
		}
	}
	return roster, nil
}

// TeamMembersOf returns a copy of the leader's members; unknown leaders have none.
func (r StaticRoster) TeamMembersOf(_ context.Context, userID string) ([]string, error) {
	members := r[userID]
	out := make([]string, len(members))
	copy(out, members)
	return out, nil
}
