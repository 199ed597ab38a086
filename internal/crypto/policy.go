package crypto

import (
	"fmt"
	"strings"
)

// ShouldEncrypt decides whether a backup category gets encrypted. Pure
// function of the global flag, the configured category set and the
// category name: disabled means never, "all" means every category, "none"
// means no category, otherwise the category must appear in the
// comma-separated inclusion list.
func ShouldEncrypt(enabled bool, types, category string) bool {
	if !enabled {
		return false
	}

	types = strings.TrimSpace(types)
	switch types {
	case "", "none":
		return false
	case "all":
		return true
	}

	for _, t := range strings.Split(types, ",") {
		if strings.TrimSpace(t) == category {
			return true
		}
	}
	return false
}

// ParseRecipients splits the comma-separated recipient list, trimming
// whitespace and dropping empty tokens. An empty result is a configuration
// error: encryption must never silently degrade to plaintext.
func ParseRecipients(s string) ([]string, error) {
	var recipients []string
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		recipients = append(recipients, r)
	}

	if len(recipients) == 0 {
		return nil, fmt.Errorf("no GPG recipients configured")
	}

	return recipients, nil
}
