package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldEncrypt(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		types    string
		category string
		want     bool
	}{
		{"disabled ignores types", false, "all", "database", false},
		{"enabled all", true, "all", "database", true},
		{"enabled all any category", true, "all", "logs", true},
		{"enabled none", true, "none", "database", false},
		{"enabled empty types", true, "", "database", false},
		{"member of list", true, "database,secrets", "database", true},
		{"secrets in list", true, "database,secrets", "secrets", true},
		{"not a member", true, "database,secrets", "data", false},
		{"list with spaces", true, "database, data", "data", true},
		{"single entry", true, "config", "config", true},
		{"case preserved", true, "Database", "database", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldEncrypt(tt.enabled, tt.types, tt.category)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecipients(t *testing.T) {
	got, err := ParseRecipients("alice@example.com, 0xDEADBEEF ,bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "0xDEADBEEF", "bob@example.com"}, got)
}

func TestParseRecipientsDropsEmptyEntries(t *testing.T) {
	got, err := ParseRecipients("alice@example.com,, ,")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, got)
}

func TestParseRecipientsEmpty(t *testing.T) {
	for _, input := range []string{"", "  ", ",,"} {
		_, err := ParseRecipients(input)
		assert.Error(t, err, "input %q", input)
	}
}
