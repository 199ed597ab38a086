package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{"explicit yes", "y\n", false, true},
		{"explicit yes word", "yes\n", false, true},
		{"explicit no", "n\n", true, false},
		{"empty uses default no", "\n", false, false},
		{"empty uses default yes", "\n", true, true},
		{"garbage is no", "maybe\n", true, false},
		{"case insensitive", "YES\n", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminalWith(strings.NewReader(tt.input), &out)
			got := term.Confirm("proceed?", tt.defaultYes)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "proceed?")
		})
	}
}

func TestTerminalConfirmEOFIsNo(t *testing.T) {
	term := NewTerminalWith(strings.NewReader(""), &bytes.Buffer{})
	assert.False(t, term.Confirm("proceed?", true))
}

func TestTerminalSelect(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminalWith(strings.NewReader("2\n"), &out)

	choice, err := term.Select("pick one", []string{"first", "second", "third"})
	require.NoError(t, err)
	assert.Equal(t, 1, choice)
	assert.Contains(t, out.String(), "1) first")
}

func TestTerminalSelectRejectsOutOfRange(t *testing.T) {
	for _, input := range []string{"0\n", "4\n", "nope\n"} {
		term := NewTerminalWith(strings.NewReader(input), &bytes.Buffer{})
		_, err := term.Select("pick one", []string{"a", "b", "c"})
		assert.Error(t, err, "input %q", input)
	}
}

func TestTerminalInput(t *testing.T) {
	term := NewTerminalWith(strings.NewReader("  cloud.example.com  \n"), &bytes.Buffer{})
	got, err := term.Input("domain", "")
	require.NoError(t, err)
	assert.Equal(t, "cloud.example.com", got)
}

func TestTerminalInputEmptyUsesDefault(t *testing.T) {
	term := NewTerminalWith(strings.NewReader("\n"), &bytes.Buffer{})
	got, err := term.Input("database name", "nextcloud")
	require.NoError(t, err)
	assert.Equal(t, "nextcloud", got)
}

func TestNonInteractiveFailsClosed(t *testing.T) {
	n := NonInteractive{}

	// even default-yes questions are declined without an operator
	assert.False(t, n.Confirm("delete everything?", true))
	assert.False(t, n.Confirm("keep going?", false))

	_, err := n.Select("pick", []string{"a", "b"})
	assert.Error(t, err)
}
