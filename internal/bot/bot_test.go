package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &amp;&lt;b&gt; c", Escape("a &<b> c"))
	assert.Equal(t, "plain", Escape("plain"))
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		in, cmd, args string
	}{
		{"/start", "start", ""},
		{"/buy prod-1", "buy", "prod-1"},
		{"/top@AxionControlBot 5", "top", "5"},
		{"  /warn  user reason here ", "warn", "user reason here"},
		{"not a command", "", "not a command"},
	}
	for _, tt := range tests {
		cmd, args := CommandArgs(tt.in)
		assert.Equal(t, tt.cmd, cmd, tt.in)
		assert.Equal(t, tt.args, args, tt.in)
	}
}
