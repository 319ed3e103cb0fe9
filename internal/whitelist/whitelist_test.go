package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestChecker(t *testing.T) {
	c := NewChecker([]string{" Example.com ", "@corp.example", ""}, zaptest.NewLogger(t))

	tests := []struct {
		from string
		want bool
	}{
		{"alice@example.com", true},
		{"ALICE@EXAMPLE.COM", true},
		{"Alice <alice@corp.example>", true},
		{"alice@sub.example.com", false},
		{"alice@other.org", false},
		{"not-an-address", false},
		{"trailing@", false},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsWhitelisted(tt.from))
		})
	}
}

func TestEmptyChecker(t *testing.T) {
	var nilChecker *Checker
	assert.False(t, nilChecker.IsWhitelisted("alice@example.com"))
	assert.False(t, NewChecker(nil, nil).IsWhitelisted("alice@example.com"))
}
