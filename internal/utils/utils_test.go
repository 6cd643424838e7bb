package utils

import (
	"fmt"
	"testing"

	"gotest.tools/v3/assert"
)

func TestWithSpinnerRunsOnce(t *testing.T) {
	calls := 0
	err := WithSpinner("waiting...", func() error {
		calls++
		return fmt.Errorf("did not converge")
	})
	assert.Error(t, err, "did not converge")
	assert.Equal(t, calls, 1)
}

func TestRandomId(t *testing.T) {
	id := RandomId(5)
	assert.Equal(t, len(id), 5)
	for _, c := range id {
		assert.Assert(t, (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'), "unexpected character %q", c)
	}
	assert.Assert(t, RandomId(8) != RandomId(8))
}

func TestDefaultStr(t *testing.T) {
	assert.Equal(t, DefaultStr("", "", "third"), "third")
	assert.Equal(t, DefaultStr("first", "second"), "first")
	assert.Equal(t, DefaultStr(), "")
	assert.Equal(t, DefaultStr("", ""), "")
}

func TestContainsAny(t *testing.T) {
	testTable := []struct {
		s          string
		substrings []string
		expected   bool
	}{
		{"rancher-webhook-7d4f", []string{"webhook"}, true},
		{"rancher-58b9c7", []string{"webhook"}, false},
		{"rancher-58b9c7", nil, false},
		{"rancher-58b9c7", []string{""}, false},
		{"rancher-backup-ab12", []string{"webhook", "backup"}, true},
	}
	for _, test := range testTable {
		assert.Equal(t, ContainsAny(test.s, test.substrings), test.expected,
			"ContainsAny(%q, %v)", test.s, test.substrings)
	}
}
