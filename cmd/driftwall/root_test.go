package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharedFlagsTargets(t *testing.T) {
	f := sharedFlags{outputs: []string{"eDP-1", "HDMI-A-1"}}
	assert.Equal(t, []string{"eDP-1", "HDMI-A-1"}, f.targets())

	f.all = true
	assert.Nil(t, f.targets())
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
	assert.Equal(t, "a", firstNonEmpty("a"))
}

func TestExitErrorUnwrap(t *testing.T) {
	err := newExitError(3, "no daemon running for %q", "default")
	var ee *exitError
	assert.ErrorAs(t, err, &ee)
	assert.Equal(t, 3, ee.code)
	assert.Contains(t, ee.Error(), "default")
}
