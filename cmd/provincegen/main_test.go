package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("PROVGEN_TEST_STR", "abc")
	t.Setenv("PROVGEN_TEST_INT", "17")
	t.Setenv("PROVGEN_TEST_BAD", "x17")
	t.Setenv("PROVGEN_TEST_BIG", "9000000000")

	assert.Equal(t, "abc", envOrDefault("PROVGEN_TEST_STR", "def"))
	assert.Equal(t, "def", envOrDefault("PROVGEN_TEST_UNSET", "def"))
	assert.Equal(t, 17, envIntOrDefault("PROVGEN_TEST_INT", 3))
	assert.Equal(t, 3, envIntOrDefault("PROVGEN_TEST_BAD", 3))
	assert.Equal(t, int64(9_000_000_000), envInt64OrDefault("PROVGEN_TEST_BIG", 0))
	assert.Equal(t, int64(5), envInt64OrDefault("PROVGEN_TEST_UNSET", 5))
}
