package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	n, err := parseAmount("1_000_000")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), n)

	_, err = parseAmount("0")
	assert.Error(t, err)
	_, err = parseAmount("1.5")
	assert.Error(t, err)
	_, err = parseAmount("-3")
	assert.Error(t, err)
}
