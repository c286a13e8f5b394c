package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"serve", "search", "snapshot", "sync"} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.NotNil(t, syncCmd.Flags().Lookup("club"))
}

func TestSearchRequiresQuery(t *testing.T) {
	assert.Error(t, searchCmd.Args(searchCmd, []string{}))
	assert.Error(t, snapshotCmd.Args(snapshotCmd, []string{"a", "b"}))
}
