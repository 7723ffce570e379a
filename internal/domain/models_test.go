package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCluster_GeneratesUniqueName(t *testing.T) {
	a := NewCluster("")
	b := NewCluster("")

	assert.NotEmpty(t, a.Name)
	assert.NotEmpty(t, b.Name)
	assert.NotEqual(t, a.Name, b.Name)
	assert.True(t, a.Mutable)
}

func TestNewCluster_KeepsSuppliedName(t *testing.T) {
	c := NewCluster("prod-east")
	assert.Equal(t, "prod-east", c.Name)
}

func TestNewClusterHost_GeneratesUniqueHostname(t *testing.T) {
	a := NewClusterHost("")
	b := NewClusterHost("")

	assert.NotEmpty(t, a.Hostname)
	assert.NotEqual(t, a.Hostname, b.Hostname)
	assert.True(t, a.Mutable)
}

func TestNewSwitch_StartsNotReached(t *testing.T) {
	s := NewSwitch("10.0.0.1")
	assert.Equal(t, SwitchNotReached, s.State)
}

func TestStateDefaults(t *testing.T) {
	cs := NewClusterState(7)
	assert.Equal(t, StateUninitialized, cs.State)
	assert.Equal(t, 0.0, cs.Progress)
	assert.Equal(t, SeverityInfo, cs.Severity)

	hs := NewHostState(9)
	assert.Equal(t, StateUninitialized, hs.State)
	assert.Equal(t, 0.0, hs.Progress)
	assert.Equal(t, SeverityInfo, hs.Severity)
}

func TestClusterState_ClusterName(t *testing.T) {
	cluster := NewCluster("alpha")
	state := NewClusterState(1)
	state.Cluster = cluster
	assert.Equal(t, "alpha", state.ClusterName())
}

func TestClusterState_ClusterName_PanicsWithoutOwner(t *testing.T) {
	state := NewClusterState(1)
	require.Panics(t, func() { state.ClusterName() })
}

func TestHostState_Hostname_PanicsWithoutOwner(t *testing.T) {
	state := NewHostState(1)
	require.Panics(t, func() { state.Hostname() })
}
