package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalfoundry/foundry/internal/confmap"
)

func TestSwitchCredential_TitleCasedOnRead(t *testing.T) {
	s := NewSwitch("10.0.0.1")
	s.SetCredential(confmap.Map{"username": "admin", "PASSWORD": "secret"})

	assert.Equal(t, map[string]string{
		"Username": "admin",
		"Password": "secret",
	}, s.Credential())
}

func TestSwitchCredential_MergeNotReplace(t *testing.T) {
	s := NewSwitch("10.0.0.1")
	s.SetCredential(confmap.Map{"username": "admin"})
	s.SetCredential(confmap.Map{"password": "secret"})

	creds := s.Credential()
	assert.Equal(t, "admin", creds["Username"])
	assert.Equal(t, "secret", creds["Password"])
}

func TestSwitchCredential_EmptyClears(t *testing.T) {
	s := NewSwitch("10.0.0.1")
	s.SetCredential(confmap.Map{"username": "admin"})
	s.SetCredential(nil)
	assert.Empty(t, s.Credential())
}

func TestSwitchCredential_MalformedRecoversToEmpty(t *testing.T) {
	s := NewSwitch("10.0.0.1")
	s.CredentialData = "{broken"
	assert.Empty(t, s.Credential())
}

func TestClusterFragment_SetThenSetMerges(t *testing.T) {
	c := NewCluster("alpha")
	c.SetSecurity(confmap.Map{"server_credentials": confmap.Map{"username": "root"}})
	c.SetSecurity(confmap.Map{"server_credentials": confmap.Map{"password": "hunter2"}})

	sec := c.Security()
	creds, ok := sec["server_credentials"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "root", creds["username"])
	assert.Equal(t, "hunter2", creds["password"])
}

func TestClusterFragment_EmptySetClears(t *testing.T) {
	c := NewCluster("alpha")
	c.SetPartition(confmap.Map{"/var": confmap.Map{"percentage": 30}})
	c.SetPartition(nil)
	assert.Empty(t, c.Partition())
	assert.Empty(t, c.PartitionData)
}

func TestClusterConfig_IdentityAlwaysWins(t *testing.T) {
	c := NewCluster("alpha")
	c.ID = 42
	// Even a raw fragment that claims different identity loses to the
	// computed fields.
	c.RawData = `{"clusterid": 999, "clustername": "impostor"}`

	config := c.Config()
	assert.Equal(t, int64(42), config["clusterid"])
	assert.Equal(t, "alpha", config["clustername"])
}

func TestClusterConfig_ComposesAllFragments(t *testing.T) {
	c := NewCluster("alpha")
	c.ID = 1
	c.SetSecurity(confmap.Map{"console_credentials": confmap.Map{"username": "admin"}})
	c.SetNetworking(confmap.Map{"global": confmap.Map{"gateway": "10.0.0.1"}})
	c.SetPartition(confmap.Map{"/home": confmap.Map{"percentage": 40}})
	c.RawData = `{"extra": "kept"}`

	config := c.Config()
	assert.Equal(t, "kept", config["extra"])

	security, ok := config["security"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, security, "console_credentials")

	networking, ok := config["networking"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, networking, "global")

	partition, ok := config["partition"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, partition, "/home")
}

func TestClusterSetConfig_RoundTrip(t *testing.T) {
	c := NewCluster("alpha")
	c.ID = 5
	doc := confmap.Map{
		"security":   confmap.Map{"server_credentials": confmap.Map{"username": "root"}},
		"networking": confmap.Map{"global": confmap.Map{"nameservers": "8.8.8.8"}},
		"partition":  confmap.Map{"/var": confmap.Map{"percentage": 20}},
		"extra_key":  "survives",
	}
	c.SetConfig(doc)

	// Named sections landed in their fragments.
	assert.Contains(t, c.Security(), "server_credentials")
	assert.Contains(t, c.Networking(), "global")
	assert.Contains(t, c.Partition(), "/var")

	// The raw fragment retains the complete original document.
	raw := confmap.Parse(c.RawData, "test")
	assert.Equal(t, "survives", raw["extra_key"])
	assert.Contains(t, raw, "security")

	// The composed view reproduces every supplied key plus identity.
	config := c.Config()
	assert.Equal(t, "survives", config["extra_key"])
	assert.Equal(t, int64(5), config["clusterid"])
	assert.Equal(t, "alpha", config["clustername"])
}

func TestClusterSetConfig_EmptyClearsAllFragments(t *testing.T) {
	c := NewCluster("alpha")
	c.SetConfig(confmap.Map{
		"security": confmap.Map{"k": "v"},
		"extra":    true,
	})
	c.SetConfig(nil)

	assert.Empty(t, c.SecurityData)
	assert.Empty(t, c.NetworkingData)
	assert.Empty(t, c.PartitionData)
	assert.Empty(t, c.RawData)
}

func TestHostConfig_IdentityAndClusterEnrichment(t *testing.T) {
	cluster := NewCluster("alpha")
	cluster.ID = 3

	h := NewClusterHost("node-1")
	h.ID = 11
	h.Cluster = cluster

	config := h.Config()
	assert.Equal(t, int64(11), config["hostid"])
	assert.Equal(t, "node-1", config["hostname"])
	assert.Equal(t, int64(3), config["clusterid"])
	assert.Equal(t, "alpha", config["clustername"])
}

func TestHostConfig_ManagementMACLeafOnly(t *testing.T) {
	h := NewClusterHost("node-1")
	h.Machine = &Machine{ID: 2, MAC: "00:11:22:33:44:55"}
	// Pre-existing networking keys must survive the MAC enrichment.
	h.MergeConfig(confmap.Map{
		"networking": confmap.Map{
			"interfaces": confmap.Map{
				"management": confmap.Map{"ip": "192.168.1.10"},
				"tenant":     confmap.Map{"vlan": 200},
			},
			"global": confmap.Map{"gateway": "192.168.1.1"},
		},
	})

	config := h.Config()
	networking := config["networking"].(map[string]any)
	interfaces := networking["interfaces"].(map[string]any)
	management := interfaces["management"].(map[string]any)

	assert.Equal(t, "00:11:22:33:44:55", management["mac"])
	assert.Equal(t, "192.168.1.10", management["ip"])
	assert.Contains(t, interfaces, "tenant")
	assert.Contains(t, networking, "global")
}

func TestHostConfig_MachineMACOverwritesStoredMAC(t *testing.T) {
	h := NewClusterHost("node-1")
	h.Machine = &Machine{ID: 2, MAC: "aa:bb:cc:dd:ee:ff"}
	h.MergeConfig(confmap.Map{
		"networking": confmap.Map{
			"interfaces": confmap.Map{
				"management": confmap.Map{"mac": "stale"},
			},
		},
	})

	config := h.Config()
	mac := config["networking"].(map[string]any)["interfaces"].(map[string]any)["management"].(map[string]any)["mac"]
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", mac)
}

func TestHostMergeConfig_MergesNotReplaces(t *testing.T) {
	h := NewClusterHost("node-1")
	h.MergeConfig(confmap.Map{"roles": []any{"os-controller"}})
	h.MergeConfig(confmap.Map{"networking": confmap.Map{"global": confmap.Map{"gateway": "10.0.0.1"}}})

	config := h.Config()
	assert.Contains(t, config, "roles")
	assert.Contains(t, config, "networking")
}

func TestHostMergeConfig_EmptyInitializesFragment(t *testing.T) {
	h := NewClusterHost("node-1")
	require.Empty(t, h.ConfigData)
	h.MergeConfig(nil)
	assert.Equal(t, "{}", h.ConfigData)
}

func TestHostConfig_MalformedFragmentStillEnriched(t *testing.T) {
	h := NewClusterHost("node-1")
	h.ID = 4
	h.ConfigData = "{oops"

	config := h.Config()
	assert.Equal(t, int64(4), config["hostid"])
	assert.Equal(t, "node-1", config["hostname"])
}
