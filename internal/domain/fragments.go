package domain

import (
	"fmt"
	"log"

	"github.com/metalfoundry/foundry/internal/confmap"
)

// Fragment accessors. Each stored fragment is a JSON text column; reads
// recover malformed data to an empty document, writes deep-merge into the
// existing document, and a failed serialization leaves the stored value
// untouched. Both halves of that asymmetry are deliberate: a corrupt
// fragment must not break configuration reads, and a bad write must not
// destroy a good one.

// Credential returns the switch access credentials with keys normalized to
// title case.
func (s *Switch) Credential() map[string]string {
	m := confmap.Parse(s.CredentialData, fmt.Sprintf("switch %d credential", s.ID))
	return confmap.TitleKeys(m)
}

// SetCredential merges value into the stored credentials. An empty value
// resets the credentials to an empty document.
func (s *Switch) SetCredential(value confmap.Map) {
	if len(value) == 0 {
		s.CredentialData = "{}"
		return
	}
	merged := confmap.Parse(s.CredentialData, fmt.Sprintf("switch %d credential", s.ID))
	confmap.DeepMerge(merged, value)
	text, err := confmap.Dump(merged)
	if err != nil {
		log.Printf("failed to dump credential for switch %d: %v", s.ID, err)
		return
	}
	s.CredentialData = text
}

// Security returns the cluster's security fragment.
func (c *Cluster) Security() confmap.Map {
	return confmap.Parse(c.SecurityData, fmt.Sprintf("cluster %d security", c.ID))
}

// SetSecurity merges value into the security fragment; empty clears it.
func (c *Cluster) SetSecurity(value confmap.Map) {
	c.mergeFragment(&c.SecurityData, value, "security")
}

// Networking returns the cluster's networking fragment.
func (c *Cluster) Networking() confmap.Map {
	return confmap.Parse(c.NetworkingData, fmt.Sprintf("cluster %d networking", c.ID))
}

// SetNetworking merges value into the networking fragment; empty clears it.
func (c *Cluster) SetNetworking(value confmap.Map) {
	c.mergeFragment(&c.NetworkingData, value, "networking")
}

// Partition returns the cluster's partition fragment.
func (c *Cluster) Partition() confmap.Map {
	return confmap.Parse(c.PartitionData, fmt.Sprintf("cluster %d partition", c.ID))
}

// SetPartition merges value into the partition fragment; empty clears it.
func (c *Cluster) SetPartition(value confmap.Map) {
	c.mergeFragment(&c.PartitionData, value, "partition")
}

func (c *Cluster) mergeFragment(field *string, value confmap.Map, name string) {
	if len(value) == 0 {
		*field = ""
		return
	}
	merged := confmap.Parse(*field, fmt.Sprintf("cluster %d %s", c.ID, name))
	confmap.DeepMerge(merged, value)
	text, err := confmap.Dump(merged)
	if err != nil {
		log.Printf("failed to dump %s config for cluster %d: %v", name, c.ID, err)
		return
	}
	*field = text
}

// replaceFragment overwrites a fragment wholesale. Used by SetConfig, which
// has replace rather than merge semantics.
func (c *Cluster) replaceFragment(field *string, value confmap.Map, name string) {
	if len(value) == 0 {
		*field = ""
		return
	}
	text, err := confmap.Dump(value)
	if err != nil {
		log.Printf("failed to dump %s config for cluster %d: %v", name, c.ID, err)
		return
	}
	*field = text
}

// Config composes the cluster's effective configuration: the raw fragment as
// the base, then security, networking, and partition under their named keys,
// then the identity fields. Later merges win on conflicts, so the identity
// fields always come out on top. The result is derived on every call;
// fragments remain the source of truth.
func (c *Cluster) Config() confmap.Map {
	config := confmap.Parse(c.RawData, fmt.Sprintf("cluster %d raw", c.ID))
	confmap.DeepMerge(config, confmap.Map{"security": c.Security()})
	confmap.DeepMerge(config, confmap.Map{"networking": c.Networking()})
	confmap.DeepMerge(config, confmap.Map{"partition": c.Partition()})
	confmap.DeepMerge(config, confmap.Map{
		"clusterid":   c.ID,
		"clustername": c.Name,
	})
	return config
}

// SetConfig replaces the whole configuration. The security, networking, and
// partition sections land in their fragments, and the complete document is
// kept as the raw fragment so keys outside the named sections survive a
// round trip. An empty value clears all four fragments.
func (c *Cluster) SetConfig(value confmap.Map) {
	if len(value) == 0 {
		c.SecurityData = ""
		c.NetworkingData = ""
		c.PartitionData = ""
		c.RawData = ""
		return
	}
	c.replaceFragment(&c.SecurityData, section(value, "security"), "security")
	c.replaceFragment(&c.NetworkingData, section(value, "networking"), "networking")
	c.replaceFragment(&c.PartitionData, section(value, "partition"), "partition")
	text, err := confmap.Dump(value)
	if err != nil {
		log.Printf("failed to dump raw config for cluster %d: %v", c.ID, err)
		return
	}
	c.RawData = text
}

func section(m confmap.Map, key string) confmap.Map {
	sub, ok := m[key].(map[string]any)
	if !ok {
		return nil
	}
	return sub
}

// Config composes the host's effective configuration: its own fragment
// enriched with host identity, the linked cluster's identity, and the linked
// machine's management MAC. The MAC lands only at
// networking.interfaces.management.mac; sibling keys under networking are
// preserved. Cluster and Machine must be loaded by the repository for the
// enrichment to apply.
func (h *ClusterHost) Config() confmap.Map {
	config := confmap.Parse(h.ConfigData, fmt.Sprintf("host %s config", h.Hostname))
	confmap.DeepMerge(config, confmap.Map{
		"hostid":   h.ID,
		"hostname": h.Hostname,
	})
	if h.Cluster != nil {
		confmap.DeepMerge(config, confmap.Map{
			"clusterid":   h.Cluster.ID,
			"clustername": h.Cluster.Name,
		})
	}
	if h.Machine != nil {
		confmap.DeepMerge(config, confmap.Map{
			"networking": confmap.Map{
				"interfaces": confmap.Map{
					"management": confmap.Map{
						"mac": h.Machine.MAC,
					},
				},
			},
		})
	}
	return config
}

// MergeConfig deep-merges value into the host's stored fragment. The stored
// fragment is initialized to an empty document first, so an empty value
// leaves an explicit empty fragment behind.
func (h *ClusterHost) MergeConfig(value confmap.Map) {
	if h.ConfigData == "" {
		h.ConfigData = "{}"
	}
	if len(value) == 0 {
		return
	}
	config := confmap.Parse(h.ConfigData, fmt.Sprintf("host %s config", h.Hostname))
	confmap.DeepMerge(config, value)
	text, err := confmap.Dump(config)
	if err != nil {
		log.Printf("failed to dump config for host %s: %v", h.Hostname, err)
		return
	}
	h.ConfigData = text
}
