package confmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyAndMalformed(t *testing.T) {
	// Empty text is an empty document
	assert.Equal(t, Map{}, Parse("", "cluster 1 security"))

	// Malformed text recovers to an empty document instead of failing the read
	assert.Equal(t, Map{}, Parse("{not json", "cluster 1 security"))

	// JSON null is treated as absent
	assert.Equal(t, Map{}, Parse("null", "cluster 1 security"))
}

func TestParse_ValidDocument(t *testing.T) {
	m := Parse(`{"server_credentials":{"username":"root"}}`, "cluster 1 security")
	require.Contains(t, m, "server_credentials")
	creds, ok := m["server_credentials"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "root", creds["username"])
}

func TestDump_RoundTrip(t *testing.T) {
	original := Map{"a": "x", "nested": Map{"b": float64(1)}}
	text, err := Dump(original)
	require.NoError(t, err)

	parsed := Parse(text, "test")
	assert.Equal(t, "x", parsed["a"])
	nested, ok := parsed["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), nested["b"])
}

func TestDeepMerge_NestedMapsCombine(t *testing.T) {
	dst := Map{
		"networking": Map{
			"interfaces": Map{
				"management": Map{"ip": "10.0.0.5"},
			},
		},
	}
	DeepMerge(dst, Map{
		"networking": Map{
			"interfaces": Map{
				"management": Map{"mac": "00:11:22:33:44:55"},
				"tenant":     Map{"vlan": 100},
			},
		},
	})

	interfaces := dst["networking"].(map[string]any)["interfaces"].(map[string]any)
	management := interfaces["management"].(map[string]any)
	assert.Equal(t, "10.0.0.5", management["ip"])
	assert.Equal(t, "00:11:22:33:44:55", management["mac"])
	assert.Contains(t, interfaces, "tenant")
}

func TestDeepMerge_IncomingWinsAtLeaves(t *testing.T) {
	dst := Map{"a": "old", "keep": true}
	DeepMerge(dst, Map{"a": "new"})
	assert.Equal(t, "new", dst["a"])
	assert.Equal(t, true, dst["keep"])
}

func TestDeepMerge_ScalarReplacesMap(t *testing.T) {
	// A non-map incoming value replaces an existing nested map wholesale.
	dst := Map{"a": Map{"b": 1}}
	DeepMerge(dst, Map{"a": "flat"})
	assert.Equal(t, "flat", dst["a"])
}

func TestDeepMerge_EmptySourceIsNoOp(t *testing.T) {
	dst := Map{"a": 1}
	DeepMerge(dst, nil)
	DeepMerge(dst, Map{})
	assert.Equal(t, Map{"a": 1}, dst)
}

func TestTitleKeys(t *testing.T) {
	creds := TitleKeys(Map{"username": "admin", "PASSWORD": "secret", "version": 2})
	assert.Equal(t, map[string]string{
		"Username": "admin",
		"Password": "secret",
		"Version":  "2",
	}, creds)
}

func TestTitleKeys_EveryWordCapitalized(t *testing.T) {
	// Non-letters are word boundaries; each word gets its own capital.
	creds := TitleKeys(Map{
		"user_name":      "admin",
		"snmp community": "public",
		"VERSION_2C":     true,
	})
	assert.Equal(t, map[string]string{
		"User_Name":      "admin",
		"Snmp Community": "public",
		"Version_2C":     "true",
	}, creds)
}
