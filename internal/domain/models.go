package domain

import (
	"time"

	"github.com/google/uuid"
)

// SwitchState tracks how far discovery has gotten on a switch.
type SwitchState string

const (
	// SwitchNotReached means polling failed or has not yet learned every
	// MAC address behind the switch.
	SwitchNotReached SwitchState = "not_reached"
	// SwitchUnderMonitoring means all connected MAC addresses are known.
	SwitchUnderMonitoring SwitchState = "under_monitoring"
)

// InstallState is the installation lifecycle of a cluster or host.
type InstallState string

const (
	StateUninitialized InstallState = "UNINITIALIZED"
	StateInstalling    InstallState = "INSTALLING"
	StateReady         InstallState = "READY"
	StateError         InstallState = "ERROR"
)

// Severity classifies the latest installing message. It is independent of
// InstallState; an installing entity may carry warnings.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Switch is a management-plane switch that machines are discovered behind.
// CredentialData stores a JSON mapping of access credentials; read it through
// Credential, which normalizes key spelling.
type Switch struct {
	ID             int64
	IP             string // Unique switch IP address
	Vendor         string
	CredentialData string
	State          SwitchState
}

// NewSwitch returns a switch in the initial not_reached discovery state.
func NewSwitch(ip string) *Switch {
	return &Switch{
		IP:    ip,
		State: SwitchNotReached,
	}
}

// Machine is a discovered bare-metal machine. One machine connects to at
// most one switch on the management plane; deleting the switch keeps the
// machine and clears SwitchID.
type Machine struct {
	ID        int64
	MAC       string // Unique hardware address
	Port      int    // Switch port the machine was seen on
	VLAN      int
	SwitchID  *int64
	UpdatedAt time.Time
}

// Adapter describes an installation flavor: which OS and target software
// system a cluster deploys.
type Adapter struct {
	ID           int64
	Name         string // Unique adapter name
	OS           string
	TargetSystem string
}

// Role is a deployable role of a target system. Reference data; hosts may be
// assigned one or several roles by the orchestration layer.
type Role struct {
	ID           int64
	Name         string // Unique role name
	TargetSystem string
	Description  string
}

// Cluster groups hosts that are deployed together. Its desired configuration
// lives in four independently settable JSON fragments; the merged view is
// computed by Config, never stored.
type Cluster struct {
	ID             int64
	Name           string // Unique; auto-generated when not supplied
	Mutable        bool
	AdapterID      *int64
	SecurityData   string
	NetworkingData string
	PartitionData  string
	RawData        string

	State *ClusterState
}

// NewCluster returns a mutable cluster. A blank name is replaced with a
// generated UUID so unnamed clusters never collide on the unique name column.
func NewCluster(name string) *Cluster {
	if name == "" {
		name = uuid.NewString()
	}
	return &Cluster{
		Name:    name,
		Mutable: true,
	}
}

// ClusterHost is a machine enrolled into a cluster under a hostname.
// Deleting the cluster keeps the host and clears ClusterID; deleting the
// machine deletes the host with it.
type ClusterHost struct {
	ID         int64
	Hostname   string // Unique; auto-generated when not supplied
	Mutable    bool
	ClusterID  *int64
	MachineID  *int64
	ConfigData string

	Cluster *Cluster
	Machine *Machine
	State   *HostState
}

// NewClusterHost returns a mutable host, generating a UUID hostname when
// none is supplied.
func NewClusterHost(hostname string) *ClusterHost {
	if hostname == "" {
		hostname = uuid.NewString()
	}
	return &ClusterHost{
		Hostname: hostname,
		Mutable:  true,
	}
}

// ClusterState records installation progress for one cluster. It exists 1:1
// with the cluster and is a passive record: any collaborator may set state,
// progress, message, and severity; transition legality belongs to the
// orchestration layer.
type ClusterState struct {
	ClusterID int64
	State     InstallState
	Progress  float64
	Message   string
	Severity  Severity
	UpdatedAt time.Time

	Cluster *Cluster
}

// NewClusterState returns the default state a cluster starts in.
func NewClusterState(clusterID int64) *ClusterState {
	return &ClusterState{
		ClusterID: clusterID,
		State:     StateUninitialized,
		Progress:  0.0,
		Severity:  SeverityInfo,
	}
}

// ClusterName reports the owning cluster's name. The owner link is expected
// to exist whenever the state row exists; a missing link is a programming
// error, not a recoverable condition.
func (s *ClusterState) ClusterName() string {
	if s.Cluster == nil {
		panic("cluster state accessed without its cluster loaded")
	}
	return s.Cluster.Name
}

// HostState records installation progress for one host. Same contract as
// ClusterState: defaults on creation, no transition enforcement.
type HostState struct {
	HostID    int64
	State     InstallState
	Progress  float64
	Message   string
	Severity  Severity
	UpdatedAt time.Time

	Host *ClusterHost
}

// NewHostState returns the default state a host starts in.
func NewHostState(hostID int64) *HostState {
	return &HostState{
		HostID:   hostID,
		State:    StateUninitialized,
		Progress: 0.0,
		Severity: SeverityInfo,
	}
}

// Hostname reports the owning host's hostname, panicking when the owner link
// was not loaded.
func (s *HostState) Hostname() string {
	if s.Host == nil {
		panic("host state accessed without its host loaded")
	}
	return s.Host.Hostname
}
