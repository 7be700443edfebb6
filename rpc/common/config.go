package common

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lni/dragonboat/v4/config"
)

// --------------------------------------------------------------------------
// helper functions for to interface with Dragonboat (for the server util)
// --------------------------------------------------------------------------

// Dragonboat uses RTT (Round Trip Time) to determine the timing of elections and heartbeats.
// These default values are selected according to the RAFT Paper
const (
	electionRTTFactor  = 10
	heartbeatRTTFactor = 1
)

// ToDragonboatConfig converts the ServerConfig to Dragonboat Config
func (c *ServerConfig) ToDragonboatConfig(shardId uint64) config.Config {
	return config.Config{
		ReplicaID:          c.ReplicaID,
		ShardID:            shardId,
		ElectionRTT:        electionRTTFactor,
		HeartbeatRTT:       heartbeatRTTFactor,
		CheckQuorum:        true,
		SnapshotEntries:    c.SnapshotEntries,
		CompactionOverhead: c.CompactionOverhead,
		MaxInMemLogSize:    0,
	}
}

// ToNodeHostConfig creates a NodeHostConfig for Dragonboat
func (c *ServerConfig) ToNodeHostConfig() config.NodeHostConfig {
	return config.NodeHostConfig{
		WALDir:         c.DataDir,
		NodeHostDir:    c.DataDir,
		RTTMillisecond: c.RTTMillisecond,
		RaftAddress:    c.ClusterMembers[c.ReplicaID],
	}
}

// --------------------------------------------------------------------------
// Transport configuration (shared by client and server)
// --------------------------------------------------------------------------

// SocketConf holds socket options for stream transports (tcp, unix)
type SocketConf struct {
	WriteBufferSize int // socket write buffer in bytes (0 = os default)
	ReadBufferSize  int // socket read buffer in bytes (0 = os default)
}

// TCPConf holds tcp specific socket options
type TCPConf struct {
	TCPNoDelay      bool // disable Nagle's algorithm
	TCPKeepAliveSec int  // keep-alive period (0 = disabled)
	TCPLingerSec    int  // linger timeout (< 0 = os default)
}

// ServerTransportConfig configures the server side of a transport
type ServerTransportConfig struct {
	SocketConf
	TCPConf
	Endpoint       string // address (tcp, http) or socket path (unix)
	WorkersPerConn int    // concurrent requests handled per connection
	BufferSize     int    // size of pooled frame buffers in bytes
}

// ClientTransportConfig configures the client side of a transport
type ClientTransportConfig struct {
	SocketConf
	TCPConf
	Endpoints              []string
	ConnectionsPerEndpoint int
	RetryCount             int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

type ServerShardType string

const (
	ShardTypeLocal  ServerShardType = "lstore" // registry in a local engine
	ShardTypeRaft   ServerShardType = "dstore" // registry replicated with raft
	ShardTypeRemote ServerShardType = "estore" // registry kept in etcd
)

// ParseShardType validates a shard type given on the command line
func ParseShardType(s string) (ServerShardType, error) {
	switch t := ServerShardType(strings.ToLower(strings.TrimSpace(s))); t {
	case ShardTypeLocal, ShardTypeRaft, ShardTypeRemote:
		return t, nil
	default:
		return "", fmt.Errorf("invalid shard type %q, must be one of %s, %s, %s", s, ShardTypeLocal, ShardTypeRaft, ShardTypeRemote)
	}
}

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type selects the store that backs the shard
	Type ServerShardType
}

// ServerConfig holds all configuration parameters of a medrec server.
type ServerConfig struct {
	// registries hosted by this server
	Shards []ServerShard

	// storage engine for lstore and dstore shards ("maple" or "sqlite")
	Engine string

	// Dragonboat parameters
	RTTMillisecond     uint64
	SnapshotEntries    uint64
	CompactionOverhead uint64
	DataDir            string
	ReplicaID          uint64
	ClusterMembers     map[uint64]string

	// etcd parameters (estore shards)
	EtcdEndpoints []string

	// request timeout for stores and transports
	TimeoutSecond int64

	// RPC transport settings
	Transport ServerTransportConfig

	// Logging configuration
	LogLevel string

	// address of the prometheus metrics endpoint (empty = disabled)
	MetricsEndpoint string
}

// HasShardType checks if the configuration contains a shard of the given type
func (c *ServerConfig) HasShardType(t ServerShardType) bool {
	for _, shard := range c.Shards {
		if shard.Type == t {
			return true
		}
	}
	return false
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.Transport.BufferSize))
	if c.MetricsEndpoint != "" {
		addField("Metrics", c.MetricsEndpoint)
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Shards")
	addField("Engine", c.Engine)
	for _, shard := range c.Shards {
		addField(strconv.FormatUint(shard.ShardID, 10), string(shard.Type))
	}

	if c.HasShardType(ShardTypeRemote) {
		addSection("etcd")
		addField("Endpoints", strings.Join(c.EtcdEndpoints, ","))
	}

	if c.HasShardType(ShardTypeRaft) || c.Engine == "sqlite" {
		addSection("Storage")
		addField("Data Directory", c.DataDir)
	}

	if c.HasShardType(ShardTypeRaft) {
		addSection("Node Identity")
		addField("RAFT Address", c.ClusterMembers[c.ReplicaID])
		addField("Node ID", strconv.FormatUint(c.ReplicaID, 10))

		addSection("RAFT Parameters")
		addField("Round Trip Time (ms)", fmt.Sprintf("%d ms", c.RTTMillisecond))
		addField("Election RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*electionRTTFactor))
		addField("Heartbeat RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*heartbeatRTTFactor))
		addField("Check Quorum", fmt.Sprintf("%t", true))
		addField("Snapshot Entries", fmt.Sprintf("%d", c.SnapshotEntries))
		addField("Compaction Overhead", fmt.Sprintf("%d", c.CompactionOverhead))

		addSection("Cluster")
		sb.WriteString("  Initial Members:\n")

		// Sort keys for consistent output
		var keys []uint64
		for k := range c.ClusterMembers {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("    Node %d: %s\n", k, c.ClusterMembers[k]))
		}
	}
	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
