package serve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	cmdUtil "github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/cmd/util"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/util"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start the medrec server",
		Long: `Start the medrec server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is MEDREC_<flag> (e.g. MEDREC_TIMEOUT=15)

Every shard is an independent patient record registry with its own id counter.`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "1=lstore", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=TYPE where TYPE is one of: lstore (local), dstore (raft replicated), estore (etcd)"))

	key = "engine"
	ServeCmd.PersistentFlags().String(key, "maple", cmdUtil.WrapString("Storage engine for lstore and dstore shards (maple = in memory, sqlite = one file per shard in data-dir)"))

	key = "rtt-millisecond"
	ServeCmd.PersistentFlags().Int(key, 100, cmdUtil.WrapString("(dstore) RTTMillisecond defines the average Round Trip Time (RTT) in milliseconds between two NodeHost instances. \nOther raft configuration parameters (ElectionRTT=value/10, HeartbeatRTT=value/100) are derived from this value"))

	key = "snapshot-entries"
	ServeCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("(dstore) SnapshotEntries defines how often the state machine should be snapshotted automatically. It is defined in terms of the number of applied Raft log entries. 0 disables automatic snapshotting (not recommended)"))

	key = "compaction-overhead"
	ServeCmd.PersistentFlags().Int(key, 5, cmdUtil.WrapString("(dstore) CompactionOverhead defines the number of log entries to keep after a snapshot. Recommended value is about 1/2 of SnapshotEntries"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("DataDir is the directory used for raft logs, snapshots and sqlite files"))

	key = "replica-id"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(dstore) ReplicaID is the unique identifier for this NodeHost instance (e.g. 'node-1')"))

	key = "cluster-members"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(dstore) ClusterMembers is a comma-separated list of NodeHost addresses in the format 'node-1=localhost:63001,node-2=localhost:63002,...'"))

	key = "etcd-endpoints"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(estore) Comma-separated list of etcd endpoints (e.g. 'localhost:2379')"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for replicated and etcd operations"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/medrec.sock, ...)"))

	key = "transport-workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 4, cmdUtil.WrapString("Number of goroutines handling requests per connection (tcp and unix only)"))

	key = "transport-buffer-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Initial size of the frame buffer per connection in bytes, 0 uses the transport default (tcp and unix only)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the prometheus metrics endpoint (e.g. localhost:9090), empty disables it"))

	cmdUtil.SetupSocketFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	serveCmdConfig.Shards = shards

	serveCmdConfig.Engine = viper.GetString("engine")
	serveCmdConfig.RTTMillisecond = viper.GetUint64("rtt-millisecond")
	serveCmdConfig.SnapshotEntries = viper.GetUint64("snapshot-entries")
	serveCmdConfig.CompactionOverhead = viper.GetUint64("compaction-overhead")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		SocketConf:     cmdUtil.GetSocketConf(),
		TCPConf:        cmdUtil.GetTCPConf(),
		Endpoint:       viper.GetString("endpoint"),
		WorkersPerConn: viper.GetInt("transport-workers-per-conn"),
		BufferSize:     viper.GetInt("transport-buffer-size"),
	}

	if serveCmdConfig.HasShardType(common.ShardTypeRemote) {
		serveCmdConfig.EtcdEndpoints = splitList(viper.GetString("etcd-endpoints"))
		if len(serveCmdConfig.EtcdEndpoints) == 0 {
			return fmt.Errorf("etcd-endpoints is required for estore shards")
		}
	}

	// replica id and cluster members are only needed in cluster mode
	if !serveCmdConfig.HasShardType(common.ShardTypeRaft) {
		return nil
	}

	id := viper.GetString("replica-id")
	if id == "" {
		return fmt.Errorf("replica-id is required for dstore shards")
	}
	serveCmdConfig.ReplicaID = uint64(util.HashString(id, 0))

	members, err := parseClusterMembers(viper.GetString("cluster-members"))
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return fmt.Errorf("cluster-members is required for dstore shards")
	}
	if _, ok := members[serveCmdConfig.ReplicaID]; !ok {
		return fmt.Errorf("no address found for replica %s in cluster members", id)
	}
	serveCmdConfig.ClusterMembers = members

	return nil
}

// parseShards parses a list of ID=TYPE pairs
func parseShards(s string) ([]common.ServerShard, error) {
	var shards []common.ServerShard
	for _, shardConfig := range splitList(s) {
		parts := strings.Split(shardConfig, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid shard format: %s (expected ID=TYPE)", shardConfig)
		}

		shardID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %w", parts[0], err)
		}

		shardType, err := common.ParseShardType(parts[1])
		if err != nil {
			return nil, err
		}

		shards = append(shards, common.ServerShard{ShardID: shardID, Type: shardType})
	}

	if len(shards) == 0 {
		return nil, fmt.Errorf("at least one shard is required")
	}
	return shards, nil
}

// parseClusterMembers parses a list of name=address pairs, the names are hashed to replica ids
func parseClusterMembers(s string) (map[uint64]string, error) {
	members := make(map[uint64]string)
	for _, member := range splitList(s) {
		parts := strings.Split(member, "=")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid cluster member format: %s (expected NAME=ADDRESS)", member)
		}
		members[uint64(util.HashString(strings.TrimSpace(parts[0]), 0))] = strings.TrimSpace(parts[1])
	}
	return members, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// run starts the medrec server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(*serveCmdConfig, t, s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- serv.Serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Println("shutting down...")
	return errors.Join(serv.Close(), <-errCh)
}
