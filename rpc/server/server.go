package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/maple"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/db/engines/sqlite"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store/dstore"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store/estore"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/store/lstore"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/common"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/serializer"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/transport"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the registry of the shard and the adapter
// that handles requests for the registry
type serverShard struct {
	Service records.IRecordService
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		unix.NewUnixServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
		metrics:    newServerMetrics(),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
	metrics    *serverMetrics

	// resources released by Close
	closeMu       sync.Mutex
	closers       []io.Closer
	nodeHost      *dragonboat.NodeHost
	metricsServer *http.Server
}

// --------------------------------------------------------------------------
// Request handling
// --------------------------------------------------------------------------

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(s.handle)
}

// handle decodes a request, passes it to the adapter of the shard and encodes the response
func (s *rpcServer) handle(shardId uint64, req []byte) []byte {
	start := time.Now()

	var msg common.Message
	var respMsg *common.Message
	shardLabel := strconv.FormatUint(shardId, 10)

	if shard, ok := s.shards.Load(shardId); !ok {
		shardLabel = unknownShardLabel
		respMsg = common.NewErrorResponse(common.ErrCInvalidRequest, fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(common.ErrCInvalidRequest, fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		respMsg = shard.Adapter.Handle(&msg, shard.Service)
	}

	if respMsg.Code == common.ErrCInternal {
		Logger.Errorf("shard %d: %s failed: %s", shardId, msg.MsgType, respMsg.Err)
	}
	s.metrics.observe(shardLabel, msg.MsgType, respMsg.Code, start)

	return s.encode(respMsg)
}

// encode serializes a response. If that fails, an error response is sent instead.
func (s *rpcServer) encode(respMsg *common.Message) []byte {
	val, err := s.serializer.Serialize(*respMsg)
	if err == nil {
		return val
	}

	Logger.Errorf("failed to serialize response: %v", err)
	val, err = s.serializer.Serialize(*common.NewErrorResponse(
		common.ErrCInternal,
		fmt.Sprintf("failed to serialize response: %s", err),
	))
	if err != nil {
		return nil
	}
	return val
}

// --------------------------------------------------------------------------
// Shard setup
// --------------------------------------------------------------------------

// dbFactory returns the engine factory for shards of the given type.
// sqlite files are named after shard and replica so that several stores can share the data dir.
func (s *rpcServer) dbFactory(shardType common.ServerShardType) (store.DBFactory, error) {
	switch db.Implementation(s.config.Engine) {
	case db.ImplMaple, "":
		return func(uint64) (db.KVDB, error) {
			return maple.NewMapleDB(nil), nil
		}, nil
	case db.ImplSQLite:
		dir := filepath.Join(s.config.DataDir, "sqlite")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		return func(shardID uint64) (db.KVDB, error) {
			name := fmt.Sprintf("%s-shard-%d-replica-%d.sqlite", shardType, shardID, s.config.ReplicaID)
			return sqlite.Open(filepath.Join(dir, name))
		}, nil
	default:
		return nil, fmt.Errorf("invalid engine %q, must be one of %s, %s", s.config.Engine, db.ImplMaple, db.ImplSQLite)
	}
}

func (s *rpcServer) init() error {
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second

	// Only create the NodeHost if we have raft shards
	if s.config.HasShardType(common.ShardTypeRaft) {
		nodeHost, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.nodeHost = nodeHost
	}

	// Only connect to etcd if we have etcd shards
	var etcdClient *clientv3.Client
	if s.config.HasShardType(common.ShardTypeRemote) {
		var err error
		etcdClient, err = clientv3.New(clientv3.Config{
			Endpoints:   s.config.EtcdEndpoints,
			DialTimeout: timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create etcd client: %w", err)
		}
		s.addCloser(etcdClient)
	}

	/*
		Note: A single RPC Server can host any number of registries (shards). Each
		shard keeps its own id counter and record map in its own store.
	*/

	for _, shardConfig := range s.config.Shards {
		if _, exists := s.shards.Load(shardConfig.ShardID); exists {
			return fmt.Errorf("shard %d configured twice", shardConfig.ShardID)
		}

		var st store.IStore
		switch shardConfig.Type {
		case common.ShardTypeLocal:
			factory, err := s.dbFactory(shardConfig.Type)
			if err != nil {
				return err
			}
			st, err = lstore.NewLocalStore(shardConfig.ShardID, s.trackDB(factory))
			if err != nil {
				return fmt.Errorf("failed to create local store for shard %d: %w", shardConfig.ShardID, err)
			}

		case common.ShardTypeRaft:
			factory, err := s.dbFactory(shardConfig.Type)
			if err != nil {
				return err
			}
			// the state machine closes its engine when the node host shuts down
			if err := s.nodeHost.StartConcurrentReplica(
				s.config.ClusterMembers, false,
				dstore.CreateStateMachineFactory(factory),
				s.config.ToDragonboatConfig(shardConfig.ShardID),
			); err != nil {
				return fmt.Errorf("failed to start shard %d: %w", shardConfig.ShardID, err)
			}
			st = dstore.NewDistributedStore(s.nodeHost, shardConfig.ShardID, timeout)

		case common.ShardTypeRemote:
			st = estore.NewEtcdStore(etcdClient, shardConfig.ShardID, timeout)

		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Service: records.NewService(st),
			Adapter: NewRecordsServerAdapter(),
		})
		s.metrics.shardStarted(shardConfig.Type)
		Logger.Infof("created %s registry for shard %d", shardConfig.Type, shardConfig.ShardID)
	}

	if s.config.MetricsEndpoint != "" {
		s.startMetricsServer()
	}

	Logger.Infof("medrec setup completed successfully")

	s.registerTransportHandler()
	return nil
}

// trackDB wraps factory so that every engine it creates is closed by Close
func (s *rpcServer) trackDB(factory store.DBFactory) store.DBFactory {
	return func(shardID uint64) (db.KVDB, error) {
		kvdb, err := factory(shardID)
		if err == nil {
			s.addCloser(kvdb)
		}
		return kvdb, err
	}
}

func (s *rpcServer) addCloser(c io.Closer) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	s.closers = append(s.closers, c)
}

func (s *rpcServer) startMetricsServer() {
	server := &http.Server{
		Addr:              s.config.MetricsEndpoint,
		Handler:           s.metrics.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.closeMu.Lock()
	s.metricsServer = server
	s.closeMu.Unlock()

	go func() {
		Logger.Infof("Serving metrics on %s/metrics", s.config.MetricsEndpoint)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics server failed: %v", err)
		}
	}()
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer.
// It blocks until the transport is closed.
func (s *rpcServer) Serve() error {
	if err := s.init(); err != nil {
		_ = s.Close()
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport and releases all stores
func (s *rpcServer) Close() error {
	err := s.transport.Close()

	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.metricsServer != nil {
		err = errors.Join(err, s.metricsServer.Close())
		s.metricsServer = nil
	}
	if s.nodeHost != nil {
		s.nodeHost.Close()
		s.nodeHost = nil
	}
	for _, c := range s.closers {
		err = errors.Join(err, c.Close())
	}
	s.closers = nil
	return err
}
