// Command acs runs the EvoACS protocol core: the CWMP endpoint, the USP controller MTPs and
// the operations API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dexter939/EvoAcs-sub001/internal/api"
	"github.com/dexter939/EvoAcs-sub001/internal/connreq"
	"github.com/dexter939/EvoAcs-sub001/internal/cwmp"
	"github.com/dexter939/EvoAcs-sub001/internal/logging"
	"github.com/dexter939/EvoAcs-sub001/internal/mtp"
	"github.com/dexter939/EvoAcs-sub001/internal/session"
	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/internal/tasks"
	"github.com/dexter939/EvoAcs-sub001/internal/usp"
	"github.com/dexter939/EvoAcs-sub001/pkg/config"
	"github.com/dexter939/EvoAcs-sub001/pkg/consul"
	"github.com/dexter939/EvoAcs-sub001/pkg/kafka"
	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
	"github.com/dexter939/EvoAcs-sub001/pkg/redis"
	"github.com/dexter939/EvoAcs-sub001/pkg/version"
)

const (
	sessionSweepInterval = 10 * time.Second
	pollSweepInterval    = time.Minute
	shutdownTimeout      = 10 * time.Second
)

// acs holds the long-lived components of the process.
type acs struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.ACSMetrics
	reg     *prometheus.Registry

	db         *store.Database
	repos      *store.Repositories
	sessions   *session.Manager
	dispatcher *tasks.Dispatcher
	processor  *usp.Processor
	requester  *connreq.Client
	waker      *tasks.Waker
	poll       *mtp.PollStore

	redis    *redis.Client
	agents   *redis.ConnectionRegistry
	kafka    *kafka.Client
	consumer *kafka.Consumer
	events   *kafka.EventPublisher
	consul   *consul.ServiceRegistry

	ws   *mtp.WSServer
	mqtt *mtp.MQTTAdapter

	httpServer *http.Server
	grpcServer *grpc.Server
	healthSrv  *health.Server
}

func main() {
	configPath := flag.String("config", "", "Path to evoacs.yml")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion("evoacs"))
		return
	}

	cfg := config.LoadWithPath(*configPath)
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.ServiceName)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newACS(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to initialize ACS")
	}
	if err := a.run(ctx); err != nil {
		log.Error().Err(err).Msg("❌ ACS stopped with error")
		os.Exit(1)
	}
}

func newACS(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*acs, error) {
	a := &acs{cfg: cfg, log: log, reg: prometheus.NewRegistry()}
	a.reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	a.metrics = metrics.NewACSMetrics(cfg.ServiceName, a.reg)

	db, err := store.NewDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		return nil, err
	}
	a.db = db
	a.repos = store.NewRepositories(db.DB)

	if cfg.Redis.Enabled {
		if a.redis, err = redis.NewClient(ctx, cfg.Redis, log); err != nil {
			return nil, err
		}
		a.agents = redis.NewConnectionRegistry(a.redis, 0)
	}

	if cfg.Kafka.Enabled {
		if err := a.initKafka(ctx); err != nil {
			return nil, err
		}
	}

	var taskEvents tasks.EventPublisher
	var informEvents cwmp.EventSink
	if a.events != nil {
		taskEvents = a.events
		informEvents = a.events
	}

	a.dispatcher = tasks.NewDispatcher(a.repos.Tasks, tasks.Config{
		ControllerID: cfg.USP.ControllerEndpointID,
		Version:      cfg.USP.RecordVersion,
		Events:       taskEvents,
		Logger:       log,
		Metrics:      a.metrics,
	})
	a.sessions = session.NewManager(session.Config{
		Timeout:     cfg.CWMP.SessionTimeout,
		Logger:      log,
		Metrics:     a.metrics,
		Snapshotter: session.NewRepositorySnapshotter(a.repos.Sessions),
		Releaser:    a.dispatcher,
	})

	procCfg := usp.ProcessorConfig{
		Version:    cfg.USP.RecordVersion,
		Logger:     log,
		Metrics:    a.metrics,
		OnResponse: a.dispatcher.HandleUSPResponse,
	}
	if a.events != nil {
		procCfg.OnRegistered = a.events.DeviceRegistered
	}
	a.processor = usp.NewProcessor(a.repos.Devices, a.repos.Parameters, procCfg)

	a.requester = connreq.NewClient(connreq.Config{
		Timeout: cfg.ConnectionRequest.Timeout,
		Devices: a.repos.Devices,
		Logger:  log,
		Metrics: a.metrics,
	})
	a.waker = tasks.NewWaker(a.repos.Devices, a.requester, a.dispatcher, log)

	a.poll = mtp.NewPollStore(a.repos.Pending, cfg.USP.PendingRequestTTL, log)
	a.dispatcher.RegisterSender(usp.MTPHTTP, a.poll)

	if cfg.WebSocket.Enabled {
		a.initWebSocket()
	}
	if cfg.MQTT.Enabled {
		a.initMQTT()
	}
	if a.consumer != nil {
		a.consumer.Handle(cfg.Kafka.Topics.TaskCreated, kafka.TaskCreatedHandler(a.waker, log))
	}

	engine := cwmp.NewEngine(cwmp.Config{
		Sessions:   a.sessions,
		Devices:    a.repos.Devices,
		Parameters: a.repos.Parameters,
		Tasks:      a.dispatcher,
		Events:     informEvents,
		Logger:     log,
		Metrics:    a.metrics,
	})
	cwmpHandler := cwmp.NewHandler(engine, cwmp.HandlerConfig{
		CookieName:  cfg.CWMP.CookieName,
		AuthEnabled: cfg.CWMP.AuthEnabled,
		Username:    cfg.CWMP.Username,
		Password:    cfg.CWMP.Password,
		Logger:      log,
		Metrics:     a.metrics,
	})

	a.httpServer = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.NewRouter(a.apiConfig(cwmpHandler)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	a.healthSrv = health.NewServer()
	a.grpcServer = grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(a.grpcServer, a.healthSrv)

	if cfg.Consul.Enabled {
		if a.consul, err = consul.NewServiceRegistry(cfg.Consul, log); err != nil {
			log.Warn().Err(err).Msg("⚠️ Consul unavailable, continuing without registration")
		}
	}

	return a, nil
}

func (a *acs) initKafka(ctx context.Context) error {
	cfg := a.cfg.Kafka
	client, err := kafka.NewClient(cfg, a.log)
	if err != nil {
		return err
	}
	if err := client.EnsureTopics(ctx, cfg.Topics.DeviceEvents, cfg.Topics.TaskEvents, cfg.Topics.TaskCreated); err != nil {
		a.log.Warn().Err(err).Msg("⚠️ Kafka topic creation failed")
	}
	a.kafka = client
	a.events = kafka.NewEventPublisher(client.Producer(), cfg.Topics.DeviceEvents, cfg.Topics.TaskEvents, a.log)

	if cfg.Topics.TaskCreated != "" {
		if a.consumer, err = kafka.NewConsumer(cfg, a.log); err != nil {
			return err
		}
	}
	return nil
}

func (a *acs) initWebSocket() {
	cfg := a.cfg.WebSocket
	var queue mtp.OutboundQueue = mtp.NewMemoryQueue()
	if cfg.QueueBackend == "redis" && a.redis != nil {
		queue = redis.NewOutboundQueue(a.redis, a.cfg.USP.PendingRequestTTL)
	}

	logs := connectionLogs{a.repos.Connections}
	if a.agents != nil {
		logs = append(logs, a.agents)
	}

	a.ws = mtp.NewWSServer(a.processor, mtp.WSServerConfig{
		Addr:         net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Path:         cfg.Path,
		PollInterval: cfg.PollInterval,
		Queue:        queue,
		Devices:      a.repos.Devices,
		Connections:  logs,
		OnConnect:    a.waker.WakeEndpoint,
		Logger:       a.log,
		Metrics:      a.metrics,
	})
	a.dispatcher.RegisterSender(usp.MTPWebSocket, a.ws)
}

func (a *acs) initMQTT() {
	cfg := a.cfg.MQTT
	a.mqtt = mtp.NewMQTTAdapter(nil, a.processor, mtp.MQTTAdapterConfig{
		ControllerID:   a.cfg.USP.ControllerEndpointID,
		SubscribeTopic: cfg.SubscribeTopic,
		PublishTimeout: cfg.PublishTimeout,
		Logger:         a.log,
		Metrics:        a.metrics,
	})
	a.mqtt.SetClient(mtp.NewPahoClient(cfg, a.log, a.mqtt.Resubscribe))
	a.dispatcher.RegisterSender(usp.MTPMQTT, a.mqtt)
}

func (a *acs) apiConfig(cwmpHandler http.Handler) api.Config {
	checks := map[string]api.Pinger{"database": a.db}
	c := api.Config{
		ServiceName: a.cfg.ServiceName,
		CWMPPath:    a.cfg.CWMP.Path,
		CWMP:        cwmpHandler,
		Processor:   a.processor,
		Poll:        a.poll,
		Devices:     a.repos.Devices,
		Tasks:       a.repos.Tasks,
		Requester:   a.requester,
		Waker:       a.waker,
		Checks:      checks,
		Gatherer:    a.reg,
		Logger:      a.log,
		Metrics:     a.metrics,
	}
	if a.redis != nil {
		checks["redis"] = a.redis
		c.Agents = a.agents
	}
	if a.kafka != nil {
		checks["kafka"] = a.kafka
	}
	return c
}

func (a *acs) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 4)
	goRun := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				a.log.Error().Err(err).Str("component", name).Msg("❌ Component failed")
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	goRun("session-sweeper", func() error { a.sessions.Run(ctx, sessionSweepInterval); return nil })
	goRun("poll-sweeper", func() error { a.poll.RunSweeper(ctx, pollSweepInterval); return nil })

	if a.ws != nil {
		goRun("websocket", func() error { return a.ws.ListenAndServe(ctx) })
	}
	if a.mqtt != nil {
		if err := a.mqtt.Start(ctx); err != nil {
			return err
		}
	}
	if a.consumer != nil {
		goRun("kafka-consumer", func() error { return a.consumer.Run(ctx) })
	}

	grpcLn, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(a.cfg.GRPCHealthPort)))
	if err != nil {
		return fmt.Errorf("failed to bind gRPC health port: %w", err)
	}
	a.healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	goRun("grpc-health", func() error { return a.grpcServer.Serve(grpcLn) })

	goRun("http", func() error {
		a.log.Info().Str("addr", a.cfg.HTTP.Addr).Str("cwmp_path", a.cfg.CWMP.Path).Msg("🚀 ACS HTTP server starting")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.consul != nil {
		svc := consul.ServiceInfo{
			Name:     a.cfg.ServiceName,
			HTTPPort: consul.PortFromAddr(a.cfg.HTTP.Addr),
			GRPCPort: a.cfg.GRPCHealthPort,
		}
		if a.ws != nil {
			svc.WSPort = a.cfg.WebSocket.Port
		}
		if err := a.consul.Register(svc); err != nil {
			a.log.Warn().Err(err).Msg("⚠️ Consul registration failed")
		}
	}

	a.log.Info().Str("version", version.GetShortVersion()).Msg("✅ EvoACS started")
	<-ctx.Done()
	a.log.Info().Msg("🛑 Shutdown signal received")
	a.stopServers()
	wg.Wait()
	a.closeClients()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func (a *acs) stopServers() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.consul != nil {
		if err := a.consul.Deregister(); err != nil {
			a.log.Warn().Err(err).Msg("⚠️ Consul deregistration failed")
		}
	}
	a.healthSrv.Shutdown()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("⚠️ HTTP server shutdown error")
	}
	a.grpcServer.GracefulStop()
}

func (a *acs) closeClients() {
	if a.mqtt != nil {
		a.mqtt.Close()
	}
	if a.consumer != nil {
		a.consumer.Close()
	}
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("⚠️ Redis close error")
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("⚠️ Database close error")
	}
	a.log.Info().Msg("✅ EvoACS stopped")
}

// connectionLogs fans MTP connection events out to every configured log.
type connectionLogs []mtp.ConnectionLog

func (l connectionLogs) Record(ctx context.Context, ev *store.ConnectionEvent) error {
	var errs []error
	for _, c := range l {
		if err := c.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
