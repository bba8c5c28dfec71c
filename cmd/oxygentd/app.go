package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"OxyGent-Console/internal/agent"
	"OxyGent-Console/internal/api"
	"OxyGent-Console/internal/config"
	"OxyGent-Console/internal/events"
	"OxyGent-Console/internal/executor"
	"OxyGent-Console/internal/mas"
	"OxyGent-Console/internal/observability/alerting"
	"OxyGent-Console/internal/observability/metrics"
	"OxyGent-Console/internal/registry"
	"OxyGent-Console/internal/storage/mysql"
	"OxyGent-Console/internal/storage/redis"
	"OxyGent-Console/internal/system"
	"OxyGent-Console/internal/tool"
	"OxyGent-Console/internal/workflow"
	"OxyGent-Console/pkg/logger"
)

// backend 持有注册表存储的连接，重启服务时保持不变。
type backend struct {
	driver string
	ids    string
	db     *sql.DB
	rdb    *goredis.Client
	prefix string
	seqs   map[string]registry.IDGenerator
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{
		driver: cfg.Storage.Driver,
		ids:    cfg.Storage.IDStrategy,
		prefix: cfg.Storage.Redis.Prefix,
		seqs:   make(map[string]registry.IDGenerator),
	}
	switch b.driver {
	case "memory":
	case "mysql":
		db, err := mysql.Open(ctx, mysqlConfig(cfg))
		if err != nil {
			return nil, err
		}
		b.db = db
	case "redis":
		rdb, err := redis.Open(ctx, redis.Config{
			Address:  cfg.Storage.Redis.Address,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			Prefix:   cfg.Storage.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		b.rdb = rdb
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", b.driver)
	}
	return b, nil
}

// idsFor 返回指定资源类型的 ID 生成器。内存顺序号在重启之间保留，避免复用已分配的 ID。
func (b *backend) idsFor(kind string) registry.IDGenerator {
	if b.ids == "uuid" {
		return registry.UUIDs{}
	}
	if gen, ok := b.seqs[kind]; ok {
		return gen
	}
	var gen registry.IDGenerator
	switch b.driver {
	case "mysql":
		gen = mysql.NewSequence(b.db, kind)
	case "redis":
		gen = redis.NewSequence(b.rdb, b.prefix, kind)
	default:
		gen = registry.NewSequence()
	}
	b.seqs[kind] = gen
	return gen
}

func (b *backend) Close() error {
	var errs []error
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	if b.rdb != nil {
		errs = append(errs, b.rdb.Close())
	}
	return errors.Join(errs...)
}

// stores 缓存各资源类型的存储，内存驱动在重启之间保留数据。
type stores struct {
	agents    registry.Store[agent.Agent]
	tools     registry.Store[tool.Tool]
	workflows registry.Store[workflow.Workflow]
	mas       registry.Store[mas.Instance]
}

func newStores(b *backend) stores {
	return stores{
		agents:    storeFor[agent.Agent](b, "agents"),
		tools:     storeFor[tool.Tool](b, "tools"),
		workflows: storeFor[workflow.Workflow](b, "workflows"),
		mas:       storeFor[mas.Instance](b, "mas"),
	}
}

func storeFor[T registry.Resource[T]](b *backend, kind string) registry.Store[T] {
	switch b.driver {
	case "mysql":
		return mysql.NewStore[T](b.db, kind)
	case "redis":
		return redis.NewStore[T](b.rdb, b.prefix, kind)
	default:
		return registry.NewMemoryStore[T]()
	}
}

func mysqlConfig(cfg *config.Config) mysql.Config {
	return mysql.Config{
		DSN:             cfg.Storage.MySQL.DSN,
		MaxOpenConns:    cfg.Storage.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MySQL.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Storage.MySQL.ConnMaxLifetimeSeconds) * time.Second,
	}
}

func openBus(ctx context.Context, cfg *config.Config) (events.Bus, error) {
	switch cfg.Events.Driver {
	case "none":
		return events.Discard{}, nil
	case "memory":
		return events.NewMemoryBus(cfg.Events.Buffer), nil
	case "redis":
		redisCfg := cfg.Events.Redis
		if redisCfg.Address == "" {
			redisCfg = cfg.Storage.Redis
			redisCfg.Queue = cfg.Events.Redis.Queue
		}
		return events.NewRedisBus(ctx, events.RedisConfig{
			Address:   redisCfg.Address,
			Password:  redisCfg.Password,
			DB:        redisCfg.DB,
			Queue:     redisCfg.Queue,
			BlockWait: time.Duration(redisCfg.BlockWait) * time.Second,
		})
	case "rabbitmq":
		return events.NewRabbitMQBus(events.RabbitMQConfig{
			URL:        cfg.Events.RabbitMQ.URL,
			Queue:      cfg.Events.RabbitMQ.Queue,
			Prefetch:   cfg.Events.RabbitMQ.Prefetch,
			Durable:    cfg.Events.RabbitMQ.Durable,
			AutoDelete: cfg.Events.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("未知的事件驱动: %s", cfg.Events.Driver)
	}
}

// graph 是一次启动构建出的服务集合，重启时整体丢弃并重建。
type graph struct {
	server *api.Server
	system *system.Service
}

func buildGraph(cfg *config.Config, b *backend, st stores, bus events.Publisher, collector *metrics.Collector, sysCfg *system.Config) (*graph, error) {
	exec := executor.NewMock()
	timeout := cfg.Executor.Timeout()
	opts := func(kind string) []registry.Option {
		return []registry.Option{registry.WithIDGenerator(b.idsFor(kind)), registry.WithPublisher(bus)}
	}

	agents := agent.NewService(st.agents, exec, timeout, opts("agents")...)
	tools := tool.NewService(st.tools, exec, timeout, cfg.Runtime.DataDir, opts("tools")...)
	workflows := workflow.NewService(st.workflows, agents, exec, timeout, opts("workflows")...)
	instances := mas.NewService(st.mas, exec, timeout, opts("mas")...)

	sysOpts := []system.Option{}
	if sysCfg != nil {
		sysOpts = append(sysOpts, system.WithInitialConfig(*sysCfg))
	}
	sys, err := system.NewService(cfg.Runtime.Version, system.Sources{
		Agents:    agents,
		Tools:     tools,
		Workflows: workflows,
		MAS:       instances,
	}, sysOpts...)
	if err != nil {
		return nil, err
	}

	apiOpts := api.Options{
		Address:           cfg.Server.Address,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout(),
		ShutdownTimeout:   cfg.Server.ShutdownTimeout(),
		MaxUploadBytes:    int64(cfg.Server.MaxUploadMB) << 20,
		MaxBodyBytes:      int64(cfg.Server.MaxBodyKB) << 10,
		Alerts:            alerting.NewFanout(&alerting.LogNotifier{}),
	}
	if cfg.Metrics.IsEnabled() {
		apiOpts.Metrics = collector
	}
	server := api.NewServer(apiOpts, api.Services{
		Agents:    agents,
		Tools:     tools,
		Workflows: workflows,
		MAS:       instances,
		System:    sys,
	})
	return &graph{server: server, system: sys}, nil
}

// serve 启动管理 API，并在收到重启请求时重建服务图。
func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("oxygentd")
	if err := os.MkdirAll(cfg.Runtime.DataDir, 0o755); err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	st := newStores(b)

	bus, err := openBus(ctx, cfg)
	if err != nil {
		return err
	}
	defer bus.Close()

	collector := metrics.New()
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	go func() {
		handler := events.Chain(events.AuditSink(nil), collector.EventHandler())
		if err := bus.Consume(consumerCtx, 1, handler); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("事件消费异常退出", slog.Any("error", err))
		}
	}()

	var carried *system.Config
	for {
		g, err := buildGraph(cfg, b, st, bus, collector, carried)
		if err != nil {
			return err
		}

		serverCtx, stopServer := context.WithCancel(ctx)
		errCh := make(chan error, 1)
		go func() { errCh <- g.server.Start(serverCtx) }()
		log.Info("oxygentd 已启动",
			slog.String("addr", cfg.Server.Address),
			slog.String("storage", cfg.Storage.Driver),
			slog.String("events", cfg.Events.Driver),
			slog.String("version", g.system.Version()),
		)

		select {
		case <-ctx.Done():
			stopServer()
			<-errCh
			return nil
		case err := <-errCh:
			stopServer()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case <-g.system.Restarts():
			log.Warn("正在重启服务")
			stopServer()
			<-errCh
			snapshot := g.system.Snapshot()
			carried = &snapshot
		}
	}
}
