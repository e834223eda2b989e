// Package wire provides dependency injection for the sigos application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"sync"

	cliadapter "github.com/example/sigos/internal/adapters/cli"
	"github.com/example/sigos/internal/adapters/lamp"
	"github.com/example/sigos/internal/adapters/memory"
	"github.com/example/sigos/internal/adapters/sqlite"
	"github.com/example/sigos/internal/adapters/telnet"
	"github.com/example/sigos/internal/app"
	"github.com/example/sigos/internal/config"
	"github.com/example/sigos/internal/db"
	"github.com/example/sigos/internal/ports/primary"
	"github.com/example/sigos/internal/ports/secondary"
)

var (
	cfg            *config.Config
	logger         *log.Logger
	database       *sql.DB
	commandService *app.CommandServiceImpl
	eventService   primary.EventService
	once           sync.Once
	cfgMu          sync.Mutex
)

// Configure sets the configuration used to build the services.
// It must be called before the first service is requested to take effect.
func Configure(c *config.Config) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	cfg = c
}

// Config returns the active configuration, loading defaults and SIGOS_*
// variables when Configure was never called.
func Config() *config.Config {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			log.Fatalf("failed to load configuration: %v", err)
		}
		cfg = loaded
	}
	return cfg
}

// Logger returns the singleton application logger.
func Logger() *log.Logger {
	once.Do(initServices)
	return logger
}

// CommandService returns the singleton CommandService instance.
func CommandService() primary.CommandService {
	once.Do(initServices)
	return commandService
}

// EventService returns the singleton EventService instance.
func EventService() primary.EventService {
	once.Do(initServices)
	return eventService
}

// TelnetServer returns a new telnet server bound to the command service.
func TelnetServer() *telnet.Server {
	once.Do(initServices)
	c := Config()
	return telnet.NewServer(commandService, telnet.Options{
		Addr:          c.Listen,
		Echo:          c.Echo,
		Welcome:       c.Welcome,
		LineLimit:     c.LineLimit(),
		RatePerSecond: c.RatePerSecond,
		RateBurst:     c.RateBurst,
		IdleTimeout:   c.IdleTimeout,
	}, logger)
}

// Close releases the database connection, if one was opened.
func Close() error {
	if database != nil {
		return database.Close()
	}
	return nil
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	c := Config()
	logger = log.New(os.Stderr, "sigos: ", log.LstdFlags|log.Lmsgprefix)

	// Audit log: SQLite when a path is configured, otherwise a ring in memory
	var events secondary.EventRepository
	if c.DBPath != "" {
		var err error
		database, err = db.Open(c.DBPath)
		if err != nil {
			log.Fatalf("failed to initialize database: %v", err)
		}
		events = sqlite.NewEventRepository(database)
	} else {
		limit := c.LogLimit
		if limit == 0 {
			limit = 1024
		}
		events = memory.NewEventRing(limit)
	}

	svc, err := app.NewCommandService(app.LumenOptions{
		StateNames:   c.StateNames,
		DefaultState: c.DefaultState,
		Priority:     c.Priority,
		Level:        c.Level,
		MaxRequests:  c.MaxRequests,
		LogLimit:     c.LogLimit,
	}, events, lamp.NewLogLamp(logger), logger)
	if err != nil {
		log.Fatalf("failed to initialize command service: %v", err)
	}
	svc.ApplyLamp(context.Background())

	commandService = svc
	eventService = app.NewEventService(events)
}

// CommandAdapter returns a new CommandAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func CommandAdapter() *cliadapter.CommandAdapter {
	return CommandAdapterWithOutput(os.Stdout)
}

// CommandAdapterWithOutput returns a new CommandAdapter writing to the given output.
func CommandAdapterWithOutput(out io.Writer) *cliadapter.CommandAdapter {
	once.Do(initServices)
	return cliadapter.NewCommandAdapter(commandService, out)
}

// EventAdapter returns a new EventAdapter writing to stdout.
func EventAdapter() *cliadapter.EventAdapter {
	return EventAdapterWithOutput(os.Stdout)
}

// EventAdapterWithOutput returns a new EventAdapter writing to the given output.
func EventAdapterWithOutput(out io.Writer) *cliadapter.EventAdapter {
	once.Do(initServices)
	return cliadapter.NewEventAdapter(eventService, out)
}
