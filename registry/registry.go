package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Palladinium/quartermaster/configuration"
	"github.com/Palladinium/quartermaster/health"
	"github.com/Palladinium/quartermaster/internal/dcontext"
	"github.com/Palladinium/quartermaster/metrics"
	"github.com/Palladinium/quartermaster/registry/auth"
	"github.com/Palladinium/quartermaster/registry/core"
	"github.com/Palladinium/quartermaster/registry/handlers"
	"github.com/Palladinium/quartermaster/registry/storage/driver/factory"
	_ "github.com/Palladinium/quartermaster/registry/storage/driver/filesystem"
	_ "github.com/Palladinium/quartermaster/registry/storage/driver/s3"
	"github.com/Palladinium/quartermaster/version"
)

// envPrefix is the environment-variable prefix configuration.Parser
// overlays onto the loaded file, e.g. QUARTERMASTER__SERVER__ROOTURL.
const envPrefix = "QUARTERMASTER"

// drainTimeout bounds how long ListenAndServe waits for in-flight
// requests to finish after a shutdown signal, mirroring the teacher's
// config.HTTP.DrainTimeout but fixed rather than configurable, since
// spec.md names no corresponding knob.
const drainTimeout = 10 * time.Second

// ServeCmd is the cobra command that runs the registry HTTP server.
var ServeCmd = &cobra.Command{
	Use:   "serve <config>",
	Short: "`serve` runs the registry HTTP server",
	Long:  "`serve` loads a configuration file and serves the index and API endpoints it describes.",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := resolveConfigurationPath(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			// nolint:errcheck
			cmd.Usage()
			os.Exit(1)
		}

		config, err := loadConfiguration(configPath)
		if err != nil {
			logrus.Fatalln(err)
		}

		r, err := NewRegistry(config)
		if err != nil {
			logrus.Fatalln(err)
		}

		if err := r.ListenAndServe(); err != nil {
			logrus.Fatalln(err)
		}
	},
}

func loadConfiguration(path string) (*configuration.Configuration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %q: %w", path, err)
	}

	config, err := configuration.NewParser(envPrefix).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, nil
}

// Registry is a complete running instance: the index/API routes, the
// ambient /debug/health and /metrics routes, and the http.Server
// multiplexing all three, shut down gracefully on SIGINT/SIGTERM.
type Registry struct {
	logger *logrus.Entry
	server *http.Server
	quit   chan os.Signal
}

// NewRegistry constructs every component config describes — storage
// backend, authorizer, core, HTTP handler — and wires them together,
// following the shape of the teacher's NewRegistry (registry/registry.go)
// reduced to a single always-on listener with no TLS/H2C branching.
func NewRegistry(config *configuration.Configuration) (*Registry, error) {
	logger := configureLogging(config)
	ctx := dcontext.WithLogger(context.Background(), logger)

	// The configuration calls the filesystem driver "local".
	driverName := config.Storage.Type
	if driverName == "local" {
		driverName = "filesystem"
	}
	storageDriver, err := factory.Create(ctx, driverName, storageParameters(config))
	if err != nil {
		return nil, fmt.Errorf("constructing %s storage driver: %w", config.Storage.Type, err)
	}

	authorizer, err := newAuthorizer(config)
	if err != nil {
		return nil, fmt.Errorf("constructing authorizer: %w", err)
	}

	c := core.New(core.Config{
		RootURL:        config.Server.RootURL,
		MaxPublishSize: config.Crates.MaxPublishSize,
	}, storageDriver, authorizer)

	app := handlers.New(c, logger)

	health.Register("storage", health.CheckFunc(c.Healthy))

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/health", health.StatusHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", metrics.Instrument("registry", app))

	addr := config.Server.Bind[0]
	if len(config.Server.Bind) > 1 {
		logger.Warnf("server.bind lists %d addresses; only the first (%s) is used", len(config.Server.Bind), addr)
	}

	logger.Infof("quartermaster %s starting", version.Version())

	return &Registry{
		logger: logger,
		server: &http.Server{Addr: addr, Handler: mux},
		quit:   make(chan os.Signal, 1),
	}, nil
}

// ListenAndServe binds the first address in config.Server.Bind (any
// further addresses are not listened on) and serves until a
// SIGINT/SIGTERM is received, then drains in-flight requests for
// up to drainTimeout before returning, mirroring the teacher's
// ListenAndServe/Shutdown split (registry/registry.go).
func (r *Registry) ListenAndServe() error {
	addr := r.server.Addr

	signal.Notify(r.quit, os.Interrupt, syscall.SIGTERM)
	serveErr := make(chan error, 1)

	go func() {
		serveErr <- r.server.ListenAndServe()
	}()

	r.logger.Infof("listening on %v", addr)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-r.quit:
		r.logger.Infof("stopping server gracefully, draining for %s", drainTimeout)
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		return r.server.Shutdown(ctx)
	}
}

func storageParameters(config *configuration.Configuration) map[string]interface{} {
	switch config.Storage.Type {
	case "s3":
		return map[string]interface{}{
			"bucket":         config.Storage.S3.Bucket,
			"region":         config.Storage.S3.Region,
			"regionendpoint": config.Storage.S3.RegionEndpoint,
			"forcepathstyle": config.Storage.S3.ForcePathStyle,
			"secure":         config.Storage.S3.Secure,
			"accesskey":      config.Storage.S3.AccessKey,
			"secretkey":      config.Storage.S3.SecretKey,
		}
	default:
		return map[string]interface{}{
			"rootdirectory": config.Storage.Local.RootDirectory,
		}
	}
}

func newAuthorizer(config *configuration.Configuration) (*auth.Authorizer, error) {
	switch config.Auth.Type {
	case "", "none":
		return auth.Disabled(), nil
	case "token":
		return auth.StaticToken(config.Auth.Token.TokenHash)
	case "tokenfile":
		return auth.TokenFile(config.Auth.TokenFile.TokenFile)
	case "tokenlist":
		return auth.TokenList(config.Auth.TokenList.Tokens)
	default:
		return nil, fmt.Errorf("unknown auth.type %q", config.Auth.Type)
	}
}

// configureLogging sets up the package-global logrus logger the way the
// teacher's configureLogging does, returning an Entry carrying the
// running version as a field.
func configureLogging(config *configuration.Configuration) *logrus.Entry {
	level, err := logrus.ParseLevel(config.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	switch config.Log.Formatter {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339Nano})
	}

	return logrus.WithField("version", version.Version())
}
