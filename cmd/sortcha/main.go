package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/facebookgo/flagenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sortcha/sortcha"
	"github.com/sortcha/sortcha/internal"
	libsortcha "github.com/sortcha/sortcha/lib"
	"github.com/sortcha/sortcha/lib/game"
	"github.com/sortcha/sortcha/lib/store"

	_ "github.com/sortcha/sortcha/lib/store/all"
)

var (
	basePrefix         = flag.String("base-prefix", "", "base prefix (root URL) the application is served under e.g. /myapp")
	bind               = flag.String("bind", ":8923", "network address to bind HTTP to")
	bindNetwork        = flag.String("bind-network", "tcp", "network family to bind HTTP to, e.g. unix, tcp")
	challengeTTL       = flag.Duration("challenge-ttl", sortcha.DefaultTTL, "how long an issued challenge token stays claimable")
	gamesFname         = flag.String("games-fname", "", "full path to the game catalog document (defaults to a sensible built-in catalog)")
	healthcheck        = flag.Bool("healthcheck", false, "run a health check against sortcha")
	metricsBind        = flag.String("metrics-bind", ":9090", "network address to bind metrics to")
	metricsBindNetwork = flag.String("metrics-bind-network", "tcp", "network family for the metrics server to bind to")
	slogLevel          = flag.String("slog-level", "INFO", "logging level (see https://pkg.go.dev/log/slog#hdr-Levels)")
	socketMode         = flag.String("socket-mode", "0770", "socket mode (permissions) for unix domain sockets.")
	storeBackend       = flag.String("store-backend", sortcha.DefaultStoreBackend, "token store backend to use")
	storeConfig        = flag.String("store-config", "", "JSON configuration for the token store backend")
	versionFlag        = flag.Bool("version", false, "print sortcha version")
)

func doHealthCheck() error {
	resp, err := http.Get("http://localhost" + *bind + *basePrefix + "/healthz")
	if err != nil {
		return fmt.Errorf("failed to fetch health endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// parseBindNetFromAddr determine bind network and address based on the given network and address.
func parseBindNetFromAddr(address string) (string, string) {
	defaultScheme := "http://"
	if !strings.Contains(address, "://") {
		if strings.HasPrefix(address, ":") {
			address = defaultScheme + "localhost" + address
		} else {
			address = defaultScheme + address
		}
	}

	bindUri, err := url.Parse(address)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to parse bind URL: %w", err))
	}

	switch bindUri.Scheme {
	case "unix":
		return "unix", bindUri.Path
	case "tcp", "http", "https":
		return "tcp", bindUri.Host
	default:
		log.Fatal(fmt.Errorf("unsupported network scheme %s in address %s", bindUri.Scheme, address))
	}
	return "", address
}

func setupListener(network string, address string) (net.Listener, string) {
	formattedAddress := ""

	if network == "" {
		// keep compatibility
		network, address = parseBindNetFromAddr(address)
	}

	switch network {
	case "unix":
		formattedAddress = "unix:" + address
	case "tcp":
		if strings.HasPrefix(address, ":") { // assume it's just a port e.g. :4259
			formattedAddress = "http://localhost" + address
		} else {
			formattedAddress = "http://" + address
		}
	default:
		formattedAddress = fmt.Sprintf(`(%s) %s`, network, address)
	}

	listener, err := net.Listen(network, address)
	if err != nil {
		log.Fatal(fmt.Errorf("failed to bind to %s: %w", formattedAddress, err))
	}

	// additional permission handling for unix sockets
	if network == "unix" {
		mode, err := strconv.ParseUint(*socketMode, 8, 0)
		if err != nil {
			listener.Close()
			log.Fatal(fmt.Errorf("could not parse socket mode %s: %w", *socketMode, err))
		}

		err = os.Chmod(address, os.FileMode(mode))
		if err != nil {
			if err := listener.Close(); err != nil {
				log.Printf("failed to close listener: %v", err)
			}
			log.Fatal(fmt.Errorf("could not change socket mode: %w", err))
		}
	}

	return listener, formattedAddress
}

func buildStore(ctx context.Context) (store.Interface, error) {
	factory, ok := store.Get(*storeBackend)
	if !ok {
		return nil, fmt.Errorf("unknown store backend %q, have: %s", *storeBackend, strings.Join(store.Backends(), ", "))
	}

	var config json.RawMessage
	if *storeConfig != "" {
		config = json.RawMessage(*storeConfig)
	}

	if err := factory.Valid(config); err != nil {
		return nil, fmt.Errorf("invalid configuration for store backend %q: %w", *storeBackend, err)
	}

	return factory.Build(ctx, config)
}

func main() {
	flagenv.Parse()
	flag.Parse()

	if *versionFlag {
		fmt.Println("sortcha", sortcha.Version)
		return
	}

	if *healthcheck {
		log.Println("running healthcheck")
		if err := doHealthCheck(); err != nil {
			log.Fatal(err)
		}
		return
	}

	internal.InitSlog(*slogLevel)

	if *basePrefix != "" && !strings.HasPrefix(*basePrefix, "/") {
		log.Fatalf("[misconfiguration] base-prefix must start with a slash, eg: /%s", *basePrefix)
	} else if strings.HasSuffix(*basePrefix, "/") {
		log.Fatalf("[misconfiguration] base-prefix must not end with a slash")
	}

	catalog, err := game.LoadCatalogOrDefault(*gamesFname)
	if err != nil {
		log.Fatalf("can't parse game catalog: %v", err)
	}

	gameHashes := make(map[string]string)
	for _, d := range catalog.Games() {
		gameHashes[d.ID] = d.Hash()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := buildStore(ctx)
	if err != nil {
		log.Fatalf("can't construct token store: %v", err)
	}

	s, err := libsortcha.New(libsortcha.Options{
		Catalog:    catalog,
		Store:      tokens,
		TTL:        *challengeTTL,
		BasePrefix: *basePrefix,
	})
	if err != nil {
		log.Fatalf("can't construct libsortcha.Server: %v", err)
	}

	wg := new(sync.WaitGroup)

	if *metricsBind != "" {
		wg.Add(1)
		go metricsServer(ctx, wg.Done)
	}

	srv := http.Server{Handler: s, ErrorLog: internal.GetFilteredHTTPLogger()}
	listener, listenerUrl := setupListener(*bindNetwork, *bind)
	slog.Info(
		"listening",
		"url", listenerUrl,
		"version", sortcha.Version,
		"games", catalog.Len(),
		"game-hashes", gameHashes,
		"store-backend", *storeBackend,
		"challenge-ttl", *challengeTTL,
		"base-prefix", *basePrefix,
	)

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			log.Printf("cannot shut down: %v", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	wg.Wait()
}

func metricsServer(ctx context.Context, done func()) {
	defer done()

	mux := http.NewServeMux()
	mux.Handle(sortcha.BasePrefix+"/metrics", promhttp.Handler())

	srv := http.Server{Handler: mux, ErrorLog: internal.GetFilteredHTTPLogger()}
	listener, metricsUrl := setupListener(*metricsBindNetwork, *metricsBind)
	slog.Debug("listening for metrics", "url", metricsUrl)

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			log.Printf("cannot shut down: %v", err)
		}
	}()

	if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
