// X1-Ledger: Fungible Token Ledger Node
//
// This is the main entry point for X1-Ledger, a standalone node that
// executes token program instructions against persistent account
// storage and serves state over JSON-RPC.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortiblox/x1-ledger/pkg/accounts"
	"github.com/fortiblox/x1-ledger/pkg/ledger"
	"github.com/fortiblox/x1-ledger/pkg/metrics"
	"github.com/fortiblox/x1-ledger/pkg/rpc"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "dev"
	BuildTime = "unknown"
)

// Configuration flags
var (
	configFile    = flag.String("config", "/root/.config/x1-ledger/config.json", "Path to JSON configuration file")
	dataDir       = flag.String("data-dir", "", "Data directory for accounts storage")
	rpcAddr       = flag.String("rpc-addr", "", "RPC server listen address")
	enableRPC     = flag.Bool("enable-rpc", false, "Enable JSON-RPC server")
	enableMetrics = flag.Bool("enable-metrics", false, "Enable Prometheus metrics server")
	metricsAddr   = flag.String("metrics-addr", "", "Metrics server listen address")
	loadSnapshot  = flag.String("load-snapshot", "", "Snapshot archive to restore on startup")
	saveSnapshot  = flag.String("save-snapshot", "", "Snapshot archive to write on shutdown")
	showVersion   = flag.Bool("version", false, "Print version and exit")
	showStats     = flag.Bool("stats", false, "Show statistics periodically")
)

// Config represents the JSON configuration file structure.
type Config struct {
	RPC      RPCConfig      `json:"rpc"`
	Metrics  MetricsConfig  `json:"metrics"`
	General  GeneralConfig  `json:"general"`
	Snapshot SnapshotConfig `json:"snapshot"`
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	ServerEnabled bool   `json:"server_enabled"`
	ServerAddr    string `json:"server_addr"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// GeneralConfig holds general application settings.
type GeneralConfig struct {
	DataDir string `json:"data_dir"`
}

// SnapshotConfig holds snapshot restore and save settings.
type SnapshotConfig struct {
	LoadPath string `json:"load_path"`
	SavePath string `json:"save_path"`
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		RPC: RPCConfig{
			ServerEnabled: true,
			ServerAddr:    ":8899",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
		General: GeneralConfig{
			DataDir: ":memory:",
		},
		Snapshot: SnapshotConfig{},
	}
}

// loadConfig loads configuration from the specified JSON file.
// If the file doesn't exist, it returns the default configuration.
func loadConfig(configPath string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file not found at %s, using defaults", configPath)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	log.Printf("Loaded configuration from %s", configPath)
	return cfg, nil
}

// applyConfigWithCLIOverrides applies config values and lets CLI flags
// override them when explicitly set.
func applyConfigWithCLIOverrides(cfg Config) {
	flagSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		flagSet[f.Name] = true
	})

	if !flagSet["enable-rpc"] {
		*enableRPC = cfg.RPC.ServerEnabled
	}
	if !flagSet["rpc-addr"] {
		*rpcAddr = cfg.RPC.ServerAddr
	}
	if !flagSet["enable-metrics"] {
		*enableMetrics = cfg.Metrics.Enabled
	}
	if !flagSet["metrics-addr"] {
		*metricsAddr = cfg.Metrics.Addr
	}
	if !flagSet["data-dir"] {
		*dataDir = cfg.General.DataDir
	}
	if !flagSet["load-snapshot"] {
		*loadSnapshot = cfg.Snapshot.LoadPath
	}
	if !flagSet["save-snapshot"] {
		*saveSnapshot = cfg.Snapshot.SavePath
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("X1-Ledger %s (%s)\n", Version, GitCommit)
		fmt.Printf("Build time: %s\n", BuildTime)
		os.Exit(0)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting X1-Ledger %s", Version)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	applyConfigWithCLIOverrides(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize accounts database
	var db accounts.AccountsDB
	if *dataDir == ":memory:" {
		db = accounts.NewMemoryDB()
		log.Println("Using in-memory database")
	} else {
		dbPath := *dataDir + "/accounts"
		if err := os.MkdirAll(dbPath, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		db, err = accounts.NewBadgerDB(dbPath)
		if err != nil {
			log.Fatalf("Failed to open accounts database: %v", err)
		}
		log.Printf("Opened BadgerDB at %s", dbPath)
	}
	defer db.Close()

	// Restore from snapshot if requested
	if *loadSnapshot != "" {
		log.Printf("Restoring snapshot from %s", *loadSnapshot)
		manifest, err := accounts.ReadSnapshotFile(db, *loadSnapshot)
		if err != nil {
			log.Fatalf("Failed to restore snapshot: %v", err)
		}
		log.Printf("Restored %d accounts, state root %s", manifest.AccountsCount, manifest.StateHash)
	}

	executor := ledger.NewExecutor(db)

	// Log configuration
	log.Println("Configuration:")
	log.Printf("  Config file:    %s", *configFile)
	log.Printf("  Data directory: %s", *dataDir)
	log.Printf("  RPC enabled:    %v (%s)", *enableRPC, *rpcAddr)
	log.Printf("  Metrics:        %v (%s)", *enableMetrics, *metricsAddr)

	// Start metrics server if enabled
	var metricsServer *metrics.Server
	if *enableMetrics {
		metricsCollector := metrics.NewMetrics()
		executor.SetMetrics(metricsCollector)
		metricsServer = metrics.NewServer(
			metrics.WithAddr(*metricsAddr),
			metrics.WithMetrics(metricsCollector),
		)
		if err := metricsServer.Start(); err != nil {
			log.Fatalf("Failed to start metrics server: %v", err)
		}
		log.Printf("Prometheus metrics server listening on %s", *metricsAddr)
	}

	// Start RPC server if enabled
	var rpcServer *rpc.Server
	if *enableRPC {
		rpcServer = rpc.NewServer(*rpcAddr, db, executor)
		go func() {
			log.Printf("JSON-RPC server listening on %s", *rpcAddr)
			if err := rpcServer.Start(ctx); err != nil {
				log.Printf("RPC server error: %v", err)
			}
		}()
	}

	// Stats ticker
	var statsTicker *time.Ticker
	if *showStats {
		statsTicker = time.NewTicker(30 * time.Second)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-statsTicker.C:
					root, err := executor.StateRoot()
					if err != nil {
						log.Printf("Failed to compute state root: %v", err)
						continue
					}
					log.Printf("Accounts: %d, state root: %s", db.GetAccountsCount(), root)
				}
			}
		}()
	}

	// Wait for shutdown signal
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down...", sig)
	cancel()

	if statsTicker != nil {
		statsTicker.Stop()
	}

	if rpcServer != nil {
		log.Println("Stopping RPC server...")
		if err := rpcServer.Stop(); err != nil {
			log.Printf("Error stopping RPC server: %v", err)
		}
	}

	if metricsServer != nil {
		log.Println("Stopping metrics server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Printf("Error stopping metrics server: %v", err)
		}
		shutdownCancel()
	}

	// Write snapshot if requested
	if *saveSnapshot != "" {
		log.Printf("Writing snapshot to %s", *saveSnapshot)
		manifest, err := accounts.WriteSnapshotFile(db, *saveSnapshot)
		if err != nil {
			log.Printf("Failed to write snapshot: %v", err)
		} else {
			log.Printf("Wrote %d accounts, state root %s", manifest.AccountsCount, manifest.StateHash)
		}
	}

	log.Printf("Final account count: %d", db.GetAccountsCount())
	log.Println("X1-Ledger stopped gracefully")
}
