// houdini-mcp: MCP bridge between AI assistants and SideFX Houdini.
//
// The server speaks MCP over stdio to the AI tool and framed JSON over
// TCP to one or more running Houdini sessions, discovered through
// per-instance record files.
//
// Usage:
//
//	houdini-mcp serve       # Start MCP server (stdio transport)
//	houdini-mcp stub        # Run a simulated Houdini instance (testing)
//	houdini-mcp instances   # List discoverable Houdini instances
//	houdini-mcp update      # Update to the latest version
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/houdini-mcp/internal/catalog"
	"github.com/HendryAvila/houdini-mcp/internal/config"
	"github.com/HendryAvila/houdini-mcp/internal/dispatch"
	"github.com/HendryAvila/houdini-mcp/internal/hostsim"
	"github.com/HendryAvila/houdini-mcp/internal/instances"
	"github.com/HendryAvila/houdini-mcp/internal/registry"
	houdiniserver "github.com/HendryAvila/houdini-mcp/internal/server"
	"github.com/HendryAvila/houdini-mcp/internal/updater"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "stub":
		if err := runStub(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "instances":
		if err := runInstances(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "update":
		runUpdate()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("houdini-mcp v%s\n", houdiniserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}

	s, cleanup := houdiniserver.New(cfg)
	defer cleanup()

	// Background version check — prints to stderr so it doesn't
	// interfere with MCP's stdio transport on stdout.
	go checkForUpdates()

	return server.ServeStdio(s)
}

// runStub starts an in-process Houdini stand-in: a SQLite-backed scene
// graph behind the same TCP command protocol the real addon speaks. It
// claims a port, writes a discovery record, and serves until
// interrupted. Useful for exercising the MCP server without Houdini.
func runStub() error {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("houdini-mcp stub: ")

	sim, err := hostsim.New(os.Getenv("HOUDINI_MCP_STUB_DB"))
	if err != nil {
		return fmt.Errorf("starting scene store: %w", err)
	}
	defer func() { _ = sim.Close() }()

	d := dispatch.New()
	catalog.Register(d, sim)

	srv := registry.New(d, registry.Options{
		Store: instances.NewFileStore(os.Getenv(config.EnvInstanceDir)),
		Info: registry.InstanceInfo{
			HipFile:        "untitled.hip",
			HipName:        "untitled",
			HoudiniVersion: "stub",
		},
	})

	port, err := srv.Start()
	if err != nil {
		return fmt.Errorf("starting stub instance: %w", err)
	}
	log.Printf("listening on port %d (ctrl-c to stop)", port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("shutting down")
	return srv.Stop()
}

// runInstances prints every discoverable Houdini instance, pruning
// records whose process is gone.
func runInstances() error {
	store := instances.NewFileStore(os.Getenv(config.EnvInstanceDir))
	discovery := instances.NewDiscovery(store, nil)

	recs, err := discovery.Discover()
	if err != nil {
		return fmt.Errorf("scanning %s: %w", store.Dir(), err)
	}
	if len(recs) == 0 {
		fmt.Println("No running Houdini instances found.")
		return nil
	}

	for _, rec := range recs {
		fmt.Printf("port %d: %s (pid %d, Houdini %s, started %s)\n",
			rec.Port, rec.HipName, rec.PID, rec.HoudiniVersion, rec.StartedAt)
	}
	return nil
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if an update is available. Best-effort; network failures
// are silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(houdiniserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\nUpdate available: v%s -> v%s\nRun: houdini-mcp update\nRelease: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// runUpdate performs a self-update to the latest release.
func runUpdate() {
	fmt.Fprintln(os.Stderr, "Checking for updates...")

	result := updater.CheckVersion(houdiniserver.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "Already at the latest version (v%s)\n", result.CurrentVersion)
		return
	}

	fmt.Fprintf(os.Stderr, "New version available: v%s -> v%s\nDownloading...\n",
		result.CurrentVersion, result.LatestVersion)

	if err := updater.SelfUpdate(houdiniserver.Version); err != nil {
		fmt.Fprintf(os.Stderr, "Update failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "You can download manually from:\n  %s\n", result.ReleaseURL)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Updated to v%s. Restart houdini-mcp to use the new version.\n",
		result.LatestVersion)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `houdini-mcp v%s — MCP server for SideFX Houdini

Usage:
  houdini-mcp serve       Start the MCP server (stdio transport)
  houdini-mcp stub        Run a simulated Houdini instance for testing
  houdini-mcp instances   List discoverable Houdini instances
  houdini-mcp update      Update to the latest version

Configuration:
  %s   Directory for instance discovery records
  %s        Houdini command timeout (seconds or Go duration)

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "houdini": {
        "command": "houdini-mcp",
        "args": ["serve"]
      }
    }
  }

Learn more: https://github.com/HendryAvila/houdini-mcp
`, houdiniserver.Version, config.EnvInstanceDir, config.EnvTimeout)
}
