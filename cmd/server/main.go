// Command server runs the authoritative gridwars arcade server: one
// tick-driven world simulation shared by a pool of I/O workers over a
// framed TCP protocol (spec.md §1). CLI surface is intentionally thin —
// argument parsing ceremony is an out-of-scope external collaborator
// (spec.md §1); this just reads a handful of flags.
package main

import (
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"arcade/internal/config"
	"arcade/internal/logx"
	"arcade/internal/sim"
	"arcade/internal/workerpool"
	"arcade/internal/world"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := os.Getenv("ARCADE_CONFIG")
	aiFill := 0
	portArg := ""

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				cfgPath = args[i+1]
				i++
			}
		case "--ai-fill":
			if i+1 < len(args) {
				n, err := strconv.Atoi(args[i+1])
				if err == nil {
					aiFill = n
				}
				i++
			}
		case "--help", "-h":
			fmt.Println("usage: server [PORT] [--config FILE] [--ai-fill N]")
			return 0
		default:
			// First positional argument is the port, per spec.md §6.
			if portArg == "" {
				portArg = args[i]
			}
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logx.Base().Error().Err(err).Str("path", cfgPath).Msg("failed to load config")
		return 1
	}
	if portArg != "" {
		if port, err := strconv.Atoi(portArg); err == nil {
			cfg.Port = port
		}
	}

	logx.SetLevel("info")
	log := logx.Component("main")

	addr := fmt.Sprintf(":%d", cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("failed to bind listener")
		return 1
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		log.Error().Msg("listener is not a *net.TCPListener")
		return 1
	}
	defer tcpLn.Close()

	w := world.New(cfg.GridWidth, cfg.GridHeight)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if aiFill > 0 {
		seedAISlots(w, rng, aiFill)
	}

	watcher := config.WatchTunables(cfgPath, cfg.Tunable)

	simulator := sim.New(w, watcher, rng)

	pool := workerpool.New(cfg.Workers, tcpLn, w, rng, cfg.GridWidth, cfg.GridHeight, watcher)

	log.Info().Int("port", cfg.Port).Int("workers", cfg.Workers).
		Int("grid_w", cfg.GridWidth).Int("grid_h", cfg.GridHeight).
		Msg("gridwars server starting")

	go handleShutdownSignals(w, log)

	go simulator.Run()
	pool.Run()

	log.Info().Msg("gridwars server stopped")
	return 0
}

// handleShutdownSignals stops the world on SIGINT/SIGTERM. Process-
// supervision ceremony beyond this single handler is out of scope
// (spec.md §1; SPEC_FULL.md §C).
func handleShutdownSignals(w *world.World, log *logx.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received, draining")
	w.Stop()
}

// seedAISlots claims slots for AI-controlled snakes at startup
// (SPEC_FULL.md §C; off by default).
func seedAISlots(w *world.World, rng *rand.Rand, n int) {
	w.Lock()
	defer w.Unlock()
	for i := 0; i < n; i++ {
		slot, err := w.ClaimSlot(fmt.Sprintf("AI-%d", i+1), true)
		if err != nil {
			break
		}
		pos := w.ChooseSpawnPosition(rng)
		w.Players[slot].Snake.Init(pos.X, pos.Y)
	}
}
