// Command client is a thin peer for the gridwars arcade server: it
// logs in, prints inbound frames as they arrive, and can run a stress
// mode that drives many concurrent connections and reports aggregated
// RTT/throughput. An interactive terminal UI (rendering the grid,
// key-binding movement) is an out-of-scope external collaborator
// (spec.md §1) — this is the wire-level harness it would sit on top of.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"arcade/internal/client"
	"arcade/internal/world"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type options struct {
	host      string
	port      int
	name      string
	stress    int
	stressSet bool
	help      bool
}

func parseArgs(args []string) options {
	opt := options{host: "127.0.0.1", port: 8888, name: "player"}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--host":
			if i+1 < len(args) {
				opt.host = args[i+1]
				i++
			}
		case "-p", "--port":
			if i+1 < len(args) {
				if v, err := strconv.Atoi(args[i+1]); err == nil {
					opt.port = v
				}
				i++
			}
		case "-n", "--name":
			if i+1 < len(args) {
				opt.name = args[i+1]
				i++
			}
		case "-s", "--stress":
			opt.stress = 100
			opt.stressSet = true
			if i+1 < len(args) {
				if v, err := strconv.Atoi(args[i+1]); err == nil {
					opt.stress = v
					i++
				}
			}
		case "--help":
			opt.help = true
		}
	}
	return opt
}

func run(args []string) int {
	opt := parseArgs(args)
	if opt.help {
		fmt.Println("usage: client [-h HOST] [-p PORT] [-n NAME] [-s [N]] [--help]")
		return 0
	}

	addr := fmt.Sprintf("%s:%d", opt.host, opt.port)

	if opt.stressSet {
		return runStress(addr, opt.stress)
	}
	return runMonitor(addr, opt.name)
}

// runMonitor connects one client, logs in, and prints inbound frames
// until the connection closes.
func runMonitor(addr, name string) int {
	c, err := client.Dial(addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect failed:", err)
		return 1
	}
	defer c.Close()

	if err := c.Login(name, false); err != nil {
		fmt.Fprintln(os.Stderr, "login failed:", err)
		return 1
	}
	fmt.Printf("connected as %s (player_id=%d grid=%dx%d)\n", name, c.PlayerID, c.GridWidth, c.GridHeight)

	err = c.Receive(func(f client.Frame) bool {
		reportFrame(f)
		return true
	})
	fmt.Println("disconnected:", goodbye(err))
	return 0
}

func goodbye(err error) string {
	if err == nil {
		return "goodbye"
	}
	return err.Error()
}

func reportFrame(f client.Frame) {
	switch f.Opcode {
	case 0x0004: // OpMapUpdate, kept numeric here to avoid importing wire just for logging
		fmt.Println("map update received")
	case 0x0006: // OpChatRecv
		fmt.Println("chat message received")
	}
}

// runStress drives n concurrent clients, each connecting, logging in,
// and issuing random moves for a short run, then prints aggregate
// RTT/throughput stats (spec.md §7 "load test harness").
func runStress(addr string, n int) int {
	if n <= 0 {
		n = 100
	}
	fmt.Printf("stress: launching %d clients against %s\n", n, addr)

	const runDuration = 5 * time.Second
	const moveInterval = 200 * time.Millisecond

	var wg sync.WaitGroup
	results := make([]stressResult, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = runStressClient(addr, fmt.Sprintf("stress-%d", idx), runDuration, moveInterval)
		}(i)
	}
	wg.Wait()

	return summarizeStress(results)
}

type stressResult struct {
	connected bool
	sent      int
	recv      int
	rtts      []time.Duration
}

func runStressClient(addr, name string, duration, moveInterval time.Duration) stressResult {
	c, err := client.Dial(addr)
	if err != nil {
		return stressResult{}
	}
	defer c.Close()

	if err := c.Login(name, false); err != nil {
		return stressResult{}
	}

	rng := rand.New(rand.NewSource(int64(len(name))))
	done := make(chan struct{})
	var mu sync.Mutex
	var rtts []time.Duration

	go func() {
		c.Receive(func(f client.Frame) bool {
			select {
			case <-done:
				return false
			default:
			}
			if f.Opcode == 0x0011 { // OpHeartbeatAck
				mu.Lock()
				rtts = append(rtts, c.Stats.HeartbeatRTT)
				mu.Unlock()
			}
			return true
		})
	}()

	deadline := time.Now().Add(duration)
	ticker := time.NewTicker(moveInterval)
	defer ticker.Stop()

	dirs := []uint8{uint8(world.Up), uint8(world.Down), uint8(world.Left), uint8(world.Right)}
	for time.Now().Before(deadline) {
		<-ticker.C
		c.SendMove(dirs[rng.Intn(len(dirs))])
		c.SendHeartbeat()
	}
	close(done)
	c.Logout()

	mu.Lock()
	defer mu.Unlock()
	return stressResult{
		connected: true,
		sent:      c.Stats.Sent,
		recv:      c.Stats.Recv,
		rtts:      rtts,
	}
}

func summarizeStress(results []stressResult) int {
	var connected, totalSent, totalRecv int
	var allRTTs []time.Duration
	for _, r := range results {
		if r.connected {
			connected++
		}
		totalSent += r.sent
		totalRecv += r.recv
		allRTTs = append(allRTTs, r.rtts...)
	}

	fmt.Printf("stress: %d/%d connected, %d frames sent, %d frames received\n",
		connected, len(results), totalSent, totalRecv)

	if len(allRTTs) > 0 {
		var sum time.Duration
		min, max := allRTTs[0], allRTTs[0]
		for _, d := range allRTTs {
			sum += d
			if d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}
		avg := sum / time.Duration(len(allRTTs))
		fmt.Printf("stress: heartbeat rtt avg=%s min=%s max=%s samples=%d\n", avg, min, max, len(allRTTs))
	}

	if connected == 0 {
		return 1
	}
	return 0
}
