package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// ANSI color codes for highlighting changes
const (
	ansiReset  = "\033[0m"
	ansiYellow = "\033[33m" // Yellow for changed values
)

// readlineWriter wraps log output to work with readline
type readlineWriter struct {
	rl *readline.Instance
}

func (w *readlineWriter) Write(p []byte) (n int, err error) {
	if w.rl != nil {
		w.rl.Clean()
	}
	n, err = os.Stderr.Write(p)
	if w.rl != nil {
		w.rl.Refresh()
	}
	return n, err
}

// Global readline writer for log output
var rlWriter = &readlineWriter{}

// DebugState holds the latest simulation snapshot and watch mode
type DebugState struct {
	latest        *SimStatus
	minmax        VoltageMinMax
	watching      bool
	headerPrinted bool
	lastRow       string
	rl            *readline.Instance
}

// NewDebugState creates a new debug state
func NewDebugState() *DebugState {
	return &DebugState{minmax: NewVoltageMinMax()}
}

// SetReadline sets the readline instance for proper output handling
func (s *DebugState) SetReadline(rl *readline.Instance) {
	s.rl = rl
}

// print outputs a line, handling readline prompt properly
func (s *DebugState) print(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if s.rl != nil {
		// Clean prompt, print, refresh prompt
		s.rl.Clean()
		fmt.Println(line)
		s.rl.Refresh()
	} else {
		fmt.Println(line)
	}
}

// UpdateData stores the latest snapshot and feeds the rolling min/max
func (s *DebugState) UpdateData(status SimStatus) {
	s.latest = &status
	s.minmax.Update(status.VoltageMV)
	if s.watching {
		s.printRow(status)
	}
}

// PrintStatus shows the latest snapshot and the rolling hour's voltage range
func (s *DebugState) PrintStatus() {
	if s.latest == nil {
		log.Println("No simulation data yet")
		return
	}

	st := s.latest
	output := "off"
	if st.Outputting {
		output = "on"
	}
	s.print("sim time:    %v", st.SimTime)
	s.print("voltage:     %d mV (logic %d)", st.VoltageMV, st.Voltage)
	s.print("output:      %s", output)
	s.print("steps:       %d", st.Steps)
	s.print("transitions: %d", st.Transitions)
	s.print("1h range:    %d..%d mV", s.minmax.Min(), s.minmax.Max())
}

// printRow prints a watch row, only when values changed since the last row
func (s *DebugState) printRow(status SimStatus) {
	if !s.headerPrinted {
		s.print("%14s | %7s | %6s | %11s", "sim time", "mV", "output", "transitions")
		s.headerPrinted = true
		s.lastRow = ""
	}

	output := "off"
	if status.Outputting {
		output = "on"
	}
	row := fmt.Sprintf("%7d | %6s | %11d", status.VoltageMV, output, status.Transitions)
	if row == s.lastRow {
		return
	}
	s.lastRow = row
	s.print("%14v | %s%s%s", status.SimTime.Truncate(0), ansiYellow, row, ansiReset)
}

// handleDebugCommand processes a debug command
func handleDebugCommand(cmd string, state *DebugState, cmdChan chan<- SimCommand) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "status":
		state.PrintStatus()

	case "watch":
		state.watching = true
		state.headerPrinted = false
		log.Println("Watching simulation (type 'unwatch' to stop)")

	case "unwatch":
		state.watching = false
		log.Println("Watch stopped")

	case "power", "profile":
		simCmd, err := parseCommand(cmd)
		if err != nil {
			log.Printf("Error: %v", err)
			return
		}
		cmdChan <- simCmd

	case "help":
		fmt.Println("Commands:")
		fmt.Println("  status             - Show the latest simulation snapshot")
		fmt.Println("  watch              - Print a row whenever the snapshot changes")
		fmt.Println("  unwatch            - Stop watching")
		fmt.Println("  power <reading>    - Set the harvesting profile's power level")
		fmt.Println("  profile <name>     - Switch profile (constant, square, off)")
		fmt.Println("  help               - Show this help")

	default:
		log.Printf("Unknown command: %s (try 'help')", parts[0])
	}
}

// readlineLoop runs the readline loop, sending commands to the channel
func readlineLoop(
	ctx context.Context,
	cancel context.CancelFunc,
	rl *readline.Instance,
	commandChan chan<- string,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			cancel() // Ctrl+C pressed, shutdown the app
			return
		}
		if err != nil {
			return // EOF or other error
		}
		line = strings.TrimSpace(line)
		if line != "" {
			commandChan <- line
		}
	}
}

// getHistoryFilePath returns the path for debug history file
func getHistoryFilePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "" // No history if we can't find home
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	virtcapCache := filepath.Join(cacheDir, "virtcap")
	// Create directory if it doesn't exist
	_ = os.MkdirAll(virtcapCache, 0750)
	return filepath.Join(virtcapCache, "debug_history")
}

// debugWorker provides interactive introspection and control of the simulation
func debugWorker(
	ctx context.Context,
	cancel context.CancelFunc,
	statusChan <-chan SimStatus,
	cmdChan chan<- SimCommand,
) {
	// Create readline instance with prompt and persistent history
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: getHistoryFilePath(),
	})
	if err != nil {
		log.Printf("Debug worker: readline init failed: %v", err)
		return
	}
	defer func() {
		_ = rl.Close()
		rlWriter.rl = nil // Clear readline reference on exit
	}()

	// Redirect log output through readline-aware writer
	rlWriter.rl = rl
	log.SetOutput(rlWriter)

	log.Println("Debug worker started (type 'help' for commands)")

	commandChan := make(chan string, 10)
	state := NewDebugState()
	state.SetReadline(rl)

	go readlineLoop(ctx, cancel, rl, commandChan)

	for {
		select {
		case cmd := <-commandChan:
			handleDebugCommand(cmd, state, cmdChan)
		case status := <-statusChan:
			state.UpdateData(status)
		case <-ctx.Done():
			log.Println("Debug worker stopped")
			return
		}
	}
}
