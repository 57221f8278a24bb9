package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"padtrace/capture"
	"padtrace/config"
	"padtrace/debug"
	"padtrace/midi"
	"padtrace/mirror"
	"padtrace/replay"
	"padtrace/session"
	"padtrace/theme"
	"padtrace/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	debug.Enable()
	defer debug.Disable()

	th := theme.New(theme.LoadGPLOrDefault(cfg.UI.PaletteFile))

	store, err := session.Open(cfg.DBPath)
	if err != nil {
		fmt.Printf("Error opening session store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// Recording starts immediately; pad events are dropped (with a
	// warning) until a controller shows up, never lost silently.
	rec, err := store.StartSession(session.StartOptions{
		Profile:    cfg.Profile,
		ConfigName: "config.json",
		Scale:      cfg.Scale,
		ModelName:  cfg.ModelName,
	})
	if err != nil {
		fmt.Printf("Error starting session: %v\n", err)
		os.Exit(1)
	}

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)

	broadcaster := mirror.NewBroadcaster()
	live := &liveState{rec: rec}

	// Attach the capture layer whenever a Launchpad connects
	go func() {
		for ev := range deviceMgr.Events() {
			switch ev.Type {
			case midi.DeviceConnected:
				cap := capture.New(ev.Controller, rec, broadcaster, cfg.Scale, th)
				live.attach(cap)
				go cap.Run(ctx)
			case midi.DeviceDisconnected:
				live.detach()
			}
		}
	}()

	engine := replay.New(store, &hotplugGrid{dm: deviceMgr}, broadcaster)

	fmt.Println("padtrace")
	fmt.Println("Connect a Launchpad any time - it'll be detected automatically")
	fmt.Println("")

	m := tui.NewModel(store, engine, live, th)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	id := rec.SessionID()
	if err := rec.End(); err != nil {
		fmt.Printf("Error ending session: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Session %d saved. Replay it with: replay %d\n", id, id)
}

// liveState tracks the currently attached capture layer for the TUI.
type liveState struct {
	mu  sync.Mutex
	rec *session.Recording
	cap *capture.Capture
}

func (l *liveState) attach(c *capture.Capture) {
	l.mu.Lock()
	l.cap = c
	l.mu.Unlock()
}

func (l *liveState) detach() {
	l.mu.Lock()
	l.cap = nil
	l.mu.Unlock()
}

func (l *liveState) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cap != nil
}

func (l *liveState) RecordingID() int64 {
	return l.rec.SessionID()
}

func (l *liveState) EventCount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cap == nil {
		return 0
	}
	return l.cap.EventCount()
}

// hotplugGrid routes playback LED writes to whichever Launchpad is
// currently connected; writes are dropped when none is.
type hotplugGrid struct {
	dm *midi.DeviceManager
}

func (g *hotplugGrid) SetCellColor(x, y int, color [3]uint8) error {
	if lp := g.dm.GetLaunchpad(); lp != nil {
		return lp.SetCellColor(x, y, color)
	}
	return nil
}

func (g *hotplugGrid) Clear() error {
	if lp := g.dm.GetLaunchpad(); lp != nil {
		return lp.Clear()
	}
	return nil
}
