// Command replay lists, summarizes, exports, and replays recorded padtrace
// sessions.
//
//	replay --list                  list all sessions
//	replay --list --profile Sarah  list sessions for one profile
//	replay 5                       replay session #5 on the Launchpad
//	replay 5 --speed 0.5           replay at half speed
//	replay 5 --summary             show summary only
//	replay 5 --export out.json     export session data
//	replay 5 --ascii out.txt       generate an ASCII animation
//	replay --import in.json        reimport an exported session
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"padtrace/debug"
	"padtrace/midi"
	"padtrace/replay"
	"padtrace/session"
)

func main() {
	var (
		list       = flag.Bool("list", false, "list recorded sessions")
		profile    = flag.String("profile", "", "filter sessions by user profile")
		limit      = flag.Int("limit", 20, "maximum sessions to list")
		summary    = flag.Bool("summary", false, "show session summary without replaying")
		speed      = flag.Float64("speed", 1.0, "playback speed (0.25 to 4.0)")
		exportPath = flag.String("export", "", "export session to a JSON file")
		asciiPath  = flag.String("ascii", "", "generate an ASCII animation file")
		importPath = flag.String("import", "", "import a previously exported session")
		dbPath     = flag.String("db", "sessions.db", "path to session database")
	)
	flag.Parse()

	debug.Enable()
	defer debug.Disable()

	store, err := session.Open(*dbPath)
	if err != nil {
		fatal("open store: %v", err)
	}
	defer store.Close()

	if *importPath != "" {
		id, err := store.ImportSession(*importPath)
		if err != nil {
			fatal("import: %v", err)
		}
		fmt.Printf("Imported %s as session %d\n", *importPath, id)
		return
	}

	if *list {
		listSessions(store, *profile, *limit)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		fmt.Println("\nTip: start with --list to see available sessions")
		return
	}

	id, err := strconv.ParseInt(flag.Arg(0), 10, 64)
	if err != nil {
		fatal("invalid session id %q", flag.Arg(0))
	}

	sess, err := store.GetSession(id)
	if err != nil {
		fatal("get session: %v", err)
	}
	if sess == nil {
		fatal("session %d not found (try --list)", id)
	}

	switch {
	case *exportPath != "":
		if err := store.ExportSession(id, *exportPath); err != nil {
			fatal("export: %v", err)
		}
		fmt.Printf("Session %d exported to %s\n", id, *exportPath)

	case *asciiPath != "":
		if err := replay.GenerateASCIITimeline(store, id, *asciiPath); err != nil {
			fatal("ascii: %v", err)
		}
		fmt.Printf("ASCII timeline saved to %s\n", *asciiPath)

	case *summary:
		printSummary(store, id)

	default:
		replaySession(store, id, *speed)
	}
}

func listSessions(store *session.Store, profile string, limit int) {
	sessions, err := store.ListSessions(profile, limit)
	if err != nil {
		fatal("list sessions: %v", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		if profile != "" {
			fmt.Printf("(no sessions for profile %q)\n", profile)
		}
		return
	}

	fmt.Println("RECORDED SESSIONS")
	for _, sess := range sessions {
		date := time.Unix(int64(sess.StartTime), 0).Format("2006-01-02 15:04")
		fmt.Printf("\n  Session #%d - %s\n", sess.ID, sess.UserProfile)
		fmt.Printf("    Date: %s\n", date)
		fmt.Printf("    Duration: %.1fs | Events: %d\n", sess.Duration, sess.TotalEvents)
		if sess.Notes != "" {
			fmt.Printf("    Notes: %s\n", sess.Notes)
		}
	}
	fmt.Printf("\nTotal: %d session(s)\n", len(sessions))
}

func printSummary(store *session.Store, id int64) {
	out, err := replay.DisplaySessionSummary(store, id)
	if err != nil {
		fatal("summary: %v", err)
	}
	fmt.Print(out)
}

func replaySession(store *session.Store, id int64, speed float64) {
	deviceMgr := midi.NewDeviceManager()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go deviceMgr.Run(context.Background())

	lp := deviceMgr.WaitForLaunchpad(ctx)
	if lp == nil {
		fmt.Println("Cannot replay: no Launchpad found.")
		fmt.Println("Use --summary or --ascii for visualization without hardware.")
		os.Exit(1)
	}

	printSummary(store, id)

	engine := replay.New(store, lp, nil)
	if err := engine.PlaySession(id, speed, true, true); err != nil {
		fatal("play: %v", err)
	}
	engine.Wait()
	fmt.Println("Playback complete.")
}

func fatal(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
