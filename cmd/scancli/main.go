package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"go-stockcount-ws/internal/offline"

	"github.com/joho/godotenv"
)

// scancli is the handheld-side companion to the API: it buffers barcode
// captures in a local SQLite queue while offline and drains them into
// POST /api/v1/sync/batch when connectivity returns.

const usage = `Usage: scancli [flags] <command>

Commands:
  add     buffer a capture (-barcode required, -workflow, -payload)
  list    show the queue, including stuck events
  drain   sync pending events to the server (-server and -token required)
  clear   remove synced events from the queue

Flags:
`

func main() {
	var (
		dbPath   = flag.String("db", defaultDBPath(), "path to the local queue database")
		barcode  = flag.String("barcode", "", "scanned barcode (add)")
		workflow = flag.String("workflow", "unit_count", "counting workflow for the capture (add)")
		payload  = flag.String("payload", "", "count submission JSON, empty for a raw scan (add)")
		server   = flag.String("server", os.Getenv("SCANCLI_SERVER"), "API base URL (drain)")
		token    = flag.String("token", os.Getenv("SCANCLI_TOKEN"), "bearer token (drain)")
		timeout  = flag.Duration("timeout", 30*time.Second, "overall deadline for drain")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	godotenv.Load()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	queue, err := offline.OpenSQLiteQueue(*dbPath)
	if err != nil {
		log.Fatalf("open queue: %v", err)
	}
	defer queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch flag.Arg(0) {
	case "add":
		if *barcode == "" {
			log.Fatal("add requires -barcode")
		}
		ev := &offline.ScanEvent{
			Barcode:    *barcode,
			Workflow:   *workflow,
			Payload:    *payload,
			CapturedAt: time.Now().UTC(),
		}
		if err := queue.Enqueue(ctx, ev); err != nil {
			log.Fatalf("enqueue: %v", err)
		}
		fmt.Printf("queued %s\n", ev.ID)

	case "list":
		events, err := queue.All(ctx)
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBARCODE\tWORKFLOW\tCAPTURED\tSTATUS\tATTEMPTS")
		for i := range events {
			ev := &events[i]
			status := "pending"
			if ev.Synced {
				status = "synced"
			} else if ev.Stuck() {
				status = "stuck"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
				ev.ID, ev.Barcode, ev.Workflow,
				ev.CapturedAt.Format(time.RFC3339), status, ev.SyncAttempts)
		}
		w.Flush()

	case "drain":
		if *server == "" || *token == "" {
			log.Fatal("drain requires -server and -token (or SCANCLI_SERVER / SCANCLI_TOKEN)")
		}
		submitter := offline.NewHTTPSubmitter(*server, *token)
		rec := offline.NewReconciler(queue, submitter)
		synced, failed, err := rec.Drain(ctx)
		if err != nil {
			log.Fatalf("drain: %v", err)
		}
		fmt.Printf("synced %d, failed %d\n", synced, failed)
		if stuck, err := queue.Stuck(ctx); err == nil && len(stuck) > 0 {
			fmt.Printf("%d event(s) stuck after %d attempts, fix and re-add them\n", len(stuck), offline.MaxSyncAttempts)
		}

	case "clear":
		if err := queue.ClearSynced(ctx); err != nil {
			log.Fatalf("clear: %v", err)
		}
		fmt.Println("synced events cleared")

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func defaultDBPath() string {
	if p := os.Getenv("SCANCLI_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "scancli.db"
	}
	return home + "/.scancli.db"
}
