// Command rlitedb is a small demo/ops CLI exercising the embeddable
// engine end to end: open a database, set/get keys, and drive the
// pub/sub subscribe/publish/poll cycle, the way the teacher's cmd/demo_*
// programs exercise one subsystem at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhukovaskychina/rlitedb/config"
	"github.com/zhukovaskychina/rlitedb/engine"
	"github.com/zhukovaskychina/rlitedb/engine/storage/driver"
	"github.com/zhukovaskychina/rlitedb/logger"
)

func main() {
	var (
		confPath = flag.String("conf", "", "path to an ini config file (defaults built in if empty)")
		dbPath   = flag.String("db", engine.MemoryPath, "database file path, or :memory:")
		cmd      = flag.String("cmd", "demo", "one of: demo, set, get, subscribe, publish, poll")
		key      = flag.String("key", "", "key for set/get")
		value    = flag.Int64("value", 0, "value for set")
		channel  = flag.String("channel", "", "comma-separated channel list for subscribe, single channel for publish")
		data     = flag.String("data", "", "message payload for publish")
		timeout  = flag.Duration("timeout", 5*time.Second, "poll wait timeout")
	)
	flag.Parse()

	cfg := config.Default()
	if *confPath != "" {
		loaded, err := config.LoadFile(*confPath)
		if err != nil {
			log.Fatalf("rlitedb: loading config: %v", err)
		}
		cfg = loaded
	}
	if err := logger.InitLogger(logger.LogConfig{LogLevel: cfg.LogLevel, InfoLogPath: cfg.InfoLogPath, ErrorLogPath: cfg.ErrLogPath}); err != nil {
		log.Fatalf("rlitedb: init logger: %v", err)
	}

	runID := uuid.New().String()
	logger.Infof("rlitedb: run %s starting, cmd=%s db=%s", runID, *cmd, *dbPath)

	flags := driver.OpenFlags(cfg.OpenFlags)
	db, err := engine.Open(*dbPath, flags, cfg.FifoDir)
	if err != nil {
		log.Fatalf("rlitedb: open %s: %v", *dbPath, err)
	}
	defer db.Close()

	switch *cmd {
	case "set":
		if err := db.SetKey([]byte(*key), *value); err != nil {
			log.Fatalf("rlitedb: set_key: %v", err)
		}
		if err := db.Commit(); err != nil {
			log.Fatalf("rlitedb: commit: %v", err)
		}
		fmt.Printf("set %q = %d\n", *key, *value)

	case "get":
		v, found, err := db.GetKey([]byte(*key))
		if err != nil {
			log.Fatalf("rlitedb: get_key: %v", err)
		}
		if !found {
			fmt.Printf("%q: not found\n", *key)
			return
		}
		fmt.Printf("%q = %d\n", *key, v)

	case "subscribe":
		channels := splitChannels(*channel)
		if err := db.Subscribe(channels...); err != nil {
			log.Fatalf("rlitedb: subscribe: %v", err)
		}
		fmt.Printf("subscribed to %v\n", *channel)

	case "publish":
		recipients, err := db.Publish([]byte(*channel), []byte(*data))
		if err != nil {
			log.Fatalf("rlitedb: publish: %v", err)
		}
		fmt.Printf("published to %q: %d recipients\n", *channel, recipients)

	case "poll":
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		group, err := db.PollWait(ctx)
		if err != nil {
			log.Fatalf("rlitedb: poll: %v", err)
		}
		printGroup(group)

	case "demo":
		runDemo(db)

	default:
		log.Fatalf("rlitedb: unrecognized -cmd %q", *cmd)
	}
}

func splitChannels(raw string) [][]byte {
	parts := strings.Split(raw, ",")
	out := make([][]byte, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, []byte(p))
		}
	}
	return out
}

func printGroup(group [][]byte) {
	fmt.Print("[")
	for i, e := range group {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%q", e)
	}
	fmt.Println("]")
}

// runDemo walks through set/get and subscribe/publish/poll on the opened
// database (in-memory unless -db names a file), printing every step — the equivalent of the
// teacher's cmd/demo_* programs, scoped to this engine's surface.
func runDemo(db *engine.DB) {
	if err := db.SetKey([]byte("hello"), 42); err != nil {
		log.Fatalf("rlitedb: demo set_key: %v", err)
	}
	if err := db.Commit(); err != nil {
		log.Fatalf("rlitedb: demo commit: %v", err)
	}
	v, found, err := db.GetKey([]byte("hello"))
	if err != nil {
		log.Fatalf("rlitedb: demo get_key: %v", err)
	}
	fmt.Printf("get_key(\"hello\") = %d, found=%v\n", v, found)

	if err := db.Subscribe([]byte("demo-channel")); err != nil {
		log.Fatalf("rlitedb: demo subscribe: %v", err)
	}
	recipients, err := db.Publish([]byte("demo-channel"), []byte("hello world!"))
	if err != nil {
		log.Fatalf("rlitedb: demo publish: %v", err)
	}
	fmt.Printf("publish(\"demo-channel\") recipients=%d\n", recipients)

	if err := db.Discard(); err != nil {
		log.Fatalf("rlitedb: demo discard: %v", err)
	}
	group, err := db.Poll()
	if err != nil {
		log.Fatalf("rlitedb: demo poll: %v", err)
	}
	printGroup(group)
}
