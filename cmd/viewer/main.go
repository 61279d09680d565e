package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"studyhub/internal"
)

func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if the serving process holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 3. Start Debug Server Only
	emptyStats := func() map[string]any {
		return map[string]any{
			"Status": "Viewer Mode (Read-Only)",
			"Time":   time.Now().Format(time.RFC822),
		}
	}

	fmt.Printf("Viewer started at http://localhost:%d/inspect\n", config.DebugPort)

	internal.StartDebugServer(db, config.DebugPort, "/inspect", MessageMapper, emptyStats)
	select {}
}

// MessageMapper decodes message rows so their body and sender show up
// directly in the table; other key families fall back to the default.
func MessageMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)
	if row.Type != "MSG" {
		return row
	}
	var msg struct {
		SenderID int    `json:"senderId"`
		Kind     string `json:"kind"`
		Body     string `json:"body"`
		SentAt   string `json:"sentAt"`
	}
	if err := json.Unmarshal(val, &msg); err != nil {
		return row
	}
	body := msg.Body
	if len(body) > 48 {
		body = body[:48] + "..."
	}
	row.Detail = fmt.Sprintf("[%s] sender=%d %q at %s", msg.Kind, msg.SenderID, body, msg.SentAt)
	return row
}
