package main

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/storage"
	"encoding/json"
	stdErrors "errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// Persisted keys, see the repositories package.
var keys = []string{"chat-chats", "whatsapp-dark-mode", "chat-draft"}

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	flag.Parse()

	db, err := storage.OpenDisk(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()
	store := storage.NewDiskStore(db, slog.Default())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Entry", "Detail"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, key := range keys {
		raw, err := store.Get(key)
		if stdErrors.Is(err, errors.ErrNotFound) {
			table.Append([]string{key, "-", "(empty)"})
			continue
		}
		if err != nil {
			log.Fatal("Error while reading ", key, ": ", err)
		}
		for _, row := range rows(key, raw) {
			table.Append(row)
		}
	}
	table.Render()
}

func rows(key string, raw []byte) [][]string {
	switch key {
	case "chat-chats":
		var conversations []domain.Conversation
		if err := json.Unmarshal(raw, &conversations); err != nil {
			return [][]string{{key, "malformed", err.Error()}}
		}
		out := make([][]string, 0, len(conversations))
		for _, c := range conversations {
			out = append(out, []string{key, c.ID, fmt.Sprintf("%s (%s) unread=%d last=%q", c.Name, c.Kind, c.UnreadCount, c.LastMessage)})
		}
		return out
	case "whatsapp-dark-mode":
		var dark bool
		if err := json.Unmarshal(raw, &dark); err != nil {
			return [][]string{{key, "malformed", err.Error()}}
		}
		return [][]string{{key, "darkMode", strconv.FormatBool(dark)}}
	default:
		var draft domain.Draft
		if err := json.Unmarshal(raw, &draft); err != nil {
			return [][]string{{key, "malformed", err.Error()}}
		}
		return [][]string{{key, draft.ConversationID, draft.Text}}
	}
}
