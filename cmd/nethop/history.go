package main

import (
	"fmt"
	"io"
	"time"

	"github.com/unkn0wn-root/nethop/internal/config"
	"github.com/unkn0wn-root/nethop/internal/history"
)

func printHistory(w io.Writer, settings config.Settings, n int) error {
	store := history.NewStore(config.HistoryPath(), settings.History.MaxEntries)
	if err := store.Load(); err != nil {
		return err
	}
	entries := store.Latest(n)
	if len(entries) == 0 {
		fmt.Fprintf(w, "no runs recorded in %s\n", store.Path())
		return nil
	}
	for _, e := range entries {
		scheme := "http"
		if e.Secure {
			scheme = "https"
		}
		line := fmt.Sprintf("%s  %s://%s:%d  %s  requests=%d passed=%d failed=%d  %s",
			e.ExecutedAt.Local().Format(time.DateTime),
			scheme, e.Host, e.Port,
			e.Script,
			e.Requests, e.Passed, e.Failed,
			e.Duration.Round(time.Millisecond),
		)
		if e.Error != "" {
			line += "  error: " + e.Error
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
