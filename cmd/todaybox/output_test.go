package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"todaybox/internal/client"
	"todaybox/internal/server"
	"todaybox/internal/storage"
	"todaybox/internal/tray"
	"todaybox/internal/view"
)

func samplePayload() view.TodayTasksPayload {
	due := "2026-02-16"
	label := "Mon, Thu"
	return view.TodayTasksPayload{
		Count:     2,
		UpdatedAt: time.Date(2026, time.February, 16, 9, 0, 0, 0, time.UTC),
		Items: []view.TodayTaskItem{
			{ID: "a", Title: "gym", DueDate: &due, HasRecurrence: true, RecurrenceLabel: &label},
			{ID: "b", Title: "mail", Completed: true},
		},
	}
}

func TestPrintTodayTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printToday(&buf, samplePayload(), "table"))
	out := buf.String()
	assert.Contains(t, out, "gym")
	assert.Contains(t, out, "Mon, Thu")
	assert.Contains(t, out, "2 for today")
	assert.NotContains(t, out, "FOR TODAY")
}

func TestPrintTodayYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printToday(&buf, samplePayload(), "yaml"))

	var doc todayDoc
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 2, doc.Count)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "2026-02-16", *doc.Items[0].DueDate)
	assert.Nil(t, doc.Items[1].DueDate)
	assert.True(t, doc.Items[1].Completed)
}

func TestPrintTodayUnknownFormat(t *testing.T) {
	assert.Error(t, printToday(io.Discard, samplePayload(), "xml"))
}

func TestPrintTray(t *testing.T) {
	var buf bytes.Buffer
	printTray(&buf, server.TrayResponses(tray.Build(nil, tray.Options{Error: true})))
	assert.Equal(t, "Failed to load tasks\n----\nOpen TodayBox\nRefresh\n----\nQuit\n", buf.String())
}

func newAPI(t *testing.T) (*httptest.Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	store.Logger = log.New(io.Discard, "", 0)
	handler, err := server.New(server.Config{Store: store, Logger: log.New(io.Discard, "", 0)})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestFetchTray(t *testing.T) {
	srv, store := newAPI(t)
	store.Create(storage.NewTask{Title: "water plants", IsToday: true})
	store.Create(storage.NewTask{Title: "call bank", IsToday: true})

	for _, remote := range []bool{false, true} {
		entries := fetchTray(context.Background(), client.New(srv.URL), 1, remote)
		require.Len(t, entries, 8, "remote=%v", remote)
		assert.Equal(t, "summary", entries[0].Kind)
		assert.Equal(t, "Today: 2", entries[0].Label)
		assert.Equal(t, "water plants", entries[1].Label)
		assert.Equal(t, "overflow", entries[2].Kind)
		assert.Equal(t, "+1 more", entries[2].Label)
	}
}

func TestFetchTrayFallsBackToErrorMenu(t *testing.T) {
	srv, _ := newAPI(t)
	srv.Close()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	for _, remote := range []bool{false, true} {
		entries := fetchTray(context.Background(), client.New(srv.URL), 0, remote)
		require.NotEmpty(t, entries)
		assert.Equal(t, "error", entries[0].Kind, "remote=%v", remote)
	}
}

func TestLogRollover(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Logger = log.New(io.Discard, "", 0)
	store.Create(storage.NewTask{Title: "stretch", IsToday: true})

	var buf bytes.Buffer
	next := time.Date(2026, time.February, 17, 0, 0, 0, 0, time.UTC)
	logRollover(log.New(&buf, "", 0), store, next)
	assert.Equal(t, "day rolled over, 1 tasks pinned for today, next rollover at Tue, 17 Feb 2026 00:00:00 UTC\n", buf.String())
}
