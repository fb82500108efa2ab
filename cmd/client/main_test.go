package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/client/storage"
	"github.com/atinyakov/WardrobeKeeper/internal/client/wardrobe"
	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

// run executes one CLI invocation against backend, like a separate process
// sharing the same store would.
func run(t *testing.T, backend storage.Backend, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{backend: backend, log: zap.NewNop()}
	root := newRootCmd(a)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := execute(context.Background(), a, root)
	return buf.String(), err
}

func clothes(t *testing.T, backend storage.Backend) []models.ClothingItem {
	t.Helper()
	return wardrobe.New(storage.New(backend, nil), nil).Clothes(context.Background())
}

// gatewayStub answers generate requests with text and health checks with ok.
func gatewayStub(t *testing.T, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/health":
			_, _ = io.WriteString(w, `{"status":"ok","hasApiKey":true}`)
		case "/api/gemini/validate":
			_, _ = io.WriteString(w, `{"valid":true}`)
		case "/api/gemini/generate":
			body := map[string]any{"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
			}}}
			_ = json.NewEncoder(w).Encode(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClothesLifecycle(t *testing.T) {
	backend := storage.NewMemoryBackend()

	outText, err := run(t, backend, "", "clothes", "add", "--name", "Navy Kurta", "--category", "tops", "--color", "Navy")
	require.NoError(t, err)
	assert.Contains(t, outText, "added Navy Kurta")

	items := clothes(t, backend)
	require.Len(t, items, 1)
	id := items[0].ID
	assert.Equal(t, models.DefaultCooldownDays, items[0].CooldownDays)

	outText, err = run(t, backend, "", "clothes", "list")
	require.NoError(t, err)
	assert.Contains(t, outText, "Navy Kurta")
	assert.Contains(t, outText, "never")

	_, err = run(t, backend, "", "clothes", "update", id, "--color", "Indigo", "--cooldown", "2")
	require.NoError(t, err)
	items = clothes(t, backend)
	assert.Equal(t, "Indigo", items[0].Color)
	assert.Equal(t, 2, items[0].CooldownDays)
	assert.Equal(t, "Navy Kurta", items[0].Name, "unchanged flags keep their values")

	outText, err = run(t, backend, "", "clothes", "wear", id, "--event-type", "formal")
	require.NoError(t, err)
	assert.Contains(t, outText, "worn 1 times")

	outText, err = run(t, backend, "", "recommend")
	require.NoError(t, err)
	assert.Contains(t, outText, "no clothing items", "a just-worn item is in cooldown")

	outText, err = run(t, backend, "", "history", id)
	require.NoError(t, err)
	assert.Contains(t, outText, "formal")

	_, err = run(t, backend, "", "clothes", "remove", id)
	require.NoError(t, err)
	assert.Empty(t, clothes(t, backend))
}

func TestClothesErrors(t *testing.T) {
	backend := storage.NewMemoryBackend()

	_, err := run(t, backend, "", "clothes", "add", "--name", "Hat", "--category", "hats")
	assert.ErrorContains(t, err, "unknown category")

	_, err = run(t, backend, "", "clothes", "wear", "missing")
	assert.ErrorContains(t, err, "no clothing item")

	_, err = run(t, backend, "", "clothes", "remove", "missing")
	assert.Error(t, err)
}

func TestClothesAdd_ImageFile(t *testing.T) {
	backend := storage.NewMemoryBackend()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	path := filepath.Join(t.TempDir(), "kurta.png")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	_, err := run(t, backend, "", "clothes", "add", "--name", "Kurta", "--category", "tops", "--image", path)
	require.NoError(t, err)

	items := clothes(t, backend)
	require.Len(t, items, 1)
	assert.True(t, strings.HasPrefix(items[0].ImageURL, "data:image/png;base64,"), items[0].ImageURL)
}

func TestEvents(t *testing.T) {
	backend := storage.NewMemoryBackend()
	_, err := run(t, backend, "", "clothes", "add", "--name", "Silver Khussas", "--category", "shoes")
	require.NoError(t, err)
	shoeID := clothes(t, backend)[0].ID

	tomorrow := time.Now().AddDate(0, 0, 1).Format(time.DateOnly)
	outText, err := run(t, backend, "", "events", "add", "--name", "Mehndi", "--date", tomorrow, "--type", "party")
	require.NoError(t, err)
	assert.Contains(t, outText, "added Mehndi on "+tomorrow)

	_, err = run(t, backend, "", "events", "add", "--name", "Old", "--date", "2020-01-01")
	require.NoError(t, err)

	w := wardrobe.New(storage.New(backend, nil), nil)
	var eventID string
	for _, e := range w.Events(context.Background()) {
		if e.Name == "Mehndi" {
			eventID = e.ID
		}
	}
	require.NotEmpty(t, eventID)

	outText, err = run(t, backend, "", "events", "plan", eventID, shoeID)
	require.NoError(t, err)
	assert.Contains(t, outText, "Mehndi: Silver Khussas")

	outText, err = run(t, backend, "", "events", "upcoming")
	require.NoError(t, err)
	assert.Contains(t, outText, "Mehndi")
	assert.NotContains(t, outText, "Old")

	outText, err = run(t, backend, "", "events", "list")
	require.NoError(t, err)
	assert.Contains(t, outText, "Old")

	_, err = run(t, backend, "", "events", "plan", eventID, "missing")
	assert.ErrorContains(t, err, "no clothing item")

	_, err = run(t, backend, "", "events", "add", "--name", "X", "--date", "next friday")
	assert.ErrorContains(t, err, "invalid date")
}

func TestProfileSeedReset(t *testing.T) {
	backend := storage.NewMemoryBackend()

	outText, err := run(t, backend, "", "seed")
	require.NoError(t, err)
	assert.Contains(t, outText, "seeded 12 items")

	outText, err = run(t, backend, "", "seed")
	require.NoError(t, err)
	assert.Contains(t, outText, "nothing seeded")

	_, err = run(t, backend, "", "profile", "set", "--name", "Zara")
	require.NoError(t, err)
	outText, err = run(t, backend, "", "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, outText, "Zara")

	_, err = run(t, backend, "", "reset")
	assert.Error(t, err, "reset requires confirmation")
	assert.Len(t, clothes(t, backend), 12)

	_, err = run(t, backend, "", "reset", "--yes")
	require.NoError(t, err)
	assert.Empty(t, clothes(t, backend))
}

func TestAnalyze_AddsItem(t *testing.T) {
	backend := storage.NewMemoryBackend()
	srv := gatewayStub(t, "```json\n{\"category\":\"outerwear\",\"name\":\"Pashmina Shawl\",\"color\":\"Beige\"}\n```")

	outText, err := run(t, backend, "", "--gateway", srv.URL, "analyze", "data:image/jpeg;base64,AAAA", "--add")
	require.NoError(t, err)
	assert.Contains(t, outText, "Pashmina Shawl")

	items := clothes(t, backend)
	require.Len(t, items, 1)
	assert.Equal(t, models.Outerwear, items[0].Category)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", items[0].ImageURL)
}

func TestShop_REPL(t *testing.T) {
	backend := storage.NewMemoryBackend()
	srv := gatewayStub(t, `A good pick is "white linen shirt".`)

	outText, err := run(t, backend, "what should I buy?\nlinks black heels\nexit\n", "--gateway", srv.URL, "shop")
	require.NoError(t, err)

	assert.Contains(t, outText, `A good pick is "white linen shirt".`)
	assert.Contains(t, outText, "https://www.amazon.com/s?k=white%20linen%20shirt")
	assert.Contains(t, outText, "https://www.daraz.pk/catalog/?q=black%20heels")
}

func TestStatus(t *testing.T) {
	srv := gatewayStub(t, "")
	outText, err := run(t, storage.NewMemoryBackend(), "", "--gateway", srv.URL, "status", "--validate")
	require.NoError(t, err)
	assert.Contains(t, outText, "gateway: available")
	assert.Contains(t, outText, "valid=true")

	srv.Close()
	outText, err = run(t, storage.NewMemoryBackend(), "", "--gateway", srv.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, outText, "gateway: unavailable")
}

func TestOpen_FileStore(t *testing.T) {
	dir := t.TempDir()
	a := &app{getenv: func(k string) string {
		return map[string]string{"WARDROBE_STORE": "file", "WARDROBE_DATA": dir}[k]
	}, log: zap.NewNop()}
	root := newRootCmd(a)
	root.SetOut(io.Discard)
	root.SetArgs([]string{"clothes", "add", "--name", "Scarf", "--category", "accessories"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	_, err := os.Stat(filepath.Join(dir, wardrobe.ClothesKey+".json"))
	assert.NoError(t, err)
}

func TestOpen_SQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.db")
	for _, args := range [][]string{
		{"--store", "sqlite", "--data", path, "clothes", "add", "--name", "Scarf", "--category", "accessories"},
		{"--store", "sqlite", "--data", path, "clothes", "list"},
	} {
		a := &app{log: zap.NewNop()}
		root := newRootCmd(a)
		var buf bytes.Buffer
		root.SetOut(&buf)
		root.SetArgs(args)
		require.NoError(t, root.ExecuteContext(context.Background()))
		assert.Contains(t, buf.String(), "Scarf")
	}
}

func TestOpen_UnknownStore(t *testing.T) {
	a := &app{log: zap.NewNop()}
	root := newRootCmd(a)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--store", "redis", "clothes", "list"})
	assert.ErrorContains(t, root.ExecuteContext(context.Background()), "unknown store")
}

type closingBackend struct {
	*storage.MemoryBackend
	closed int
}

func (b *closingBackend) Close() error {
	b.closed++
	return nil
}

func TestExecute_ClosesStoreWhenCommandFails(t *testing.T) {
	backend := &closingBackend{MemoryBackend: storage.NewMemoryBackend()}

	_, err := run(t, backend, "", "reset")
	require.ErrorContains(t, err, "--yes")
	assert.Equal(t, 1, backend.closed)

	_, err = run(t, backend, "", "clothes", "list")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.closed, "successful commands close exactly once")
}

func TestWatch_RejectsNonPositiveInterval(t *testing.T) {
	_, err := run(t, storage.NewMemoryBackend(), "", "watch", "--interval", "0")
	assert.ErrorContains(t, err, "--interval must be positive")
}
