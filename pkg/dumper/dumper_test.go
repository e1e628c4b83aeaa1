package dumper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"frienddump/pkg/config"
	"frienddump/pkg/graphapi"
	"frienddump/pkg/logger"
	"frienddump/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loggedIn = models.Credentials{Token: "EAAtok", Cookie: "sb=1; c_user=2"}

// fakeGraph answers friends fetches from canned JSON bodies keyed by id
type fakeGraph struct {
	mu       sync.Mutex
	bodies   map[string]string
	statuses map[string]int
	failures map[string]error
	calls    []string
}

func (f *fakeGraph) FetchFriends(ctx context.Context, id string, creds models.Credentials) (*graphapi.FriendsPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	if err := f.failures[id]; err != nil {
		return nil, err
	}
	body, ok := f.bodies[id]
	if !ok {
		body = `{"friends":{"data":[]}}`
	}
	status := http.StatusOK
	if s, ok := f.statuses[id]; ok {
		status = s
	}

	var decoded graphapi.FriendsResponse
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return nil, err
	}
	return &graphapi.FriendsPage{
		Response: &graphapi.Response{StatusCode: status, Body: []byte(body)},
		Body:     &decoded,
	}, nil
}

func (f *fakeGraph) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func friends(pairs ...string) string {
	var recs []string
	for _, p := range pairs {
		id, name, _ := strings.Cut(p, "|")
		if name == "" {
			recs = append(recs, fmt.Sprintf(`{"id":%q}`, id))
			continue
		}
		recs = append(recs, fmt.Sprintf(`{"id":%q,"name":%q}`, id, name))
	}
	return `{"friends":{"data":[` + strings.Join(recs, ",") + `]}}`
}

func newTestDumper(graph *fakeGraph, creds models.Credentials, mutate ...func(*config.Config)) *Dumper {
	cfg := config.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	return New(graph, creds, cfg, logger.NewTestLogger())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestDumpSimple(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{"100": friends("7|Ann")}}
	out := filepath.Join(t.TempDir(), "out.txt")

	n, err := newTestDumper(graph, loggedIn).DumpSimple(context.Background(), []string{"100"}, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "7|Ann\n", readFile(t, out))
	assert.Equal(t, []string{"100"}, graph.calls)
}

func TestDumpRecursiveWritesSecondHopOnly(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{
		"100": friends("7|Ann"),
		"7":   friends("9|Bo"),
	}}
	out := filepath.Join(t.TempDir(), "out.txt")

	res, err := newTestDumper(graph, loggedIn).DumpUnlimited(context.Background(), []string{"100"}, out, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Main: 1}, res)
	assert.Equal(t, "9|Bo\n", readFile(t, out))
}

func TestDumpNoSeedsMakesNoCalls(t *testing.T) {
	graph := &fakeGraph{}
	out := filepath.Join(t.TempDir(), "out.txt")

	for _, seeds := range [][]string{nil, {}, {"", "   ", "|name"}} {
		res, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{Seeds: seeds, Output: out, Recursive: true})
		require.NoError(t, err)
		assert.Equal(t, Result{}, res)
	}
	assert.Equal(t, 0, graph.callCount())
	assert.NoFileExists(t, out)
}

func TestDumpLoggedOutMakesNoCalls(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{"100": friends("7|Ann")}}
	out := filepath.Join(t.TempDir(), "out.txt")

	res, err := newTestDumper(graph, models.Credentials{Token: "only-token"}).
		Dump(context.Background(), Request{Seeds: []string{"100"}, Output: out})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 0, graph.callCount())
}

func TestDumpWritesEachLineOnce(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{
		"1": friends("9|Bo", "9|Bo", "8|Cy"),
		"2": friends("9|Bo", "7|Di"),
		"3": friends("8|Cy"),
	}}
	out := filepath.Join(t.TempDir(), "out.txt")

	res, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{Seeds: []string{"1", "2", "3"}, Output: out})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Main)
	assert.Equal(t, "9|Bo\n8|Cy\n7|Di\n", readFile(t, out))
}

func TestDumpSameIDDifferentNameIsDistinctLine(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{
		"1": friends("9|Bo"),
		"2": friends("9|Bob"),
	}}
	out := filepath.Join(t.TempDir(), "out.txt")

	res, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{Seeds: []string{"1", "2"}, Output: out})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Main)
}

func TestDumpPrefixRouting(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{
		"1": friends("10001|A", "2000|B", "10002|C"),
	}}
	dir := t.TempDir()
	out := filepath.Join(dir, "main.txt")
	unsep := filepath.Join(dir, "unsep.txt")

	res, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{
		Seeds:       []string{"1"},
		Output:      out,
		Unseparated: unsep,
		Prefixes:    []string{"1000", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Main: 2, Unseparated: 1}, res)
	assert.Equal(t, "10001|A\n10002|C\n", readFile(t, out))
	assert.Equal(t, "2000|B\n", readFile(t, unsep))
}

func TestDumpPrefixRoutingWithoutUnseparatedFile(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{
		"1": friends("10001|A", "2000|B"),
	}}
	out := filepath.Join(t.TempDir(), "main.txt")

	res, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{
		Seeds:    []string{"1"},
		Output:   out,
		Prefixes: []string{"1000"},
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Main: 1}, res)
	assert.Equal(t, "10001|A\n", readFile(t, out))
}

func TestDumpCandidateOrderIsDescending(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{
		"s1": friends("2|x", "10|y"),
		"s2": friends("3|z", "2|x"),
	}}

	var runs [][]string
	for i := 0; i < 3; i++ {
		var requested []string
		d := newTestDumper(graph, loggedIn, func(c *config.Config) { c.Dump.ProgressInterval = 1 })
		_, err := d.Dump(context.Background(), Request{
			Seeds:     []string{"s1", "s2"},
			Output:    filepath.Join(t.TempDir(), "out.txt"),
			Recursive: true,
			OnProgress: func(p Progress) {
				if p.Stage == StageRequest {
					requested = append(requested, p.Target)
				}
			},
		})
		require.NoError(t, err)
		runs = append(runs, requested)
	}

	assert.Equal(t, []string{"3", "2", "10"}, runs[0])
	assert.Equal(t, runs[0], runs[1])
	assert.Equal(t, runs[0], runs[2])
}

func TestDumpProgressSequence(t *testing.T) {
	bodies := map[string]string{"seed": ""}
	var ids []string
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("%02d", i)
		ids = append(ids, id+"|n")
		bodies[id] = friends(fmt.Sprintf("9%02d|f", i))
	}
	bodies["seed"] = friends(ids...)
	graph := &fakeGraph{bodies: bodies}

	var got []Progress
	res, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{
		Seeds:      []string{"seed"},
		Output:     filepath.Join(t.TempDir(), "out.txt"),
		Recursive:  true,
		OnProgress: func(p Progress) { got = append(got, p) },
	})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Main)

	require.Len(t, got, 1+3+25)
	assert.Equal(t, StageCandidates, got[0].Stage)
	assert.Equal(t, "Found 25 friends to process", got[0].String())

	for i, idx := range []int{0, 10, 20} {
		p := got[1+i]
		assert.Equal(t, StageRequest, p.Stage)
		assert.Equal(t, idx, p.Index)
	}
	assert.Equal(t, "Requesting: 24", got[1].String())

	last := got[len(got)-1]
	assert.Equal(t, StageExtracted, last.Stage)
	assert.Equal(t, "Extracted: 25 main, 0 unsep", last.String())
	for i := 4; i < len(got); i++ {
		assert.Equal(t, i-3, got[i].Main, "counts are cumulative")
	}
}

func TestDumpSkipsMissingAndMalformed(t *testing.T) {
	graph := &fakeGraph{
		bodies: map[string]string{
			"1": friends("7|Ann", "8"),
			"2": `{"friends":{"data":[{"name":"no id"}]}}`,
			"4": friends("5|Nope"),
			"5": `{"id":"5"}`,
		},
		statuses: map[string]int{"4": http.StatusBadRequest},
		failures: map[string]error{"3": errors.New("connection reset")},
	}
	out := filepath.Join(t.TempDir(), "out.txt")

	res, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{Seeds: []string{"1", "2", "3", "4", "5"}, Output: out})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Main)
	assert.Equal(t, "7|Ann\n8|Unknown\n", readFile(t, out))
	assert.Equal(t, 5, graph.callCount(), "failed fetches are not retried")
}

func TestDumpKeepsPageAroundMistypedRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"friends":{"data":[{"id":"7","name":"Ann"},{"id":{"x":1},"name":"Bad"},{"id":true},{"id":"9","name":42},{"id":"8","name":"Bo"}]}}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.API.GraphBaseURL = server.URL
	client := graphapi.NewClient(cfg, logger.NewTestLogger())
	d := New(client, loggedIn, cfg, logger.NewTestLogger())

	out := filepath.Join(t.TempDir(), "out.txt")
	n, err := d.DumpSimple(context.Background(), []string{"100"}, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "7|Ann\n8|Bo\n", readFile(t, out))
}

func TestDumpPhaseOneIgnoresErrorResponses(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{
		"s1": `{"error":{"message":"limit"},"friends":{"data":[{"id":"6"}]}}`,
		"s2": friends("7|Ann"),
		"7":  friends("9|Bo"),
		"6":  friends("1|Leak"),
	}}
	out := filepath.Join(t.TempDir(), "out.txt")

	res, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{Seeds: []string{"s1", "s2"}, Output: out, Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Main)
	assert.Equal(t, "9|Bo\n", readFile(t, out))
}

func TestDumpRecursiveWithoutCandidates(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{"s": friends()}}
	out := filepath.Join(t.TempDir(), "out.txt")

	var progress []Progress
	res, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{
		Seeds: []string{"s"}, Output: out, Recursive: true,
		OnProgress: func(p Progress) { progress = append(progress, p) },
	})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, progress)
	assert.Equal(t, 1, graph.callCount())
}

func TestDumpAcceptsPipeSeeds(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{"100": friends("7|Ann")}}
	out := filepath.Join(t.TempDir(), "out.txt")

	_, err := newTestDumper(graph, loggedIn).Dump(context.Background(), Request{Seeds: []string{" 100|Someone \n"}, Output: out})
	require.NoError(t, err)
	assert.Equal(t, []string{"100"}, graph.calls)
}

func TestDumpAppendsToExistingOutput(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{"100": friends("7|Ann")}}
	out := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("7|Ann\n"), 0644))

	n, err := newTestDumper(graph, loggedIn).DumpSimple(context.Background(), []string{"100"}, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "7|Ann\n7|Ann\n", readFile(t, out))
}

func TestDumpFileErrorAborts(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{"100": friends("7|Ann")}}
	dir := t.TempDir()

	_, err := newTestDumper(graph, loggedIn).DumpSimple(context.Background(), []string{"100"}, dir, nil)
	assert.Error(t, err)
}

func TestDumpCancelled(t *testing.T) {
	graph := &fakeGraph{bodies: map[string]string{"100": friends("7|Ann")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestDumper(graph, loggedIn).Dump(ctx, Request{Seeds: []string{"100"}, Output: filepath.Join(t.TempDir(), "o.txt"), Recursive: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDumpAgainstGraphServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EAAtok", r.URL.Query().Get("access_token"))
		assert.Equal(t, loggedIn.Cookie, r.Header.Get("Cookie"))
		switch r.URL.Path {
		case "/100":
			w.Write([]byte(friends("7|Ann")))
		case "/7":
			w.Write([]byte(friends("9|Bo")))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.API.GraphBaseURL = server.URL
	client := graphapi.NewClient(cfg, logger.NewTestLogger())
	d := New(client, loggedIn, cfg, logger.NewTestLogger())

	out := filepath.Join(t.TempDir(), "out.txt")
	res, err := d.DumpUnlimited(context.Background(), []string{"100"}, out, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Main: 1}, res)
	assert.Equal(t, "9|Bo\n", readFile(t, out))
}
