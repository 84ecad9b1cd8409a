package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frigidsec/ctfadmin/internal/ctfflag"
	"github.com/frigidsec/ctfadmin/internal/store"
	"github.com/frigidsec/ctfadmin/internal/ui"
)

const testSecret = "s3cr3t"

func TestMain(m *testing.M) {
	ui.DisableStyling()
	os.Exit(m.Run())
}

type harness struct {
	app    *App
	store  *memStore
	out    *bytes.Buffer
	hasher *ctfflag.Hasher
}

func newHarness(t *testing.T, st *memStore, input string, mutate ...func(*Options)) *harness {
	t.Helper()
	v, err := ctfflag.NewValidator("FRIGIDSEC-DPC")
	require.NoError(t, err)
	h, err := ctfflag.NewHasher([]byte(testSecret))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	opts := Options{
		Store:     st,
		Validator: v,
		Hasher:    h,
		Console:   ui.NewConsole(strings.NewReader(input), out),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return &harness{app: New(opts), store: st, out: out, hasher: h}
}

func run(t *testing.T, st *memStore, input string) (*harness, error) {
	t.Helper()
	h := newHarness(t, st, input)
	return h, h.app.Run(context.Background())
}

func TestRun_ShowsMenu(t *testing.T) {
	h, err := run(t, newMemStore(), "5\n")
	require.NoError(t, err)

	out := h.out.String()
	for _, line := range []string{
		"1. Add a new challenge",
		"2. View existing challenges",
		"3. Delete a challenge",
		"4. Search a challenge",
		"5. Exit",
		"What do you want to do? (1/2/3/4/5): ",
		"Exiting...",
	} {
		assert.Contains(t, out, line)
	}
	assert.Equal(t, 0, ExitCode(err))
}

func TestRun_InvalidChoice(t *testing.T) {
	for _, choice := range []string{"6", "0", "add", ""} {
		t.Run("choice "+choice, func(t *testing.T) {
			h, err := run(t, newMemStore(), choice+"\n")
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, 1, ExitCode(err))
			assert.Contains(t, h.out.String(), "Invalid option.")
		})
	}
}

func TestRun_ClosedInput(t *testing.T) {
	_, err := run(t, newMemStore(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRun_InputReadError(t *testing.T) {
	readErr := errors.New("terminal went away")
	out := &bytes.Buffer{}
	h := newHarness(t, newMemStore(), "")
	h.app.console = ui.NewConsole(iotest.ErrReader(readErr), out)

	err := h.app.Run(context.Background())
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, out.String(), "Error reading input: failed to read input: terminal went away")
}

func TestAdd_ThenSearch(t *testing.T) {
	st := newMemStore()

	h, err := run(t, st, "1\nWarmup\nFRIGIDSEC-DPC{easy}\ny\n")
	require.NoError(t, err)
	wantHash := h.hasher.Hash("FRIGIDSEC-DPC{easy}")

	out := h.out.String()
	assert.Contains(t, out, "Challenge Name: Warmup")
	assert.Contains(t, out, "Flag: FRIGIDSEC-DPC{easy}")
	assert.Contains(t, out, "Flag Hash: "+wantHash)
	assert.Contains(t, out, "Challenge Warmup successfully added.")
	require.Len(t, st.records, 1)

	h, err = run(t, st, "4\nWarmup\n")
	require.NoError(t, err)
	out = h.out.String()
	assert.Contains(t, out, "Challenge Name: Warmup")
	assert.Contains(t, out, "Flag Hash: "+wantHash)
	assert.Contains(t, out, "Object ID: "+st.records[0].ID)
}

func TestAdd_StoresHashNotFlag(t *testing.T) {
	st := newMemStore()

	_, err := run(t, st, "1\nWarmup\nFRIGIDSEC-DPC{easy}\nY\n")
	require.NoError(t, err)

	require.Len(t, st.records, 1)
	assert.NotContains(t, st.records[0].FlagHash, "easy")
	assert.Len(t, st.records[0].FlagHash, 64)
}

func TestAdd_DuplicateName(t *testing.T) {
	st := newMemStore()

	_, err := run(t, st, "1\nWarmup\nFRIGIDSEC-DPC{easy}\ny\n")
	require.NoError(t, err)

	h, err := run(t, st, "1\nWarmup\nFRIGIDSEC-DPC{other}\ny\n")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, ExitCode(err))

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Warmup", conflict.Existing.Name)

	out := h.out.String()
	assert.Contains(t, out, "A challenge with this name or flag already exists:")
	assert.Contains(t, out, "Duplicate Challenge Name: Warmup")
	assert.Contains(t, out, "Duplicate Challenge Flag Hash: "+st.records[0].FlagHash)
	assert.Len(t, st.records, 1)
}

func TestAdd_DuplicateFlag(t *testing.T) {
	st := newMemStore()

	_, err := run(t, st, "1\nWarmup\nFRIGIDSEC-DPC{easy}\ny\n")
	require.NoError(t, err)

	_, err = run(t, st, "1\nRenamed\nFRIGIDSEC-DPC{easy}\ny\n")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, st.records, 1)
}

func TestAdd_InvalidFlag(t *testing.T) {
	st := newMemStore()

	h, err := run(t, st, "1\nWarmup\nFRIGIDSEC-DPC{}\n")
	assert.ErrorIs(t, err, ErrInvalidFlag)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, h.out.String(), `Flag doesn't match the regex FRIGIDSEC-DPC\{.+\}`)
	assert.NotContains(t, h.out.String(), "Are you sure")
	assert.Empty(t, st.records)
}

func TestAdd_Confirmation(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		wantErr error
		wantOut string
		stored  int
	}{
		{name: "declined", answer: "n", wantOut: "Okay. Exiting...", stored: 0},
		{name: "declined uppercase", answer: "N", wantOut: "Okay. Exiting...", stored: 0},
		{name: "garbage", answer: "yes", wantErr: ErrInvalidInput, wantOut: "Invalid answer.", stored: 0},
		{name: "empty", answer: "", wantErr: ErrInvalidInput, wantOut: "Invalid answer.", stored: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMemStore()
			h, err := run(t, st, "1\nWarmup\nFRIGIDSEC-DPC{easy}\n"+tt.answer+"\n")
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, h.out.String(), tt.wantOut)
			assert.Len(t, st.records, tt.stored)
		})
	}
}

func TestAdd_EmptyName(t *testing.T) {
	st := newMemStore()

	h, err := run(t, st, "1\n   \n")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, h.out.String(), "Challenge name cannot be empty.")
	assert.NotContains(t, h.out.String(), "Enter the flag")
}

func TestAdd_StoreErrors(t *testing.T) {
	for _, op := range []string{"exists", "insert"} {
		t.Run(op, func(t *testing.T) {
			st := newMemStore()
			st.fail[op] = errors.New("connection refused")

			h, err := run(t, st, "1\nWarmup\nFRIGIDSEC-DPC{easy}\ny\n")
			var storeErr *store.Error
			require.ErrorAs(t, err, &storeErr)
			assert.Equal(t, op, storeErr.Op)
			assert.Equal(t, 1, ExitCode(err))
			assert.Contains(t, h.out.String(), "connection refused")
			assert.Empty(t, st.records)
		})
	}
}

func TestList(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		h, err := run(t, newMemStore(), "2\n")
		require.NoError(t, err)
		assert.Equal(t, 0, ExitCode(err))
		assert.Contains(t, h.out.String(), "Here are the existing challenges-")
		assert.Contains(t, h.out.String(), "No challenges found.")
	})

	t.Run("records", func(t *testing.T) {
		st := newMemStore(
			store.Challenge{ID: "1", Name: "Warmup", FlagHash: "aa11"},
			store.Challenge{ID: "2", Name: "Finale", FlagHash: "bb22"},
		)
		h, err := run(t, st, "2\n")
		require.NoError(t, err)
		out := h.out.String()
		assert.Contains(t, out, "Warmup")
		assert.Contains(t, out, "aa11")
		assert.Contains(t, out, "Finale")
		assert.Contains(t, out, "bb22")
	})

	t.Run("store error", func(t *testing.T) {
		st := newMemStore()
		st.fail["find all"] = errors.New("timeout")
		h, err := run(t, st, "2\n")
		assert.Equal(t, 1, ExitCode(err))
		assert.Contains(t, h.out.String(), "Error while fetching challenges.")
	})
}

func TestList_JSON(t *testing.T) {
	decode := func(t *testing.T, out string) []store.Challenge {
		var got []store.Challenge
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		return got
	}

	h := newHarness(t, newMemStore(), "", func(o *Options) { o.JSON = true })
	require.NoError(t, h.app.List(context.Background()))
	got := decode(t, h.out.String())
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, "[]\n", h.out.String())

	st := newMemStore(store.Challenge{ID: "1", Name: "Warmup", FlagHash: "aa11"})
	h = newHarness(t, st, "", func(o *Options) { o.JSON = true })
	require.NoError(t, h.app.List(context.Background()))
	assert.Equal(t, st.records, decode(t, h.out.String()))
	assert.Contains(t, h.out.String(), `"challengeName": "Warmup"`)
}

func TestDelete(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		st := newMemStore(store.Challenge{ID: "1", Name: "Warmup", FlagHash: "aa11"})
		h, err := run(t, st, "3\nWarmup\n")
		require.NoError(t, err)
		assert.Contains(t, h.out.String(), "Challenge Warmup successfully deleted.")
		assert.Empty(t, st.records)
	})

	t.Run("missing", func(t *testing.T) {
		st := newMemStore(store.Challenge{ID: "1", Name: "Warmup", FlagHash: "aa11"})
		h, err := run(t, st, "3\nGhost\n")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 1, ExitCode(err))
		assert.Contains(t, h.out.String(), "No challenge named Ghost found.")
		assert.Len(t, st.records, 1)
	})

	t.Run("delete fails", func(t *testing.T) {
		st := newMemStore(store.Challenge{ID: "1", Name: "Warmup", FlagHash: "aa11"})
		st.fail["delete"] = errors.New("not primary")
		h, err := run(t, st, "3\nWarmup\n")
		assert.Equal(t, 1, ExitCode(err))
		assert.Contains(t, h.out.String(), "Error while deleting challenge.")
		assert.Len(t, st.records, 1)
	})

	t.Run("lookup fails", func(t *testing.T) {
		st := newMemStore()
		st.fail["exists"] = errors.New("no reachable servers")
		_, err := run(t, st, "3\nWarmup\n")
		var storeErr *store.Error
		assert.ErrorAs(t, err, &storeErr)
	})
}

func TestSearch(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		h, err := run(t, newMemStore(), "4\nGhost\n")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 1, ExitCode(err))
		assert.Contains(t, h.out.String(), "No challenge named Ghost found.")
	})

	t.Run("store error", func(t *testing.T) {
		st := newMemStore()
		st.fail["find one"] = errors.New("auth failed")
		h, err := run(t, st, "4\nWarmup\n")
		assert.Equal(t, 1, ExitCode(err))
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Contains(t, h.out.String(), "Error while searching for challenge.")
	})
}

// deadlineStore records whether calls carried a deadline.
type deadlineStore struct {
	*memStore
	sawDeadline bool
}

func (d *deadlineStore) FindAll(ctx context.Context) ([]store.Challenge, error) {
	_, d.sawDeadline = ctx.Deadline()
	return d.memStore.FindAll(ctx)
}

func TestTimeout(t *testing.T) {
	ds := &deadlineStore{memStore: newMemStore()}
	v, err := ctfflag.NewValidator("FRIGIDSEC-DPC")
	require.NoError(t, err)

	app := New(Options{Store: ds, Validator: v, Console: ui.NewConsole(strings.NewReader(""), &bytes.Buffer{})})
	require.NoError(t, app.List(context.Background()))
	assert.False(t, ds.sawDeadline)

	app = New(Options{Store: ds, Validator: v, Console: ui.NewConsole(strings.NewReader(""), &bytes.Buffer{}), Timeout: time.Second})
	require.NoError(t, app.List(context.Background()))
	assert.True(t, ds.sawDeadline)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(ErrNotFound))
	assert.Equal(t, 1, ExitCode(&store.Error{Op: "insert", Err: errors.New("x")}))
}
