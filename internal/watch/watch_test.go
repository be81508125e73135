package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimurManjosov/goexperiments/internal/configure"
	"github.com/TimurManjosov/goexperiments/internal/kv"
	"github.com/TimurManjosov/goexperiments/internal/testutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.txt")
	writeFile(t, path, `# bootstrap experiments
myapp://experiments/configure?a=true

myapp://elsewhere/configure?b=true
myapp://experiments/configure?c=3&a
`)

	st := kv.NewMemoryStore()
	w := New(path, configure.New(st, configure.WithLogger(zerolog.Nop())), zerolog.Nop())

	sum, err := w.ApplyFile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Applied: 2, Rejected: 1}, sum)

	_, hasA := testutil.Lookup(t, st, "a")
	_, hasB := testutil.Lookup(t, st, "b")
	c, hasC := testutil.Lookup(t, st, "c")
	assert.False(t, hasA, "later line removes a")
	assert.False(t, hasB, "wrong host is rejected")
	assert.True(t, hasC)
	assert.Equal(t, kv.Int(3), c)
}

func TestApplyFile_Missing(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent.txt"), configure.New(kv.NewMemoryStore()), zerolog.Nop())
	_, err := w.ApplyFile(context.Background())
	assert.Error(t, err)
}

func TestRun_AppliesOnStartAndOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.txt")
	writeFile(t, path, "myapp://experiments/configure?first=true\n")

	st := kv.NewMemoryStore()
	w := New(path, configure.New(st, configure.WithLogger(zerolog.Nop())), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	exists := func(key string) func() bool {
		return func() bool {
			_, ok, _ := st.Get(context.Background(), key)
			return ok
		}
	}
	assert.Eventually(t, exists("first_experiment"), 2*time.Second, 20*time.Millisecond)

	writeFile(t, path, "myapp://experiments/configure?second=true\n")
	assert.Eventually(t, exists("second_experiment"), 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
