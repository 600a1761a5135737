package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := kv.Set(ctx, "k", `{"a":1}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := kv.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("Get = %q, want %q", got, `{"a":1}`)
	}

	if err := kv.Set(ctx, "k", "second"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if got, _ := kv.Get(ctx, "k"); got != "second" {
		t.Errorf("after overwrite Get = %q, want %q", got, "second")
	}

	if err := kv.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove error = %v, want ErrNotFound", err)
	}
	if err := kv.Remove(ctx, "k"); err != nil {
		t.Errorf("Remove of absent key returned %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseKV(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer s.Close()

	exerciseKV(t, s)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	if err := s.Set(ctx, "weatherAppFavorites", `[{"name":"London"}]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "weatherAppFavorites")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got != `[{"name":"London"}]` {
		t.Errorf("Get after reopen = %q", got)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := DialRedis(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("DialRedis failed: %v", err)
	}
	defer s.Close()

	exerciseKV(t, s)
}

func TestSerialUpdateNoLostWrites(t *testing.T) {
	s := NewSerial(NewMemoryStore())
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, "counter", func(cur string, found bool) (Mutation, error) {
				n := 0
				if found {
					n, _ = strconv.Atoi(cur)
				}
				return Mutation{Value: strconv.Itoa(n + 1)}, nil
			})
			if err != nil {
				t.Errorf("Update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != strconv.Itoa(writers) {
		t.Errorf("counter = %s, want %d", got, writers)
	}
}

func TestSerialUpdateMutations(t *testing.T) {
	s := NewSerial(NewMemoryStore())
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	err := s.Update(ctx, "k", func(cur string, found bool) (Mutation, error) {
		if !found || cur != "v" {
			t.Errorf("Update saw (%q, %v), want (\"v\", true)", cur, found)
		}
		return Mutation{Skip: true}, nil
	})
	if err != nil {
		t.Fatalf("Update(skip) failed: %v", err)
	}
	if got, _ := s.Get(ctx, "k"); got != "v" {
		t.Errorf("skip changed value to %q", got)
	}

	boom := errors.New("boom")
	if err := s.Update(ctx, "k", func(string, bool) (Mutation, error) {
		return Mutation{}, boom
	}); !errors.Is(err, boom) {
		t.Errorf("Update error = %v, want boom", err)
	}
	if got, _ := s.Get(ctx, "k"); got != "v" {
		t.Errorf("failed update changed value to %q", got)
	}

	if err := s.Update(ctx, "k", func(cur string, _ bool) (Mutation, error) {
		return Mutation{Value: cur + "2"}, nil
	}); err != nil {
		t.Fatalf("Update(set) failed: %v", err)
	}
	if got, _ := s.Get(ctx, "k"); got != "v2" {
		t.Errorf("Get after update = %q, want v2", got)
	}
}
