package transcript

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/gaspardpetit/genrelay/internal/config"
	"github.com/gaspardpetit/genrelay/internal/relay"
)

// backends returns one fresh store per backend.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rs, err := NewRedisStore(mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	ss, err := NewSQLiteStore(filepath.Join(t.TempDir(), "transcript.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	stores := map[string]Store{"memory": NewMemoryStore(), "redis": rs, "sqlite": ss}
	for _, s := range stores {
		s := s
		t.Cleanup(func() { _ = s.Close() })
	}
	return stores
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if recs, err := s.List(ctx); err != nil || len(recs) != 0 {
				t.Fatalf("empty List = %v, %v", recs, err)
			}
			if recs, err := s.Recent(ctx, 5); err != nil || len(recs) != 0 {
				t.Fatalf("empty Recent = %v, %v", recs, err)
			}

			var all []Record
			for i := 0; i < 7; i++ {
				rec := NewRecord(fmt.Sprintf("prompt %d", i), fmt.Sprintf("answer %d", i))
				if err := s.Append(ctx, rec); err != nil {
					t.Fatalf("Append: %v", err)
				}
				all = append(all, rec)
			}

			got, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != 7 {
				t.Fatalf("List len %d", len(got))
			}
			for i := range got {
				if got[i].ID != all[i].ID || got[i].Prompt != all[i].Prompt || !got[i].Timestamp.Equal(all[i].Timestamp) {
					t.Fatalf("record %d = %+v; want %+v", i, got[i], all[i])
				}
			}

			recent, err := s.Recent(ctx, 3)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			var prompts []string
			for _, r := range recent {
				prompts = append(prompts, r.Prompt)
			}
			if !reflect.DeepEqual(prompts, []string{"prompt 4", "prompt 5", "prompt 6"}) {
				t.Fatalf("Recent prompts %v", prompts)
			}

			if recent, err := s.Recent(ctx, 0); err != nil || len(recent) != 0 {
				t.Fatalf("Recent(0) = %v, %v", recent, err)
			}
			if recent, err := s.Recent(ctx, 50); err != nil || len(recent) != 7 {
				t.Fatalf("Recent(50) len %d, %v", len(recent), err)
			}
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Append(context.Background(), NewRecord("a", "b"))
	recs, _ := s.List(context.Background())
	recs[0].Prompt = "changed"
	again, _ := s.List(context.Background())
	if again[0].Prompt != "a" {
		t.Fatalf("store exposed its backing slice")
	}
}

func TestRedisStorePersistsAcrossClients(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	first, err := NewRedisStore("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer first.Close()
	if err := first.Append(context.Background(), NewRecord("hi", "hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	second, err := NewRedisStore(mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer second.Close()
	recs, err := second.List(context.Background())
	if err != nil || len(recs) != 1 || recs[0].GeneratedText != "hello" {
		t.Fatalf("List = %+v, %v", recs, err)
	}
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisStore(addr); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url    string
		addrs  int
		master string
		db     int
		tls    bool
	}{
		{"localhost:6379", 1, "", 0, false},
		{"redis://:pass@localhost:6379/1", 1, "", 1, false},
		{"rediss://host1:6379,host2:6379/0", 2, "", 0, true},
		{"redis://localhost:6379?db=3", 1, "", 3, false},
		{"redis-sentinel://localhost:26379/mymaster?db=2", 1, "mymaster", 2, false},
	}
	for _, tt := range tests {
		opts, err := parseRedisURL(tt.url)
		if err != nil {
			t.Fatalf("parseRedisURL(%q): %v", tt.url, err)
		}
		if len(opts.Addrs) != tt.addrs || opts.MasterName != tt.master || opts.DB != tt.db || (opts.TLSConfig != nil) != tt.tls {
			t.Fatalf("%q parsed to %+v", tt.url, opts)
		}
	}
	for _, bad := range []string{"http://localhost:6379", "redis://localhost:6379/notadb"} {
		if _, err := parseRedisURL(bad); err == nil {
			t.Fatalf("parseRedisURL(%q) should fail", bad)
		}
	}
}

func TestNewSQLiteStoreInvalidPath(t *testing.T) {
	if _, err := NewSQLiteStore("/no/such/dir/transcript.db"); err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(config.ConsoleConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "t.db")})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	_ = s.Close()
	if _, err := Open(config.ConsoleConfig{Backend: "mongo"}); err == nil {
		t.Fatal("expected unknown backend error")
	}
	if s, err := Open(config.ConsoleConfig{}); err != nil {
		t.Fatalf("Open default: %v", err)
	} else if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("default backend %T", s)
	}
}

func TestHistory(t *testing.T) {
	got := History([]Record{
		{Prompt: "q1", GeneratedText: "a1"},
		{Prompt: "q2", GeneratedText: "a2"},
	})
	want := []relay.ConversationTurn{
		{Role: relay.RoleUser, Content: "q1"},
		{Role: relay.RoleAssistant, Content: "a1"},
		{Role: relay.RoleUser, Content: "q2"},
		{Role: relay.RoleAssistant, Content: "a2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("History = %+v", got)
	}
	if h := History(nil); h == nil || len(h) != 0 {
		t.Fatalf("History(nil) = %#v", h)
	}
}
