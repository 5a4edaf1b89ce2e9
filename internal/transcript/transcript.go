// Package transcript stores console exchanges so they can be replayed as
// conversation history. The relay itself never reads from it.
package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gaspardpetit/genrelay/internal/config"
	"github.com/gaspardpetit/genrelay/internal/relay"
)

// Record is one prompt and the text generated for it.
type Record struct {
	ID            string    `json:"id"`
	Prompt        string    `json:"prompt"`
	GeneratedText string    `json:"generated_text"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewRecord stamps a record with a fresh id and the current time.
func NewRecord(prompt, generated string) Record {
	return Record{
		ID:            uuid.NewString(),
		Prompt:        prompt,
		GeneratedText: generated,
		Timestamp:     time.Now().UTC(),
	}
}

// Store persists records. Implementations are safe for concurrent use.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// Recent returns at most n of the newest records, oldest first.
	Recent(ctx context.Context, n int) ([]Record, error)
	// List returns every record, oldest first.
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// Open builds the store selected by the console config.
func Open(cfg config.ConsoleConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendRedis:
		rs, err := NewRedisStore(cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case config.BackendSQLite:
		ss, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return ss, nil
	default:
		return nil, fmt.Errorf("unknown transcript backend %q", cfg.Backend)
	}
}

// History expands records into alternating user and assistant turns.
func History(recs []Record) []relay.ConversationTurn {
	turns := make([]relay.ConversationTurn, 0, 2*len(recs))
	for _, r := range recs {
		turns = append(turns,
			relay.ConversationTurn{Role: relay.RoleUser, Content: r.Prompt},
			relay.ConversationTurn{Role: relay.RoleAssistant, Content: r.GeneratedText},
		)
	}
	return turns
}

func tail(recs []Record, n int) []Record {
	if n <= 0 {
		return []Record{}
	}
	if len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}
