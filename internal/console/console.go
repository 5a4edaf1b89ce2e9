// Package console is a small caller of the relay that keeps its own
// transcript and replays the most recent exchanges as history.
package console

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gaspardpetit/genrelay/core/logx"
	"github.com/gaspardpetit/genrelay/internal/api"
	"github.com/gaspardpetit/genrelay/internal/config"
	"github.com/gaspardpetit/genrelay/internal/metrics"
	"github.com/gaspardpetit/genrelay/internal/relay"
	"github.com/gaspardpetit/genrelay/internal/transcript"
)

// Query is the body of POST /console/query.
type Query struct {
	Text string `json:"text"`
}

// Response is returned by POST /console/query.
type Response struct {
	ResponseText  string                   `json:"response_text"`
	GeneratedText string                   `json:"generated_text"`
	Usage         relay.Usage              `json:"usage"`
	History       []relay.ConversationTurn `json:"history"`
}

// Console serves the /console routes.
type Console struct {
	gen      api.Generator
	mode     config.Mode
	store    transcript.Store
	backend  string
	window   int
	fallback string
}

// New returns a console that replays cfg.Window records through gen. mode
// must match the relay behind gen: in stateless mode nothing is replayed
// and each exchange stands alone, though it is still recorded for /list.
func New(gen api.Generator, mode config.Mode, store transcript.Store, cfg config.ConsoleConfig) *Console {
	c := &Console{
		gen:      gen,
		mode:     mode,
		store:    store,
		backend:  cfg.Backend,
		window:   cfg.Window,
		fallback: cfg.FallbackPrompt,
	}
	if c.window <= 0 {
		c.window = 5
	}
	if c.fallback == "" {
		c.fallback = config.DefaultFallbackPrompt
	}
	if c.backend == "" {
		c.backend = config.BackendMemory
	}
	return c
}

// Routes mounts the console endpoints on r.
func (c *Console) Routes(r chi.Router) {
	r.Post("/query", c.query)
	r.Get("/history", c.history)
	r.Get("/list", c.list)
}

func (c *Console) replay(r *http.Request) ([]relay.ConversationTurn, error) {
	if c.mode == config.ModeStateless {
		return []relay.ConversationTurn{}, nil
	}
	recs, err := c.store.Recent(r.Context(), c.window)
	if err != nil {
		return nil, err
	}
	return transcript.History(recs), nil
}

func (c *Console) query(w http.ResponseWriter, r *http.Request) {
	var q Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		api.WriteDetail(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		return
	}
	prompt := strings.TrimSpace(q.Text)
	if prompt == "" {
		prompt = c.fallback
	}
	hist, err := c.replay(r)
	if err != nil {
		logx.Log.Error().Err(err).Str("backend", c.backend).Msg("load transcript")
		api.WriteDetail(w, http.StatusInternalServerError, "transcript unavailable: "+err.Error())
		return
	}

	res, err := c.gen.Generate(r.Context(), relay.GenerationRequest{Prompt: prompt, History: hist})
	if err != nil {
		api.WriteError(w, err)
		return
	}

	if err := c.store.Append(r.Context(), transcript.NewRecord(prompt, res.GeneratedText)); err != nil {
		logx.Log.Error().Err(err).Str("backend", c.backend).Msg("append transcript")
	} else {
		metrics.RecordTranscriptAppend(c.backend)
	}

	// The relay only echoes history in history mode.
	out := res.History
	if out == nil {
		out = append(hist,
			relay.ConversationTurn{Role: relay.RoleUser, Content: prompt},
			relay.ConversationTurn{Role: relay.RoleAssistant, Content: res.GeneratedText},
		)
	}
	api.WriteJSON(w, http.StatusOK, Response{
		ResponseText:  res.GeneratedText,
		GeneratedText: res.GeneratedText,
		Usage:         res.Usage,
		History:       out,
	})
}

func (c *Console) history(w http.ResponseWriter, r *http.Request) {
	hist, err := c.replay(r)
	if err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "transcript unavailable: "+err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, hist)
}

func (c *Console) list(w http.ResponseWriter, r *http.Request) {
	recs, err := c.store.List(r.Context())
	if err != nil {
		api.WriteDetail(w, http.StatusInternalServerError, "transcript unavailable: "+err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, recs)
}
