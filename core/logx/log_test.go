package logx_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gaspardpetit/genrelay/core/logx"
)

func TestConfigureLogLevel(t *testing.T) {
	defer logx.Configure("info", "")

	logx.Configure("all", "")
	if zerolog.GlobalLevel() != zerolog.TraceLevel {
		t.Fatalf("expected trace level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("WARNING", "")
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("off", "")
	if zerolog.GlobalLevel() != zerolog.Disabled {
		t.Fatalf("expected disabled level, got %s", zerolog.GlobalLevel())
	}

	logx.Configure("bogus", "")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", zerolog.GlobalLevel())
	}
}

func TestJSONOutputCarriesComponent(t *testing.T) {
	defer logx.Configure("info", "")
	var buf bytes.Buffer
	logx.ConfigureOutput("info", "JSON", &buf)

	l := logx.Component("relay")
	l.Info().Int("status", 200).Msg("done")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry["component"] != "relay" || entry["message"] != "done" {
		t.Fatalf("entry %v", entry)
	}
	if entry["status"] != float64(200) {
		t.Fatalf("status field %v", entry["status"])
	}
}
