package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := SetupWithWriter("production", "", &buf)
	if l.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("level=%v want info", l.GetLevel())
	}
	l.Debug().Msg("hidden")
	l.Info().Str("drone", "000").Msg("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"drone":"000"`) {
		t.Fatalf("unexpected output: %s", out)
	}

	if l := SetupWithWriter("development", "", &buf); l.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("development level=%v want debug", l.GetLevel())
	}
	if l := SetupWithWriter("production", "warn", &buf); l.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("explicit level=%v want warn", l.GetLevel())
	}
}
