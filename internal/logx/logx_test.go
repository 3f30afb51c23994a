package logx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestComponentTagsName(t *testing.T) {
	l := Component("sim")
	if l == nil {
		t.Fatal("Component returned nil logger")
	}
	var buf bytes.Buffer
	out := l.Output(&buf)
	out.Info().Msg("probe")
	if !strings.Contains(buf.String(), `"component":"sim"`) {
		t.Fatalf("log line lacks component field: %s", buf.String())
	}
}

func TestSetLevelFallsBackOnUnknown(t *testing.T) {
	SetLevel("not-a-real-level")
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Fatalf("global level = %v, want %v", got, zerolog.InfoLevel)
	}
	SetLevel("info")
}
