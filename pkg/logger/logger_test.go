package logger

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dallangoldblatt/untappd-data/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name: "valid config with info level",
			cfg: &config.LoggingConfig{
				Level:  "info",
				Format: "console",
			},
			wantErr: false,
		},
		{
			name: "valid config with json format",
			cfg: &config.LoggingConfig{
				Level:  "debug",
				Format: "json",
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			cfg: &config.LoggingConfig{
				Level: "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"bogus", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	parent := NewTestLogger()

	child := parent.WithField("brewery", "1001")
	child.Info("child message")
	parent.Info("parent message")

	messages := parent.GetMessages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Fields["brewery"] != "1001" {
		t.Errorf("child message missing field, got %v", messages[0].Fields)
	}
	if messages[1].Fields != nil {
		t.Errorf("parent message should carry no fields, got %v", messages[1].Fields)
	}
}

func TestTestLoggerCapture(t *testing.T) {
	tl := NewTestLogger()

	tl.Info("plain")
	tl.WithError(errors.New("boom")).Error("failed")
	tl.WithFields(map[string]interface{}{"venue": "V9"}).
		InfoWithFields("merged", map[string]interface{}{"service": "foursquare"})

	if !tl.HasMessage("plain") {
		t.Error("expected plain message to be captured")
	}
	if !tl.HasError() {
		t.Error("expected an error level message")
	}

	errored := tl.GetMessagesByLevel("ERROR")
	if len(errored) != 1 || errored[0].Error == nil {
		t.Fatalf("expected one error message carrying the error, got %v", errored)
	}

	var merged *LogMessage
	for i := range tl.GetMessages() {
		m := tl.GetMessages()[i]
		if m.Message == "merged" {
			merged = &m
		}
	}
	if merged == nil {
		t.Fatal("expected merged message")
	}
	if merged.Fields["venue"] != "V9" || merged.Fields["service"] != "foursquare" {
		t.Errorf("expected merged fields, got %v", merged.Fields)
	}

	tl.Clear()
	if len(tl.GetMessages()) != 0 {
		t.Error("expected Clear to drop captured messages")
	}
}

func TestNopLogger(t *testing.T) {
	nop := NewNopLogger()

	// Must not panic and must keep returning loggers
	nop.Info("ignored")
	derived := nop.WithField("k", "v").WithError(errors.New("x"))
	if derived == nil {
		t.Fatal("nop logger derivation returned nil")
	}
	derived.ErrorWithFields("ignored", map[string]interface{}{"a": 1})
}

func TestGlobalLogger(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("GetLogger returned nil")
	}

	err := Initialize(&config.LoggingConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("GetLogger returned nil after Initialize")
	}
}
