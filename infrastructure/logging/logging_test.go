package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// testLogger creates a logger that writes JSON to a buffer.
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := bolt.New(bolt.NewJSONHandler(buf)).SetLevel(bolt.TRACE)
	return logger, buf
}

func TestLevelOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := levelOf(tt.input); got != tt.want {
				t.Errorf("levelOf(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBrowsingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"conn id", ConnID("staging"), `"conn_id":"staging"`},
		{"pattern", Pattern("session:*"), `"pattern":"session:*"`},
		{"store key", StoreKey("user:42"), `"key":"user:42"`},
		{"cache key", CacheKey("keys:staging:session:*"), `"cache_key":"keys:staging:session:*"`},
		{"cached", Cached(true), `"cached":true`},
		{"pages", Pages(12), `"pages":12`},
		{"keys", Keys(15000), `"keys":15000`},
		{"removed", Removed(3), `"removed":3`},
		{"cursor", Cursor(1536), `"cursor":1536`},
		{"session", Session("0f9d"), `"session":"0f9d"`},
		{"duration", Duration(250 * time.Millisecond), `"duration_ms":250`},
		{"component", Component("scanner"), `"component":"scanner"`},
		{"operation", Operation("bulk_delete"), `"operation":"bulk_delete"`},
		{"custom str", Str("address", "localhost:6379"), `"address":"localhost:6379"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")

			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("expected %s in output: %s", tt.want, buf.String())
			}
		})
	}
}

func TestErrorFieldSkipsNil(t *testing.T) {
	t.Parallel()

	t.Run("with error", func(t *testing.T) {
		t.Parallel()

		logger, buf := testLogger()
		ErrorField(errors.New("scan failed"))(logger.Warn()).Msg("test")

		if !bytes.Contains(buf.Bytes(), []byte(`"error":"scan failed"`)) {
			t.Errorf("expected error field in output: %s", buf.String())
		}
	})

	t.Run("with nil error", func(t *testing.T) {
		t.Parallel()

		logger, buf := testLogger()
		ErrorField(nil)(logger.Warn()).Msg("test")

		if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
			t.Errorf("unexpected error field in output: %s", buf.String())
		}
	})
}

func TestLogEventChaining(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	event := &LogEvent{event: logger.Debug()}
	event.Add(ConnID("local")).Add(Pattern("tmp:*")).Add(Pages(4)).Msg("scan complete")

	for _, want := range []string{`"conn_id":"local"`, `"pattern":"tmp:*"`, `"pages":4`, "scan complete"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("expected %s in output: %s", want, buf.String())
		}
	}
}

func TestGet(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get() returned nil")
	}
}
