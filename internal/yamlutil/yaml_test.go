package yamlutil_test

// Notes:
// - Marshal/Encode error branches need unmarshalable types (channels,
//   functions) and are not tested
// - TestInputSizeLimit mutates MaxInputSize and does not run in parallel

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-mdembed/internal/yamlutil"
)

type testConfig struct {
	Name    string `yaml:"name"`
	Count   int    `yaml:"count"`
	Enabled bool   `yaml:"enabled"`
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Parses YAML, rejecting unknown fields
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		data       []byte
		dest       any
		wantErr    error
		wantPrefix bool
	}{
		{
			name: "known fields only",
			data: []byte("name: strict\ncount: 10\nenabled: true"),
			dest: &testConfig{},
		},
		{
			name:       "unknown field",
			data:       []byte("name: test\nunknown_field: value"),
			dest:       &testConfig{},
			wantPrefix: true,
		},
		{
			name:       "syntax error",
			data:       []byte("name: [unclosed"),
			dest:       &testConfig{},
			wantPrefix: true,
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "empty data",
			data:    []byte{},
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("name: test"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, tt.dest)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantPrefix:
				if err == nil || !strings.HasPrefix(err.Error(), "yamlutil:") {
					t.Fatalf("error = %v, want yamlutil: prefix", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				cfg := tt.dest.(*testConfig)
				if cfg.Name != "strict" || cfg.Count != 10 || !cfg.Enabled {
					t.Errorf("decoded = %+v", cfg)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMarshal / TestEncode - Serialization
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	data, err := yamlutil.Marshal(&testConfig{Name: "日本語", Count: 5, Enabled: true})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{"name: 日本語", "count: 5", "enabled: true"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Marshal() = %s, want to contain %q", data, want)
		}
	}

	var decoded testConfig
	if err := yamlutil.UnmarshalStrict(data, &decoded); err != nil {
		t.Fatalf("UnmarshalStrict() error = %v", err)
	}
	if decoded != (testConfig{Name: "日本語", Count: 5, Enabled: true}) {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	type report struct {
		Files []testConfig `yaml:"files"`
	}

	var buf bytes.Buffer
	err := yamlutil.Encode(&buf, report{Files: []testConfig{{Name: "a", Count: 1}}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "files:\n  - name: a\n") {
		t.Errorf("Encode() = %q, want indented sequence", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Errorf("Encode() = %q, want trailing newline", got)
	}
}

// ---------------------------------------------------------------------------
// TestInputSizeLimit - MaxInputSize enforcement
// ---------------------------------------------------------------------------

func TestInputSizeLimit(t *testing.T) {
	originalMax := yamlutil.MaxInputSize
	t.Cleanup(func() { yamlutil.MaxInputSize = originalMax })

	padded := func(n int) []byte {
		data := []byte("name: x\n")
		return append(data, bytes.Repeat([]byte("\n"), n-len(data))...)
	}

	t.Run("input at limit succeeds", func(t *testing.T) {
		yamlutil.MaxInputSize = 100
		var cfg testConfig
		if err := yamlutil.UnmarshalStrict(padded(100), &cfg); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("input exceeding limit fails with sizes", func(t *testing.T) {
		yamlutil.MaxInputSize = 100
		var cfg testConfig
		err := yamlutil.UnmarshalStrict(padded(101), &cfg)
		if !errors.Is(err, yamlutil.ErrInputTooLarge) {
			t.Fatalf("error = %v, want ErrInputTooLarge", err)
		}
		if !strings.Contains(err.Error(), "101 bytes") || !strings.Contains(err.Error(), "max 100") {
			t.Errorf("error should contain sizes, got: %s", err)
		}
	})
}
