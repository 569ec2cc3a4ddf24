package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-pkgz/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

const testSchema = `
name: weather
features: [cloudy, windy]
classes: [dry, rain]
`

// testSamples has 12 dry and 5 rainy days
const testSamples = `# label, cloudy, windy
0,1,1
0,1,1
0,1,1
0,1,0
0,1,0
0,1,0
0,1,0
0,1,0
0,0,0
0,0,0
0,0,0
0,0,0
1,1,1
1,1,1
1,0,1
1,0,1
1,0,0
`

func testOptions(t *testing.T) options {
	t.Helper()
	dir := t.TempDir()
	opts := options{}
	opts.Files.Schema = filepath.Join(dir, "schema.yml")
	opts.Files.Preset = []string{filepath.Join(dir, "samples.txt")}
	opts.Files.Dynamic = filepath.Join(dir, "dynamic.txt")
	opts.Files.WatchInterval = 10 * time.Millisecond
	opts.DB.Timeout = time.Second
	opts.Eval.Seed = 1
	require.NoError(t, os.WriteFile(opts.Files.Schema, []byte(testSchema), 0o600))
	require.NoError(t, os.WriteFile(opts.Files.Preset[0], []byte(testSamples), 0o600))
	return opts
}

func TestExecute_modes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(o *options)
		want  []string
	}{
		{
			name:  "predict",
			setup: func(o *options) { o.Predict = "0,1" },
			want:  []string{"class: 1 (rain), certain: true", "dry", "rain"},
		},
		{
			name:  "predict dry",
			setup: func(o *options) { o.Predict = "f,f" },
			want:  []string{"class: 0 (dry)"},
		},
		{
			name:  "evaluate",
			setup: func(o *options) { o.Eval.Ratio = 0.3 },
			want:  []string{"train: 12, test: 5, accuracy:", "dry", "rain"},
		},
		{
			name:  "print model",
			setup: func(*options) {},
			want:  []string{`model "weather", features: 2, classes: 2`, "log prior:   -0.3483", "log prior:   -1.2238"},
		},
		{
			name: "with user samples in file",
			setup: func(o *options) {
				require.NoError(t, os.WriteFile(o.Files.Dynamic, []byte("1,0,0\n1,0,0\n1,0,0\n1,0,0\n1,0,0\n"), 0o600))
				o.Predict = "0,0"
			},
			want: []string{"class: 1 (rain)"},
		},
		{
			name: "with user samples in database",
			setup: func(o *options) {
				o.DB.URL = filepath.Join(filepath.Dir(o.Files.Schema), "samples.db")
				o.DB.Import = filepath.Join(filepath.Dir(o.Files.Schema), "import.txt")
				require.NoError(t, os.WriteFile(o.DB.Import, []byte("1,0,0\n1,0,0\n1,0,0\n1,0,0\n1,0,0\n"), 0o600))
				o.Predict = "0,0"
			},
			want: []string{"class: 1 (rain)"},
		},
		{
			name: "export database",
			setup: func(o *options) {
				o.DB.URL = filepath.Join(filepath.Dir(o.Files.Schema), "samples.db")
				o.DB.Import = filepath.Join(filepath.Dir(o.Files.Schema), "import.txt")
				o.DB.Export = filepath.Join(filepath.Dir(o.Files.Schema), "export.sql")
				require.NoError(t, os.WriteFile(o.DB.Import, []byte("1,0,0\n"), 0o600))
			},
			want: []string{`model "weather"`, "database samples, total: 1, preset: 0, user: 1, by label: map[1:1]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t)
			tt.setup(&opts)
			var err error
			out := testutils.CaptureStdout(t, func() {
				err = execute(context.Background(), opts)
			})
			require.NoError(t, err)
			t.Log(out)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			if opts.DB.Export != "" {
				data, rerr := os.ReadFile(opts.DB.Export)
				require.NoError(t, rerr)
				assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS samples")
				assert.Contains(t, string(data), "\tweather\t")
			}
		})
	}
}

func TestExecute_errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(o *options)
		wantErr string
	}{
		{name: "no schema", setup: func(o *options) { o.Files.Schema = "/no/such/schema.yml" }, wantErr: "schema file"},
		{
			name:    "broken schema",
			setup:   func(o *options) { require.NoError(t, os.WriteFile(o.Files.Schema, []byte("name: x\nfeatures: [a, a]\n"), 0o600)) },
			wantErr: "duplicate feature name",
		},
		{name: "no preset", setup: func(o *options) { o.Files.Preset = []string{"/no/such/samples.txt"} }, wantErr: "can't load samples"},
		{name: "bad features", setup: func(o *options) { o.Predict = "1,maybe" }, wantErr: "can't parse features"},
		{name: "wrong dimension", setup: func(o *options) { o.Predict = "1,0,1" }, wantErr: "invalid argument"},
		{name: "bad db url", setup: func(o *options) { o.DB.URL = "mysql://localhost/db" }, wantErr: "unsupported database type"},
		{
			name: "bad import",
			setup: func(o *options) {
				o.DB.URL = ":memory:"
				o.DB.Import = "/no/such/import.txt"
			},
			wantErr: "can't open samples to import",
		},
		{
			name: "bad export path",
			setup: func(o *options) {
				o.DB.URL = ":memory:"
				o.DB.Export = "/no/such/dir/export.sql"
			},
			wantErr: "can't create export file",
		},
		{name: "bad eval ratio", setup: func(o *options) { o.Eval.Ratio = 1.5 }, wantErr: "can't evaluate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t)
			tt.setup(&opts)
			err := execute(context.Background(), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExecute_server(t *testing.T) {
	opts := testOptions(t)
	opts.Server.Enabled = true
	opts.Server.ListenAddr = ":9988"
	opts.Server.RateLimit = 100
	opts.Server.CacheSize = 10
	opts.Logger.Enabled = true
	opts.Logger.FileName = filepath.Join(t.TempDir(), "predictions.log")
	opts.Logger.MaxSize = "1M"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error)
	go func() { done <- execute(ctx, opts) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://localhost:9988/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	resp, err := http.Post("http://localhost:9988/predict", "application/json", strings.NewReader(`{"features":[false,true]}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"class_name":"rain"`)

	cancel()
	require.NoError(t, <-done)

	data, err := os.ReadFile(opts.Logger.FileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"features":"01","class":1,"class_name":"rain"`)
}

func TestMakePredictionLogWriter(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		maxSize     string
		wantMaxSize int
		wantErr     bool
	}{
		{name: "disabled", enabled: false},
		{name: "megabytes", enabled: true, maxSize: "10M", wantMaxSize: 10},
		{name: "gigabytes lower case", enabled: true, maxSize: "1g", wantMaxSize: 1024},
		{name: "plain bytes", enabled: true, maxSize: "2097152", wantMaxSize: 2},
		{name: "empty", enabled: true, maxSize: "", wantErr: true},
		{name: "junk", enabled: true, maxSize: "tenM", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options{}
			opts.Logger.Enabled = tt.enabled
			opts.Logger.MaxSize = tt.maxSize
			opts.Logger.FileName = filepath.Join(t.TempDir(), "predictions.log")
			opts.Logger.MaxBackups = 3

			wr, err := makePredictionLogWriter(opts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer wr.Close()
			if !tt.enabled {
				_, ok := wr.(nopWriteCloser)
				assert.True(t, ok)
				return
			}
			lj, ok := wr.(*lumberjack.Logger)
			require.True(t, ok)
			assert.Equal(t, tt.wantMaxSize, lj.MaxSize)
			assert.Equal(t, 3, lj.MaxBackups)
		})
	}
}
