package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amck/mlmodels/app/trainer"
	"github.com/amck/mlmodels/app/webapi/mocks"
	"github.com/amck/mlmodels/lib/dataset"
	"github.com/amck/mlmodels/lib/naivebayes"
)

func TestServer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer(Config{ListenAddr: ":9876", Version: "dev", Trainer: &mocks.TrainerMock{}})
	done := make(chan struct{})
	go func() {
		err := srv.Run(ctx)
		assert.NoError(t, err)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:9876/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	assert.Contains(t, resp.Header.Get("App-Name"), "mlmodels")
	assert.Contains(t, resp.Header.Get("App-Version"), "dev")

	cancel()
	<-done
}

func TestServer_Auth(t *testing.T) {
	mockTrainer := &mocks.TrainerMock{
		SamplesFunc: func(context.Context) ([]dataset.Sample, error) { return []dataset.Sample{}, nil },
	}
	ts := httptest.NewServer(NewServer(Config{Trainer: mockTrainer, AuthPasswd: "test", RateLimit: 1000}).router())
	defer ts.Close()

	t.Run("ping without auth", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ping")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	tests := []struct {
		name       string
		user, pass string
		wantCode   int
	}{
		{name: "no basic auth", wantCode: http.StatusUnauthorized},
		{name: "wrong password", user: authUser, pass: "bad", wantCode: http.StatusForbidden},
		{name: "authorized", user: authUser, pass: "test", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+"/samples", http.NoBody)
			require.NoError(t, err)
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}
}

func TestServer_predict(t *testing.T) {
	mockTrainer := &mocks.TrainerMock{
		ClassifyFunc: func(input []bool) (naivebayes.Prediction, error) {
			switch {
			case len(input) != 2:
				return naivebayes.Prediction{}, fmt.Errorf("%w: input length %d, expected 2", naivebayes.ErrInvalidArgument, len(input))
			case input[0] && input[1]:
				return naivebayes.Prediction{}, errors.New("something broke")
			case !input[0] && !input[1]:
				return naivebayes.Prediction{Class: -1, Scores: []float64{math.Inf(-1), math.NaN()}, Probabilities: []float64{0, 0}}, nil
			}
			return naivebayes.Prediction{Class: 1, Scores: []float64{-2, -1}, Probabilities: []float64{0.27, 0.73}, Certain: true}, nil
		},
		SchemaFunc:     func() dataset.Schema { return dataset.Schema{Features: []string{"a", "b"}, Classes: []string{"no", "yes"}} },
		TrainedFunc:    func() bool { return true },
		GenerationFunc: func() uint64 { return 1 },
	}
	predLog := &bytes.Buffer{}
	srv := NewServer(Config{Trainer: mockTrainer, PredictionLog: predLog, RateLimit: 1000})
	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name: "classified", body: `{"features":[true,false]}`, wantCode: http.StatusOK,
			wantBody: `{"class":1,"class_name":"yes","scores":[-2,-1],"probabilities":[0.27,0.73],"certain":true,"trained":true}`,
		},
		{
			name: "degenerate scores", body: `{"features":[false,false]}`, wantCode: http.StatusOK,
			wantBody: `{"class":-1,"class_name":"","scores":[null,null],"probabilities":[0,0],"certain":false,"trained":true}`,
		},
		{name: "wrong length", body: `{"features":[true]}`, wantCode: http.StatusBadRequest},
		{name: "bad json", body: `{"features":`, wantCode: http.StatusBadRequest},
		{name: "classifier error", body: `{"features":[true,true]}`, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, string(body))
			}
		})
	}

	srv.logLock.Lock()
	lines := strings.Split(strings.TrimSpace(predLog.String()), "\n")
	srv.logLock.Unlock()
	require.Len(t, lines, 2, "only successful predictions logged")
	assert.Contains(t, lines[0], `"features":"10","class":1,"class_name":"yes","certain":true`)
	assert.Contains(t, lines[1], `"features":"00","class":-1`)
}

func TestServer_predictCache(t *testing.T) {
	var gen atomic.Uint64
	gen.Store(1)
	mockTrainer := &mocks.TrainerMock{
		ClassifyFunc: func([]bool) (naivebayes.Prediction, error) {
			return naivebayes.Prediction{Class: 0, Scores: []float64{-1}, Probabilities: []float64{1}, Certain: true}, nil
		},
		SchemaFunc:     func() dataset.Schema { return dataset.NewSchema(2, 1) },
		TrainedFunc:    func() bool { return true },
		GenerationFunc: func() uint64 { return gen.Load() },
	}
	ts := httptest.NewServer(NewServer(Config{Trainer: mockTrainer, CacheSize: 10, CacheTTL: time.Minute, RateLimit: 1000}).router())
	defer ts.Close()

	predict := func(body string) {
		resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	predict(`{"features":[true,false]}`)
	predict(`{"features":[true,false]}`)
	assert.Len(t, mockTrainer.ClassifyCalls(), 1, "second call served from cache")

	predict(`{"features":[false,false]}`)
	assert.Len(t, mockTrainer.ClassifyCalls(), 2, "different input")

	gen.Store(2) // model retrained
	predict(`{"features":[true,false]}`)
	assert.Len(t, mockTrainer.ClassifyCalls(), 3, "cache dropped on retrain")
}

func TestServer_debugLog(t *testing.T) {
	var buf lockedBuffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	mockTrainer := &mocks.TrainerMock{
		SnapshotFunc:   func() naivebayes.Params { return naivebayes.Params{NumberOfClasses: 2, InputDimension: 1} },
		SchemaFunc:     func() dataset.Schema { return dataset.Schema{Name: "t", Features: []string{"x"}, Classes: []string{"a", "b"}} },
		GenerationFunc: func() uint64 { return 0 },
	}

	for _, dbg := range []bool{false, true} {
		t.Run(fmt.Sprintf("dbg=%v", dbg), func(t *testing.T) {
			buf.Reset()
			ts := httptest.NewServer(NewServer(Config{Trainer: mockTrainer, RateLimit: 1000, Dbg: dbg}).router())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/model")
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			if !dbg {
				time.Sleep(50 * time.Millisecond)
				assert.NotContains(t, buf.String(), "/model", "requests are not logged")
				return
			}
			assert.Eventually(t, func() bool { return strings.Contains(buf.String(), "/model") },
				time.Second, 10*time.Millisecond)
			assert.Contains(t, buf.String(), "[DEBUG]")
		})
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

func TestServer_model(t *testing.T) {
	mockTrainer := &mocks.TrainerMock{
		SnapshotFunc: func() naivebayes.Params {
			return naivebayes.Params{NumberOfClasses: 2, InputDimension: 1, Trained: true,
				LogPriors:      []float64{math.Log(0.5), math.Inf(-1)},
				LogLikelihoods: [][][2]float64{{{0, math.Inf(-1)}}, {{math.NaN(), math.NaN()}}},
			}
		},
		SchemaFunc:     func() dataset.Schema { return dataset.Schema{Name: "t", Features: []string{"x"}, Classes: []string{"a", "b"}} },
		GenerationFunc: func() uint64 { return 3 },
	}
	ts := httptest.NewServer(NewServer(Config{Trainer: mockTrainer, RateLimit: 1000}).router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/model")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"t","features":["x"],"classes":["a","b"],"trained":true,"generation":3,
		"log_priors":[-0.6931471805599453,null],"log_likelihoods":[[[0,null]],[[null,null]]]}`, string(body))
}

func TestServer_samples(t *testing.T) {
	schema := dataset.Schema{Features: []string{"a", "b"}, Classes: []string{"no", "yes"}}
	lr := trainer.LoadResult{Preset: 3, User: 1, ClassCounts: []int{2, 2}}
	mockTrainer := &mocks.TrainerMock{
		SchemaFunc: func() dataset.Schema { return schema },
		SamplesFunc: func(context.Context) ([]dataset.Sample, error) {
			return []dataset.Sample{{Label: 1, Features: []bool{true, false}}}, nil
		},
		AddSampleFunc: func(_ context.Context, s dataset.Sample) (trainer.LoadResult, error) {
			if err := schema.Check(s); err != nil {
				return trainer.LoadResult{}, fmt.Errorf("%w: %w", trainer.ErrInvalidSample, err)
			}
			return lr, nil
		},
		RemoveSampleFunc: func(context.Context, dataset.Sample) (trainer.LoadResult, error) {
			return trainer.LoadResult{}, errors.New("sample not found")
		},
		ReloadFunc: func(context.Context) (trainer.LoadResult, error) { return lr, nil },
	}
	ts := httptest.NewServer(NewServer(Config{Trainer: mockTrainer, RateLimit: 1000}).router())
	defer ts.Close()

	tests := []struct {
		name     string
		method   string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name: "get", method: http.MethodGet, wantCode: http.StatusOK,
			wantBody: `{"samples":[{"features":[true,false],"label":1}],"count":1}`,
		},
		{
			name: "add by label", method: http.MethodPost, body: `{"features":[true,true],"label":0}`, wantCode: http.StatusOK,
			wantBody: `{"updated":true,"op":"add","sample":{"features":[true,true],"label":0},
				"samples":{"preset":3,"user":1,"class_counts":[2,2]}}`,
		},
		{
			name: "add by class name", method: http.MethodPost, body: `{"features":[false,true],"class":"yes"}`, wantCode: http.StatusOK,
			wantBody: `{"updated":true,"op":"add","sample":{"features":[false,true],"label":1},
				"samples":{"preset":3,"user":1,"class_counts":[2,2]}}`,
		},
		{name: "unknown class", method: http.MethodPost, body: `{"features":[false,true],"class":"maybe"}`, wantCode: http.StatusBadRequest},
		{name: "no label", method: http.MethodPost, body: `{"features":[false,true]}`, wantCode: http.StatusBadRequest},
		{name: "invalid sample", method: http.MethodPost, body: `{"features":[false],"label":1}`, wantCode: http.StatusBadRequest},
		{name: "bad json", method: http.MethodPost, body: `{"features":`, wantCode: http.StatusBadRequest},
		{name: "remove failed", method: http.MethodDelete, body: `{"features":[false,true],"label":1}`, wantCode: http.StatusInternalServerError},
		{
			name: "reload", method: http.MethodPut, wantCode: http.StatusOK,
			wantBody: `{"reloaded":true,"samples":{"preset":3,"user":1,"class_counts":[2,2]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+"/samples", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, string(body))
			}
		})
	}

	assert.Len(t, mockTrainer.AddSampleCalls(), 3, "bad requests never reach trainer")
	assert.Len(t, mockTrainer.RemoveSampleCalls(), 1)
	assert.Len(t, mockTrainer.ReloadCalls(), 1)
}

func TestServer_samplesErrors(t *testing.T) {
	mockTrainer := &mocks.TrainerMock{
		SamplesFunc: func(context.Context) ([]dataset.Sample, error) { return nil, errors.New("db is gone") },
		ReloadFunc:  func(context.Context) (trainer.LoadResult, error) { return trainer.LoadResult{}, errors.New("no preset file") },
	}
	ts := httptest.NewServer(NewServer(Config{Trainer: mockTrainer, RateLimit: 1000}).router())
	defer ts.Close()

	for _, method := range []string{http.MethodGet, http.MethodPut} {
		req, err := http.NewRequest(method, ts.URL+"/samples", http.NoBody)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, method)
		resp.Body.Close()
	}
}

func TestServer_evaluate(t *testing.T) {
	mockTrainer := &mocks.TrainerMock{
		EvaluateFunc: func(_ context.Context, ratio float64, seed int64) (trainer.Evaluation, error) {
			if seed == 13 {
				return trainer.Evaluation{}, errors.New("unlucky")
			}
			return trainer.Evaluation{TrainSamples: 8, TestSamples: 2, Accuracy: 0.5, Confusion: [][]int{{1, 1}, {0, 0}}}, nil
		},
	}
	ts := httptest.NewServer(NewServer(Config{Trainer: mockTrainer, RateLimit: 1000}).router())
	defer ts.Close()

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantRatio float64
		wantSeed  int64
	}{
		{name: "defaults", query: "", wantCode: http.StatusOK, wantRatio: 0.2, wantSeed: 1},
		{name: "custom", query: "?ratio=0.5&seed=7", wantCode: http.StatusOK, wantRatio: 0.5, wantSeed: 7},
		{name: "ratio out of range", query: "?ratio=1", wantCode: http.StatusBadRequest},
		{name: "ratio not a number", query: "?ratio=abc", wantCode: http.StatusBadRequest},
		{name: "ratio NaN", query: "?ratio=NaN", wantCode: http.StatusBadRequest},
		{name: "ratio Inf", query: "?ratio=Inf", wantCode: http.StatusBadRequest},
		{name: "bad seed", query: "?seed=1.5", wantCode: http.StatusBadRequest},
		{name: "evaluation error", query: "?seed=13", wantCode: http.StatusInternalServerError, wantRatio: 0.2, wantSeed: 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTrainer.ResetEvaluateCalls()
			resp, err := http.Get(ts.URL + "/evaluate" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantRatio == 0 {
				assert.Empty(t, mockTrainer.EvaluateCalls())
				return
			}
			require.Len(t, mockTrainer.EvaluateCalls(), 1)
			assert.InDelta(t, tt.wantRatio, mockTrainer.EvaluateCalls()[0].TestRatio, 1e-9)
			assert.Equal(t, tt.wantSeed, mockTrainer.EvaluateCalls()[0].Seed)
		})
	}
}

func TestServer_rateLimit(t *testing.T) {
	mockTrainer := &mocks.TrainerMock{
		SamplesFunc: func(context.Context) ([]dataset.Sample, error) { return []dataset.Sample{}, nil },
	}
	ts := httptest.NewServer(NewServer(Config{Trainer: mockTrainer, RateLimit: 1}).router())
	defer ts.Close()

	codes := []int{}
	for range 3 {
		resp, err := http.Get(ts.URL + "/samples")
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
		resp.Body.Close()
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)
}

func TestServer_withTrainer(t *testing.T) {
	preset := filepath.Join(t.TempDir(), "preset.txt")
	require.NoError(t, os.WriteFile(preset, []byte("0,1,1\n0,1,0\n0,1,0\n1,0,1\n1,1,1\n"), 0o600))
	tr, err := trainer.New(trainer.Config{Schema: dataset.NewSchema(2, 2), PresetFiles: []string{preset},
		Store: trainer.NewFileUpdater(filepath.Join(t.TempDir(), "user.txt"))})
	require.NoError(t, err)
	_, err = tr.Reload(context.Background())
	require.NoError(t, err)

	ts := httptest.NewServer(NewServer(Config{Trainer: tr, CacheSize: 100, RateLimit: 1000}).router())
	defer ts.Close()

	predict := func(features string) predictResponse {
		resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(`{"features":`+features+`}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		res := predictResponse{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		return res
	}

	res := predict(`[true,false]`)
	assert.Equal(t, 0, res.Class)
	assert.Equal(t, "c0", res.ClassName)
	assert.True(t, res.Trained)

	// no class had f0 and f1 both false, every score is -Inf
	res = predict(`[false,false]`)
	assert.Equal(t, -1, res.Class)
	assert.Empty(t, res.ClassName)
	for range 3 {
		resp, err := http.Post(ts.URL+"/samples", "application/json", strings.NewReader(`{"features":[false,false],"class":"c1"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
	res = predict(`[false,false]`)
	assert.Equal(t, 1, res.Class, "retrained model, cached answer dropped")

	resp, err := http.Post(ts.URL+"/predict", "application/json", strings.NewReader(`{"features":[true]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNullFloats(t *testing.T) {
	tests := []struct {
		in   nullFloats
		want string
	}{
		{in: nil, want: "null"},
		{in: nullFloats{}, want: "[]"},
		{in: nullFloats{1.5, -2}, want: "[1.5,-2]"},
		{in: nullFloats{math.Inf(-1), math.Inf(1), math.NaN(), 0}, want: "[null,null,null,0]"},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))
	}
}
