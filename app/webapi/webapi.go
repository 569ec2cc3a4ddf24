// Package webapi provides a web API for the naive Bayes model: prediction, model inspection,
// management of user samples and hold-out evaluation.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/amck/mlmodels/app/trainer"
	"github.com/amck/mlmodels/lib/dataset"
	"github.com/amck/mlmodels/lib/naivebayes"
)

//go:generate moq --out mocks/trainer.go --pkg mocks --with-resets --skip-ensure . Trainer

const authUser = "mlmodels"

// Server is a web API server.
type Server struct {
	Config
	predictions cache.Cache[string, predictResponse]
	cachedGen   atomic.Uint64 // model generation of cached predictions
	logLock     sync.Mutex
}

// Config defines server parameters
type Config struct {
	Version       string        // version to show in /ping
	ListenAddr    string        // listen address
	Trainer       Trainer       // trained model and samples
	AuthPasswd    string        // basic auth password for user "mlmodels", no auth if empty
	RateLimit     float64       // max requests per second from a single ip, 50 if not set
	CacheSize     int           // max number of cached predictions, no cache if zero
	CacheTTL      time.Duration // ttl of cached predictions
	PredictionLog io.Writer     // optional json-lines log of predictions
	Dbg           bool          // debug mode, logs every request
}

// Trainer is a model with samples management
type Trainer interface {
	Classify(input []bool) (naivebayes.Prediction, error)
	Snapshot() naivebayes.Params
	Trained() bool
	Schema() dataset.Schema
	Generation() uint64
	Reload(ctx context.Context) (trainer.LoadResult, error)
	AddSample(ctx context.Context, sample dataset.Sample) (trainer.LoadResult, error)
	RemoveSample(ctx context.Context, sample dataset.Sample) (trainer.LoadResult, error)
	Samples(ctx context.Context) ([]dataset.Sample, error)
	Evaluate(ctx context.Context, testRatio float64, seed int64) (trainer.Evaluation, error)
}

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	res := &Server{Config: config}
	if config.CacheSize > 0 {
		res.predictions = cache.NewCache[string, predictResponse]().WithMaxKeys(config.CacheSize).WithTTL(config.CacheTTL)
	}
	return res
}

// Run starts server and accepts requests.
func (s *Server) Run(ctx context.Context) error {
	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi server")
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	srv := &http.Server{Addr: s.ListenAddr, Handler: s.router(), ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout: 5 * time.Second, WriteTimeout: 30 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func (s *Server) router() http.Handler {
	rateLimit := s.RateLimit
	if rateLimit <= 0 {
		rateLimit = 50
	}
	lmt := tollbooth.NewLimiter(rateLimit, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})

	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()), rest.Throttle(1000))
	router.Use(rest.AppInfo("mlmodels", "amck", s.Version), rest.Ping)
	router.Use(tollbooth.HTTPMiddleware(lmt))
	router.Use(rest.SizeLimit(1024 * 1024)) // 1M max request size
	if s.Dbg {
		router.Use(logger.New(logger.Log(lgr.Func(log.Printf)), logger.Prefix("[DEBUG]")).Handler)
	}

	s.routes(router.Group())
	return router
}

func (s *Server) routes(router *routegroup.Bundle) {
	router.Use(s.authMiddleware(rest.BasicAuthWithUserPasswd(authUser, s.AuthPasswd)))

	router.HandleFunc("POST /predict", s.predictHandler) // classify a feature vector
	router.HandleFunc("GET /model", s.modelHandler)      // model parameters
	router.HandleFunc("GET /evaluate", s.evaluateHandler)

	router.Route(func(samples *routegroup.Bundle) { // user samples
		samples.HandleFunc("GET /samples", s.getSamplesHandler)
		samples.HandleFunc("POST /samples", s.updateSampleHandler("add", s.Trainer.AddSample))
		samples.HandleFunc("DELETE /samples", s.updateSampleHandler("remove", s.Trainer.RemoveSample))
		samples.HandleFunc("PUT /samples", s.reloadSamplesHandler) // reload all samples and retrain
	})
}

type predictResponse struct {
	Class         int        `json:"class"`
	ClassName     string     `json:"class_name"`
	Scores        nullFloats `json:"scores"`
	Probabilities nullFloats `json:"probabilities"`
	Certain       bool       `json:"certain"`
	Trained       bool       `json:"trained"`
}

// predictHandler handles POST /predict request with {"features": [true, false, ...]} body
func (s *Server) predictHandler(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Features []bool `json:"features"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		log.Printf("[WARN] can't decode request: %v", err)
		return
	}

	resp, err := s.predict(req.Features)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, naivebayes.ErrInvalidArgument) {
			code = http.StatusBadRequest
		}
		w.WriteHeader(code)
		rest.RenderJSON(w, rest.JSON{"error": "can't classify", "details": err.Error()})
		return
	}
	s.logPrediction(req.Features, resp)
	rest.RenderJSON(w, resp)
}

// predict classifies features, using cached result for the same model generation
func (s *Server) predict(features []bool) (predictResponse, error) {
	key := ""
	if s.predictions != nil {
		gen := s.Trainer.Generation()
		if s.cachedGen.Swap(gen) != gen {
			s.predictions.Purge() // model was retrained
		}
		key = strconv.FormatUint(gen, 10) + ":" + dataset.Bits(features)
		if resp, ok := s.predictions.Get(key); ok {
			return resp, nil
		}
	}

	p, err := s.Trainer.Classify(features)
	if err != nil {
		return predictResponse{}, err
	}
	resp := predictResponse{Class: p.Class, ClassName: s.Trainer.Schema().ClassName(p.Class),
		Scores: p.Scores, Probabilities: p.Probabilities, Certain: p.Certain, Trained: s.Trainer.Trained()}

	if s.predictions != nil {
		s.predictions.Set(key, resp, s.CacheTTL)
	}
	return resp, nil
}

// logPrediction writes a json line to the prediction log
func (s *Server) logPrediction(features []bool, resp predictResponse) {
	if s.PredictionLog == nil {
		return
	}
	rec := struct {
		TS        time.Time `json:"ts"`
		Features  string    `json:"features"`
		Class     int       `json:"class"`
		ClassName string    `json:"class_name"`
		Certain   bool      `json:"certain"`
	}{TS: time.Now(), Features: dataset.Bits(features), Class: resp.Class, ClassName: resp.ClassName, Certain: resp.Certain}

	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[WARN] can't marshal prediction log record: %v", err)
		return
	}
	s.logLock.Lock()
	defer s.logLock.Unlock()
	if _, err := s.PredictionLog.Write(append(data, '\n')); err != nil {
		log.Printf("[WARN] can't write prediction log: %v", err)
	}
}

// modelHandler handles GET /model request, returns schema and current model parameters
func (s *Server) modelHandler(w http.ResponseWriter, _ *http.Request) {
	params := s.Trainer.Snapshot()
	schema := s.Trainer.Schema()

	likelihoods := make([][]nullFloats, len(params.LogLikelihoods))
	for k, row := range params.LogLikelihoods {
		likelihoods[k] = make([]nullFloats, len(row))
		for d, pair := range row {
			likelihoods[k][d] = nullFloats{pair[0], pair[1]}
		}
	}

	rest.RenderJSON(w, rest.JSON{
		"name":            schema.Name,
		"features":        schema.Features,
		"classes":         schema.Classes,
		"trained":         params.Trained,
		"generation":      s.Trainer.Generation(),
		"log_priors":      nullFloats(params.LogPriors),
		"log_likelihoods": likelihoods, // [class][feature][false, true]
	})
}

// getSamplesHandler handles GET /samples request, returns user samples
func (s *Server) getSamplesHandler(w http.ResponseWriter, r *http.Request) {
	samples, err := s.Trainer.Samples(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't get samples", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, rest.JSON{"samples": samples, "count": len(samples)})
}

// updateSampleHandler handles POST and DELETE /samples requests. Sample label can be set by index
// or by class name, i.e. {"features": [true, false], "class": "survived"}
func (s *Server) updateSampleHandler(op string,
	updFn func(ctx context.Context, sample dataset.Sample) (trainer.LoadResult, error)) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		req := struct {
			Features []bool `json:"features"`
			Label    *int   `json:"label"`
			Class    string `json:"class"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
			return
		}

		sample := dataset.Sample{Features: req.Features}
		switch {
		case req.Label != nil:
			sample.Label = *req.Label
		case req.Class != "":
			if sample.Label = s.Trainer.Schema().ClassIndex(req.Class); sample.Label < 0 {
				w.WriteHeader(http.StatusBadRequest)
				rest.RenderJSON(w, rest.JSON{"error": "unknown class", "details": req.Class})
				return
			}
		default:
			w.WriteHeader(http.StatusBadRequest)
			rest.RenderJSON(w, rest.JSON{"error": "label or class is required"})
			return
		}

		lr, err := updFn(r.Context(), sample)
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, trainer.ErrInvalidSample) {
				code = http.StatusBadRequest
			}
			w.WriteHeader(code)
			rest.RenderJSON(w, rest.JSON{"error": "can't " + op + " sample", "details": err.Error()})
			return
		}
		rest.RenderJSON(w, rest.JSON{"updated": true, "op": op, "sample": sample, "samples": lr})
	}
}

// reloadSamplesHandler handles PUT /samples request, reloads all samples and retrains the model
func (s *Server) reloadSamplesHandler(w http.ResponseWriter, r *http.Request) {
	lr, err := s.Trainer.Reload(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't reload samples", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, rest.JSON{"reloaded": true, "samples": lr})
}

// evaluateHandler handles GET /evaluate?ratio=0.2&seed=1 request
func (s *Server) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	ratio, seed := 0.2, int64(1)
	var err error
	if v := r.URL.Query().Get("ratio"); v != "" {
		if ratio, err = strconv.ParseFloat(v, 64); err != nil || math.IsNaN(ratio) || ratio <= 0 || ratio >= 1 {
			w.WriteHeader(http.StatusBadRequest)
			rest.RenderJSON(w, rest.JSON{"error": "ratio must be a number in (0, 1)", "details": v})
			return
		}
	}
	if v := r.URL.Query().Get("seed"); v != "" {
		if seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			rest.RenderJSON(w, rest.JSON{"error": "seed must be an integer", "details": v})
			return
		}
	}

	res, err := s.Trainer.Evaluate(r.Context(), ratio, seed)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't evaluate", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, res)
}

func (s *Server) authMiddleware(mw func(next http.Handler) http.Handler) func(next http.Handler) http.Handler {
	if s.AuthPasswd == "" {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return mw
}

// nullFloats renders -Inf, +Inf and NaN as null, json has no representation for them
type nullFloats []float64

// MarshalJSON implements json.Marshaler
func (nf nullFloats) MarshalJSON() ([]byte, error) {
	if nf == nil {
		return []byte("null"), nil
	}
	res := make([]*float64, len(nf))
	for i, v := range nf {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		res[i] = &v
	}
	return json.Marshal(res)
}
