package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/fileutils"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/amck/mlmodels/app/storage"
	"github.com/amck/mlmodels/app/storage/engine"
	"github.com/amck/mlmodels/app/trainer"
	"github.com/amck/mlmodels/app/webapi"
	"github.com/amck/mlmodels/lib/dataset"
)

type options struct {
	Files struct {
		Schema        string        `long:"schema" env:"SCHEMA" default:"data/schema.yml" description:"dataset schema, yaml"`
		Preset        []string      `long:"preset" env:"PRESET" env-delim:"," default:"data/samples.txt" description:"preset samples files"`
		Dynamic       string        `long:"dynamic" env:"DYNAMIC" default:"data/samples-dynamic.txt" description:"user samples file, used if db is not set"`
		WatchInterval time.Duration `long:"watch-interval" env:"WATCH_INTERVAL" default:"5s" description:"delay before reload on samples change"`
	} `group:"files" namespace:"files" env-namespace:"FILES"`

	DB struct {
		URL     string        `long:"url" env:"URL" description:"user samples database, sqlite file or postgres url"`
		GID     string        `long:"gid" env:"GID" description:"dataset id in the database, schema name if not set"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"5s" description:"database operations timeout"`
		Import  string        `long:"import" env:"IMPORT" description:"import user samples file into the database"`
		Export  string        `long:"export" env:"EXPORT" description:"export sqlite samples as postgres script to this file"`
	} `group:"db" namespace:"db" env-namespace:"DB"`

	Server struct {
		Enabled    bool          `long:"enabled" env:"ENABLED" description:"enable web server"`
		ListenAddr string        `long:"listen" env:"LISTEN" default:":8080" description:"listen address"`
		AuthPasswd string        `long:"auth" env:"AUTH" default:"" description:"basic auth password for user mlmodels"`
		RateLimit  float64       `long:"rate-limit" env:"RATE_LIMIT" default:"50" description:"max requests per second from a single ip"`
		CacheSize  int           `long:"cache-size" env:"CACHE_SIZE" default:"1000" description:"max cached predictions, 0 to disable"`
		CacheTTL   time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"10m" description:"cached prediction ttl"`
	} `group:"server" namespace:"server" env-namespace:"SERVER"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable rotated predictions log"`
		FileName   string `long:"file" env:"FILE" default:"predictions.log" description:"location of predictions log"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	Predict string `long:"predict" env:"PREDICT" description:"classify comma separated features and exit, i.e. 1,0,1"`

	Eval struct {
		Ratio float64 `long:"ratio" env:"RATIO" description:"evaluate model on this share of samples and exit"`
		Seed  int64   `long:"seed" env:"SEED" default:"1" description:"random seed for evaluation split"`
	} `group:"eval" namespace:"eval" env-namespace:"EVAL"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("mlmodels %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	setupLog(opts.Dbg, opts.Server.AuthPasswd, opts.DB.URL)
	log.Printf("[DEBUG] options: %+v", opts)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	schema, err := loadSchema(opts.Files.Schema)
	if err != nil {
		return err
	}

	store, closeStore, err := makeSampleStore(ctx, opts, schema)
	if err != nil {
		return fmt.Errorf("can't make samples store, %w", err)
	}
	defer closeStore()

	tr, err := trainer.New(trainer.Config{Schema: schema, PresetFiles: opts.Files.Preset, Store: store,
		WatchDelay: opts.Files.WatchInterval})
	if err != nil {
		return fmt.Errorf("can't make trainer, %w", err)
	}
	if _, err = tr.Reload(ctx); err != nil {
		return fmt.Errorf("can't load samples, %w", err)
	}

	switch {
	case opts.Predict != "":
		return predict(tr, opts.Predict)
	case opts.Eval.Ratio > 0:
		return evaluate(ctx, tr, opts.Eval.Ratio, opts.Eval.Seed)
	case !opts.Server.Enabled:
		return printModel(ctx, tr, store)
	}

	go func() {
		if werr := tr.Watch(ctx); werr != nil {
			log.Printf("[WARN] samples file watcher failed: %v", werr)
		}
	}()

	predLog, err := makePredictionLogWriter(opts)
	if err != nil {
		return fmt.Errorf("can't make predictions log writer, %w", err)
	}
	defer predLog.Close()

	srv := webapi.NewServer(webapi.Config{
		Version:       revision,
		ListenAddr:    opts.Server.ListenAddr,
		Trainer:       tr,
		AuthPasswd:    opts.Server.AuthPasswd,
		RateLimit:     opts.Server.RateLimit,
		CacheSize:     opts.Server.CacheSize,
		CacheTTL:      opts.Server.CacheTTL,
		PredictionLog: predLog,
		Dbg:           opts.Dbg,
	})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("web server failed, %w", err)
	}
	return nil
}

func loadSchema(file string) (dataset.Schema, error) {
	if !fileutils.IsFile(file) {
		return dataset.Schema{}, fmt.Errorf("schema file %q not found", file)
	}
	fh, err := os.Open(file) //nolint:gosec // file name is set by cli
	if err != nil {
		return dataset.Schema{}, fmt.Errorf("can't open schema, %w", err)
	}
	defer fh.Close()

	schema, err := dataset.LoadSchema(fh)
	if err != nil {
		return dataset.Schema{}, fmt.Errorf("can't load schema from %s, %w", file, err)
	}
	log.Printf("[INFO] schema %q loaded, features: %d, classes: %v", schema.Name, schema.InputDimension(), schema.Classes)
	return schema, nil
}

// makeSampleStore makes user samples store, database if db url is set, file otherwise
func makeSampleStore(ctx context.Context, opts options, schema dataset.Schema) (trainer.SampleStore, func(), error) {
	if opts.DB.URL == "" {
		log.Printf("[INFO] user samples file: %s", opts.Files.Dynamic)
		return trainer.NewFileUpdater(opts.Files.Dynamic), func() {}, nil
	}

	gid := opts.DB.GID
	if gid == "" {
		gid = schema.Name
	}
	db, err := engine.New(ctx, opts.DB.URL, gid)
	if err != nil {
		return nil, nil, fmt.Errorf("can't connect to database, %w", err)
	}
	closeDB := func() {
		if cerr := db.Close(); cerr != nil {
			log.Printf("[WARN] can't close database, %v", cerr)
		}
	}

	samples, err := storage.NewSamples(ctx, db)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("can't make samples storage, %w", err)
	}

	if opts.DB.Import != "" {
		if err := importSamples(ctx, samples, opts.DB.Import); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	if opts.DB.Export != "" {
		if err := exportSamples(ctx, db, opts.DB.Export); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	log.Printf("[INFO] user samples database: %s, gid: %s", db.Type(), gid)
	return storage.NewSampleUpdater(samples, opts.DB.Timeout), closeDB, nil
}

func importSamples(ctx context.Context, samples *storage.Samples, file string) error {
	fh, err := os.Open(file) //nolint:gosec // file name is set by cli
	if err != nil {
		return fmt.Errorf("can't open samples to import, %w", err)
	}
	defer fh.Close()

	stats, err := samples.Import(ctx, storage.SampleOriginUser, fh, false)
	if err != nil {
		return fmt.Errorf("can't import samples from %s, %w", file, err)
	}
	log.Printf("[INFO] imported samples from %s, %s", file, stats)
	return nil
}

// exportSamples writes samples table of sqlite database as postgres script
func exportSamples(ctx context.Context, db *engine.SQL, file string) error {
	fh, err := os.Create(file) //nolint:gosec // file name is set by cli
	if err != nil {
		return fmt.Errorf("can't create export file, %w", err)
	}
	if err := engine.NewConverter(db).SqliteToPostgres(ctx, fh, "samples"); err != nil {
		_ = fh.Close()
		return fmt.Errorf("can't export samples to %s, %w", file, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("can't close export file, %w", err)
	}
	log.Printf("[INFO] samples exported to %s", file)
	return nil
}

// predict classifies a single input and prints the result
func predict(tr *trainer.Trainer, features string) error {
	input, err := dataset.ParseFeatures(features)
	if err != nil {
		return fmt.Errorf("can't parse features, %w", err)
	}
	p, err := tr.Classify(input)
	if err != nil {
		return fmt.Errorf("can't classify, %w", err)
	}

	schema := tr.Schema()
	if p.Class < 0 {
		fmt.Println("class: none, all scores are -Inf or NaN")
	} else {
		fmt.Printf("class: %d (%s), certain: %v\n", p.Class, schema.ClassName(p.Class), p.Certain)
	}
	for k, s := range p.Scores {
		fmt.Printf("  %-12s score: %9.4f, probability: %.4f\n", schema.ClassName(k), s, p.Probabilities[k])
	}
	return nil
}

// evaluate runs hold-out evaluation and prints accuracy and confusion matrix
func evaluate(ctx context.Context, tr *trainer.Trainer, ratio float64, seed int64) error {
	res, err := tr.Evaluate(ctx, ratio, seed)
	if err != nil {
		return fmt.Errorf("can't evaluate, %w", err)
	}
	schema := tr.Schema()
	fmt.Printf("train: %d, test: %d, accuracy: %.4f, unclassified: %d\n", res.TrainSamples, res.TestSamples, res.Accuracy, res.Unclassified)
	for truth, row := range res.Confusion {
		fmt.Printf("  %-12s %v\n", schema.ClassName(truth), row)
	}
	return nil
}

// printModel prints model summary, with samples statistics for the database store
func printModel(ctx context.Context, tr *trainer.Trainer, store trainer.SampleStore) error {
	params := tr.Snapshot()
	schema := tr.Schema()
	fmt.Printf("model %q, features: %d, classes: %d\n", schema.Name, params.InputDimension, params.NumberOfClasses)
	for k, lp := range params.LogPriors {
		fmt.Printf("  %-12s log prior: %9.4f\n", schema.ClassName(k), lp)
	}

	db, ok := store.(interface {
		Stats(ctx context.Context) (*storage.SamplesStats, error)
	})
	if !ok {
		return nil
	}
	stats, err := db.Stats(ctx)
	if err != nil {
		return fmt.Errorf("can't get samples stats, %w", err)
	}
	fmt.Printf("database samples, %s\n", stats)
	return nil
}

// makePredictionLogWriter creates predictions log writer
// it parses options and makes lumberjack logger with rotation
func makePredictionLogWriter(opts options) (io.WriteCloser, error) {
	if !opts.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	sizeParse := func(inp string) (uint64, error) {
		if inp == "" {
			return 0, errors.New("empty value")
		}
		for i, sfx := range []string{"k", "m", "g", "t"} {
			if strings.HasSuffix(inp, strings.ToUpper(sfx)) || strings.HasSuffix(inp, strings.ToLower(sfx)) {
				val, err := strconv.Atoi(inp[:len(inp)-1])
				if err != nil {
					return 0, fmt.Errorf("can't parse %s: %w", inp, err)
				}
				return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
			}
		}
		return strconv.ParseUint(inp, 10, 64)
	}

	maxSize, err := sizeParse(opts.Logger.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", err)
	}
	maxSize /= 1048576

	log.Printf("[INFO] predictions log enabled for %s, max size %dM", opts.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   opts.Logger.FileName,
		MaxSize:    int(maxSize), // in MB
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

func setupLog(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	nonEmpty := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
