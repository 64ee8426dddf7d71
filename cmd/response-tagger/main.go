package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	responsetagger "github.com/response-tagger/response-tagger"
	"github.com/response-tagger/response-tagger/pkg/normalizer"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	portFlag           int
	originFlag         string
	configFilenameFlag string
	cacheControlFlag   string
	sessionHeaderFlag  string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&originFlag, "origin", "", "Origin URL to proxy to (overrides config)")
	flag.IntVar(&portFlag, "port", 0, "Port to listen on (default 8080)")
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&cacheControlFlag, "cache-control", "", "Default Cache-Control header (overrides config)")
	flag.StringVar(&sessionHeaderFlag, "session-header", "", "Request header carrying the session identifier")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	var config Config
	if configFilenameFlag != "" {
		var err error
		config, err = getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot read config file")
		}
	}

	// flags override config
	if originFlag != "" {
		config.Origin = originFlag
	}
	if cacheControlFlag != "" {
		config.CacheControl = cacheControlFlag
	}
	if sessionHeaderFlag != "" {
		config.SessionHeader = sessionHeaderFlag
	}
	if portFlag > 0 {
		config.Port = portFlag
	}
	if config.Port <= 0 {
		config.Port = 8080
	}

	if config.Origin == "" {
		log.Fatal().Msg("Please specify origin")
	}
	originURL, err := url.Parse(config.Origin)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse origin url")
	}

	tagger := responsetagger.New(taggerConfig(config))

	proxy := &httputil.ReverseProxy{
		Director:       createDirector(originURL),
		ModifyResponse: tagger.ModifyResponse,
	}

	router := chi.NewRouter()
	router.Use(requestLogger)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Handle("/*", proxy)

	log.Info().Msgf("Tagging responses on port %v for origin %s", config.Port, originURL.String())
	if err := http.ListenAndServe(fmt.Sprintf(":%d", config.Port), router); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}

// taggerConfig translates the file/flag config into the library config.
func taggerConfig(config Config) responsetagger.Config {
	taggerCfg := responsetagger.Config{}

	if config.CacheControl != "" {
		taggerCfg.CacheControl = responsetagger.CacheControlValue(config.CacheControl)
	}
	if config.NoDigestCacheControl != "" {
		taggerCfg.NoDigestCacheControl = responsetagger.CacheControlValue(config.NoDigestCacheControl)
	}
	if config.SessionHeader != "" {
		header := config.SessionHeader
		taggerCfg.SessionFunc = func(r *http.Request) string {
			return r.Header.Get(header)
		}
	}
	if len(config.Rules) > 0 {
		extra, err := normalizer.Parse(config.Rules)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot compile normalization rules")
		}
		taggerCfg.Rules = append(normalizer.Default(), extra...)
	}

	return taggerCfg
}

func createDirector(origin *url.URL) func(req *http.Request) {
	return func(req *http.Request) {
		req.URL.Scheme = origin.Scheme
		req.URL.Host = origin.Host
		req.Host = origin.Host
	}
}

// requestLogger attaches a correlation id to each request's logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.With().
			Str("requestId", uuid.NewString()).
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Logger()
		logger.Debug().Msg("Handling request")
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}
