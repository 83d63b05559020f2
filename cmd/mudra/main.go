package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/health"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/output"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
	"github.com/ayusman/mudra/internal/tui"
)

var version = "dev"

const shutdownTimeout = 5 * time.Second

type options struct {
	addr     string
	grpcAddr string
	camera   string
	model    string
	logLevel string
	tray     bool
	tui      bool
	demo     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides MUDRA_LISTEN_ADDR)")
	flag.StringVar(&opts.grpcAddr, "grpc", "", "gRPC health listen address, empty disables it")
	flag.StringVar(&opts.camera, "camera", "", "Capture device index or video file")
	flag.StringVar(&opts.model, "model", "", "ONNX letter model; without one, stored templates are used")
	flag.StringVar(&opts.logLevel, "log", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.tray, "tray", false, "Show a system tray menu")
	flag.BoolVar(&opts.tui, "tui", false, "Run with terminal UI")
	flag.BoolVar(&opts.demo, "demo", false, "Spell a scripted word without a camera or model")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("mudra " + version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Loader{EnvFile: config.DefaultEnvFile}.Load()
	if err != nil {
		return err
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	log, closeLog, err := newLogger(cfg, opts.tui)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if opts.demo {
		// Scripted letters must not be typed into whatever window has focus.
		cfg.Keyboard = false
	}

	plugins := plugin.NewManager(cfg.Plugins(), log)
	if err := plugins.Discover(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Plugins()).Msg("plugin discovery failed")
	}
	hooks := plugin.NewSink(plugins, plugin.NewExecutor(plugin.DefaultTimeout), log)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hooks.Close(ctx)
	}()

	appCfg := app.Config{
		Confirm: cfg.Confirm(),
		FPS:     cfg.FPS,
		Mirror:  cfg.Mirror,
		Store:   st,
		Speaker: newSpeaker(cfg),
		Sinks:   append(newSinks(cfg, log), hooks),
		Logger:  log,
	}

	if opts.demo {
		demo(&appCfg, cfg)
		log.Info().Msg("demo mode: spelling a scripted word")
	} else {
		appCfg.Camera = capture.NewSourceCamera(capture.Source(cfg.Camera))
		if cfg.ModelPath != "" {
			clf, err := classifier.NewONNXClassifier(classifier.ONNXConfig{
				ModelPath: cfg.ModelPath,
				Labels:    cfg.Labels,
			})
			if err != nil {
				return fmt.Errorf("load model: %w", err)
			}
			appCfg.Classifier = clf
			log.Info().Str("model", cfg.ModelPath).Int("labels", len(cfg.Labels)).Msg("using ONNX classifier")
		}
	}

	application, err := app.New(appCfg)
	if err != nil {
		return err
	}
	if err := application.LoadTemplates(); err != nil {
		log.Warn().Err(err).Msg("failed to load templates")
	}
	if err := application.Start(); err != nil {
		application.Stop()
		return fmt.Errorf("start pipeline: %w", err)
	}
	// Only the tray can switch detection back on.
	application.SetEnabled(!opts.tray || application.SavedEnabled())
	defer application.Stop()

	sess := application.Session()

	webDir := findWebDir(cfg)
	if webDir != "" {
		log.Info().Str("dir", webDir).Msg("serving static files")
	}
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Session:   sess,
		Frames:    application.Frames(),
		Matcher:   application.Matcher(),
		Logger:    log,
	})
	httpServer := srv.HTTPServer(cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hs, errCh, err := serve(httpServer, cfg.GRPCAddr, log)
	if err != nil {
		return err
	}

	switch {
	case opts.tui:
		err = runTUI(ctx, stop, sess, errCh)
	case opts.tray:
		err = runTray(ctx, stop, application, cfg, errCh, log)
	default:
		select {
		case <-ctx.Done():
		case err = <-errCh:
		}
	}
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if hs != nil {
		hs.SetServing(false)
		hs.Stop(shutdownCtx)
	}
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("http shutdown")
	}
	return err
}

// serve starts the gRPC health service, when grpcAddr is set, and then
// the HTTP server. Server failures arrive on the returned channel. If the
// health listener cannot bind, nothing is left running.
func serve(httpServer *http.Server, grpcAddr string, log zerolog.Logger) (*health.Server, <-chan error, error) {
	errCh := make(chan error, 2)

	var hs *health.Server
	if grpcAddr != "" {
		var err error
		hs, err = health.Listen(grpcAddr, log)
		if err != nil {
			return nil, nil, err
		}
		go func() {
			if err := hs.Serve(); err != nil {
				errCh <- fmt.Errorf("grpc health: %w", err)
			}
		}()
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if hs != nil {
		hs.SetServing(true)
	}
	return hs, errCh, nil
}

func (o options) apply(cfg *config.Config) {
	if o.addr != "" {
		cfg.ListenAddr = o.addr
	}
	if o.grpcAddr != "" {
		cfg.GRPCAddr = o.grpcAddr
	}
	if o.camera != "" {
		cfg.Camera = o.camera
	}
	if o.model != "" {
		cfg.ModelPath = o.model
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
}

// newLogger writes to stderr, or to a file in the data directory when the
// terminal UI owns the screen.
func newLogger(cfg config.Config, toFile bool) (zerolog.Logger, func(), error) {
	if !toFile {
		return logging.New(cfg.LogLevel, os.Stderr), func() {}, nil
	}
	f, err := os.OpenFile(filepath.Join(cfg.DataDir, "mudra.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.New(cfg.LogLevel, f), func() { f.Close() }, nil
}

func newSpeaker(cfg config.Config) speech.Speaker {
	if cfg.TTSURL != "" {
		return speech.NewHTTPSpeaker(cfg.TTSURL, cfg.TTSToken)
	}
	return speech.NewCommandSpeaker(cfg.TTSCommand)
}

func newSinks(cfg config.Config, log zerolog.Logger) []output.Sink {
	var sinks []output.Sink
	if cfg.Clipboard {
		if output.Available() {
			sinks = append(sinks, output.NewClipboardSink(false))
		} else {
			log.Warn().Msg("clipboard not available, sink disabled")
		}
	}
	if cfg.Keyboard {
		kb, err := output.NewKeyboardSink()
		if err != nil {
			log.Warn().Err(err).Msg("virtual keyboard not available, sink disabled")
		} else {
			sinks = append(sinks, kb)
		}
	}
	return sinks
}

// demo replaces the camera, detector and classifier with scripted ones
// that spell the word HELLO followed by a space, over and over.
func demo(appCfg *app.Config, cfg config.Config) {
	hands := detector.NewMockDetector()
	hands.SetHands([]detector.HandLandmarks{detector.LetterALandmarks()})

	// Gap frames span the cooldown so each letter is confirmed once.
	hold := cfg.FPS
	gap := int(cfg.Cooldown.Seconds()*float64(cfg.FPS)) + 1

	appCfg.Camera = capture.NewBlankCamera()
	appCfg.Detector = hands
	appCfg.Classifier = classifier.NewSequence(classifier.Spell([]string{"H", "E", "L", "L", "O", "Space"}, 0.95, hold, gap)...)
}

func runTUI(ctx context.Context, stop context.CancelFunc, sess *session.Session, errCh <-chan error) error {
	tuiErr := make(chan error, 1)
	go func() { tuiErr <- tui.Run(ctx, sess) }()

	select {
	case err := <-tuiErr:
		if ctx.Err() != nil {
			return nil
		}
		stop()
		return err
	case err := <-errCh:
		stop()
		<-tuiErr
		return err
	}
}

func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, cfg config.Config, errCh <-chan error, log zerolog.Logger) error {
	t := tray.New()
	t.SetEnabled(a.IsEnabled())
	sess := a.Session()

	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		log.Info().Bool("enabled", enabled).Msg("detection toggled")
	})
	t.OnSpeak(func() { sess.Speak() })
	t.OnClear(sess.Clear)
	t.OnOpen(func() {
		if err := openBrowser(browserURL(cfg.ListenAddr)); err != nil {
			log.Warn().Err(err).Msg("failed to open browser")
		}
	})
	t.OnQuit(stop)

	events, cancel := sess.Subscribe(16)
	defer cancel()
	go func() {
		for ev := range events {
			t.Handle(ev)
		}
	}()

	result := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
			result <- nil
		case err := <-errCh:
			stop()
			result <- err
		}
		t.Quit()
	}()

	// Blocks until Quit.
	t.Run()
	stop()
	return <-result
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

// findWebDir searches for the web directory: the configured one, then the
// usual locations relative to the working directory, then ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(cfg config.Config) string {
	candidates := []string{cfg.WebDir, "web", "../web", "../../web", filepath.Join(cfg.DataDir, "web")}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
