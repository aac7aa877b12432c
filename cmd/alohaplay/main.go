package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/lanikai/alohaplay"
	"github.com/lanikai/alohaplay/internal/audio"
	"github.com/lanikai/alohaplay/internal/config"
	"github.com/lanikai/alohaplay/internal/logging"
	"github.com/lanikai/alohaplay/internal/probe"
	"github.com/lanikai/alohaplay/internal/status"
)

// Populated via -ldflags="-X ...".
var GitRevisionId string
var GitTag string

var log = logging.DefaultLogger.WithTag("main")

var (
	flagConfig  string
	flagProbe   bool
	flagSilent  bool
	flagTick    time.Duration
	flagHelp    bool
	flagVersion bool
)

func init() {
	flag.StringVarP(&flagConfig, "config", "c", "", "Configuration file")
	flag.String("backend", "", "Decode backend")
	flag.IntP("width", "x", 0, "Output width")
	flag.IntP("height", "y", 0, "Output height")
	flag.Int("prebuffer", 30, "Frames buffered before playback")
	flag.Bool("audio", true, "Play audio")
	flag.String("status", "", "Status server address")
	flag.String("log-level", "info", "Log level")
	flag.BoolVar(&flagProbe, "probe", false, "Print streams and exit")
	flag.BoolVar(&flagSilent, "silent", false, "Consume audio without a sound card")
	flag.DurationVar(&flagTick, "tick", 10*time.Millisecond, "Render loop period")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
	flag.Usage = help
}

func main() {
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}
	if flagVersion {
		version()
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		help()
		os.Exit(2)
	}
	uri := flag.Arg(0)

	cfg, err := config.Load(flagConfig, flag.CommandLine)
	if err != nil {
		log.Fatal(err)
	}
	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.SetLevel(level)

	if flagProbe {
		report, err := probe.Open(uri, 0)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(report)
		return
	}

	engine := cfg.Player()
	if flagSilent {
		engine.AudioDevice = audio.NewTickerDevice(engine.AudioDeviceBuffer)
	}
	if flagTick <= 0 {
		log.Fatalf("--tick must be positive, got %v", flagTick)
	}

	vp := alohaplay.NewVideoPlayer(uri, engine)
	vp.ID = "headless"
	var mu sync.Mutex

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return run(ctx, vp, &mu)
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			log.Info("Received %v, stopping", sig)
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if cfg.Status.Addr != "" {
		srv := status.NewServer(func() status.Snapshot {
			mu.Lock()
			defer mu.Unlock()
			return status.Capture(vp)
		}, cfg.Status.Interval)
		g.Go(func() error {
			return srv.Run(ctx, cfg.Status.Addr)
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Println()
		log.Fatal(err)
	}
	fmt.Println()
}

// run drives vp from a fixed-period ticker until playback finishes or ctx is
// cancelled.
func run(ctx context.Context, vp *alohaplay.VideoPlayer, mu *sync.Mutex) error {
	mu.Lock()
	vp.State = alohaplay.Start
	vp.Update(0)
	player := vp.Player()
	mu.Unlock()
	if player == nil {
		return errors.Errorf("cannot play %s", vp.URI)
	}

	ticker := time.NewTicker(flagTick)
	defer ticker.Stop()

	var frames int
	last := time.Now()
	lastReport := last
	for {
		select {
		case <-ctx.Done():
			return stop(vp, mu)

		case now := <-ticker.C:
			finished := player.Finished()
			mu.Lock()
			if f := vp.Update(now.Sub(last)); f != nil {
				frames++
			}
			if finished || now.Sub(lastReport) >= time.Second {
				report(vp, frames)
				lastReport = now
			}
			mu.Unlock()
			last = now

			if finished {
				if err := player.Err(); err != nil {
					stop(vp, mu)
					return err
				}
				return stop(vp, mu)
			}
		}
	}
}

func stop(vp *alohaplay.VideoPlayer, mu *sync.Mutex) error {
	mu.Lock()
	vp.State = alohaplay.Stop
	vp.Update(0)
	mu.Unlock()

	select {
	case <-vp.Player().Done():
		return nil
	case <-time.After(2 * time.Second):
		return errors.New("decoder did not stop")
	}
}

// report prints one status line. Callers hold the lock serializing vp.
func report(vp *alohaplay.VideoPlayer, frames int) {
	state := color.New(color.FgCyan).Sprint(vp.State)
	stats := vp.Player().Stats()
	fmt.Printf("\r%-8s %7.2f / %7.2f s  %3.0f%%  frames %d  queued %d  underruns %d ",
		state, vp.Position(), vp.Duration(), vp.Progress()*100,
		frames, stats.QueuedFrames, stats.Underruns)
}
