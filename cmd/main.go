package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aukilabs/collide/featureflag"
	chttp "github.com/aukilabs/collide/http"
	"github.com/aukilabs/collide/models"
	"github.com/aukilabs/collide/report"
	"github.com/aukilabs/collide/smoketest"
	"github.com/aukilabs/collide/spatial"
	cwebsocket "github.com/aukilabs/collide/websocket"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The collide version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "collide_info",
		Help:        "Collide information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"COLLIDE_ADDR"                 help:"Listening address for stream clients and the debug API."`
	AdminAddr          string        `cli:""        env:"COLLIDE_ADMIN_ADDR"           help:"Admin listening address."`
	LogLevel           string        `cli:""        env:"COLLIDE_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"COLLIDE_LOG_INDENT"           help:"Indent logs."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"COLLIDE_LOG_SUMMARY_INTERVAL" help:"The duration between each frame and stream client log summary."`
	World              worldConfig   `cli:""        env:"-"                            help:"World configuration."`
	Sprites            spritesConfig `cli:""        env:"-"                            help:"Random sprites configuration."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"COLLIDE_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle stream client will be disconnected."`
	StreamQueueSize    int           `cli:",hidden" env:"COLLIDE_STREAM_QUEUE_SIZE"    help:"The number of frames queued per stream client before frames are dropped."`
	FeatureFlags       []string      `cli:",hidden" env:"COLLIDE_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                            help:"Show version."`
	Help               bool          `cli:""        env:"-"                            help:"Show help."`
}

type worldConfig struct {
	Name          string        `cli:""        env:"COLLIDE_WORLD_NAME"           help:"The world name, used as metrics label."`
	Width         float64       `cli:""        env:"COLLIDE_WORLD_WIDTH"          help:"The world width."`
	Height        float64       `cli:""        env:"COLLIDE_WORLD_HEIGHT"         help:"The world height."`
	Levels        int           `cli:""        env:"COLLIDE_WORLD_LEVELS"         help:"The number of collision tree levels below the root."`
	SplitRatioH   float64       `cli:",hidden" env:"COLLIDE_WORLD_SPLIT_RATIO_H"  help:"The horizontal split ratio of the collision tree nodes."`
	SplitRatioV   float64       `cli:",hidden" env:"COLLIDE_WORLD_SPLIT_RATIO_V"  help:"The vertical split ratio of the collision tree nodes."`
	FrameDuration time.Duration `cli:",hidden" env:"COLLIDE_WORLD_FRAME_DURATION" help:"The duration of a world frame."`
}

type spritesConfig struct {
	Count     int     `cli:""        env:"COLLIDE_SPRITES_COUNT"      help:"The number of random sprites spawned at start."`
	RectRatio float64 `cli:",hidden" env:"COLLIDE_SPRITES_RECT_RATIO" help:"The share of rectangles among the random sprites."`
	MinSize   float64 `cli:",hidden" env:"COLLIDE_SPRITES_MIN_SIZE"   help:"The minimum radius or half extent of a random sprite."`
	MaxSize   float64 `cli:",hidden" env:"COLLIDE_SPRITES_MAX_SIZE"   help:"The maximum radius or half extent of a random sprite."`
	MaxSpeed  float64 `cli:",hidden" env:"COLLIDE_SPRITES_MAX_SPEED"  help:"The maximum speed of a random sprite, in units per second."`
	Seed      int64   `cli:",hidden" env:"COLLIDE_SPRITES_SEED"       help:"The random seed. Zero uses the current time."`
}

func main() {
	conf := config{
		Addr:               ":4100",
		AdminAddr:          ":18191",
		LogLevel:           logs.InfoLevel.String(),
		LogSummaryInterval: time.Minute,
		World: worldConfig{
			Name:          "default",
			Width:         1000,
			Height:        1000,
			Levels:        5,
			SplitRatioH:   spatial.DefaultSplitRatio,
			SplitRatioV:   spatial.DefaultSplitRatio,
			FrameDuration: time.Millisecond * 15,
		},
		Sprites: spritesConfig{
			Count:     500,
			RectRatio: 0.3,
			MinSize:   2,
			MaxSize:   8,
			MaxSpeed:  60,
		},
		ClientIdleTimeout: time.Minute * 5,
		StreamQueueSize:   16,
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts a collide server simulating bouncing sprites.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	featureFlags := featureflag.New(conf.FeatureFlags)

	world, err := models.NewWorld(models.WorldConfig{
		Name: conf.World.Name,
		Region: spatial.Region{
			Width:  conf.World.Width,
			Height: conf.World.Height,
		},
		Levels:         conf.World.Levels,
		SplitRatioH:    conf.World.SplitRatioH,
		SplitRatioV:    conf.World.SplitRatioV,
		DisablePruning: featureFlags.IsSet(featureflag.FlagDisableSubtreePruning),
		FrameDuration:  conf.World.FrameDuration,
	})
	if err != nil {
		logs.Fatal(errors.New("creating world failed").Wrap(err))
	}
	defer world.Close()

	if err := spawnRandomSprites(world, conf.Sprites); err != nil {
		logs.Fatal(errors.New("spawning sprites failed").Wrap(err))
	}

	hub := &cwebsocket.Hub{
		World:     world.Name,
		WorldUUID: world.UUID,
		QueueSize: conf.StreamQueueSize,
	}
	defer hub.Close()

	featureFlags.IfNotSet(featureflag.FlagDisableFrameStream, func() {
		world.OnFrame(func(r models.FrameReport) {
			hub.Publish(r)
		})
	})

	reportHandler := report.Handler{
		World:      world.Name,
		Interval:   conf.LogSummaryInterval,
		ReportChan: make(chan models.FrameReport, 128),
	}
	featureFlags.IfNotSet(featureflag.FlagDisableIndexVerify, func() {
		reportHandler.Verify = world.Verify
	})
	reportHandler.HandleReports(ctx)
	world.OnFrame(func(r models.FrameReport) {
		reportHandler.Enqueue(r)
	})

	var running atomic.Bool
	readinessCheck := running.Load

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		running.Store(true)
		defer running.Store(false)

		err := world.Run(ctx)
		if err != nil && err != context.Canceled {
			logs.Error(errors.New("running world failed").Wrap(err))
		}
	}()

	var service http.ServeMux
	service.Handle("/health", chttp.HandleWithCORS(http.HandlerFunc(chttp.HandleHealthCheck)))
	service.Handle("/ready", chttp.HandleWithCORS(http.HandlerFunc(chttp.HandleReadyCheck(readinessCheck))))
	service.Handle("/version", chttp.HandleWithCORS(http.HandlerFunc(chttp.HandleVersion(version))))
	service.Handle("/debug/index", chttp.HandleWithCORS(chttp.HandleIndexDebug(world)))
	service.Handle("/smoke-test", chttp.HandleWithCORS(smoketest.HandleSmokeTest()))
	service.Handle("/stream", websocket.Server{
		Handler: cwebsocket.HandleStream(ctx, hub, cwebsocket.StreamOptions{
			ClientIdleTimeout:  conf.ClientIdleTimeout,
			LogSummaryInterval: conf.LogSummaryInterval,
		}),
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", chttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", chttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("world", world.Name).
		WithTag("world_uuid", world.UUID).
		WithTag("levels", conf.World.Levels).
		WithTag("sprite_count", world.SpriteCount()).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting collide server")

	chttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			chttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)

	world.Close()
	wg.Wait()
}

func spawnRandomSprites(world *models.World, conf spritesConfig) error {
	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	between := func(min, max float64) float64 {
		return min + rnd.Float64()*(max-min)
	}

	for i := 0; i < conf.Count; i++ {
		size := between(conf.MinSize, conf.MaxSize)

		spec := models.SpriteSpec{
			Kind: spatial.ShapeCircle,
			Position: spatial.Point{
				X: between(size, world.Region.Width-size),
				Y: between(size, world.Region.Height-size),
			},
			Velocity: spatial.Point{
				X: between(-conf.MaxSpeed, conf.MaxSpeed),
				Y: between(-conf.MaxSpeed, conf.MaxSpeed),
			},
			Radius: size,
		}

		if rnd.Float64() < conf.RectRatio {
			spec.Kind = spatial.ShapeRect
			spec.Radius = 0
			spec.HalfSize = spatial.Point{
				X: size,
				Y: between(conf.MinSize, size),
			}
		}

		if _, err := world.Spawn(spec); err != nil {
			return err
		}
	}

	logs.WithTag("world", world.Name).
		WithTag("count", conf.Count).
		WithTag("seed", seed).
		Info("random sprites spawned")
	return nil
}

func validateConfig(conf config) error {
	if conf.World.Levels < 0 || conf.World.Levels > spatial.MaxLevels {
		return errors.New("invalid world levels").
			WithTag("levels", conf.World.Levels).
			WithTag("max_levels", spatial.MaxLevels)
	}

	if conf.World.Width <= 0 || conf.World.Height <= 0 {
		return errors.New("world width and height must be positive").
			WithTag("width", conf.World.Width).
			WithTag("height", conf.World.Height)
	}

	if conf.Sprites.Count < 0 {
		return errors.New("sprite count must not be negative").
			WithTag("count", conf.Sprites.Count)
	}

	if conf.Sprites.MinSize <= 0 || conf.Sprites.MinSize > conf.Sprites.MaxSize {
		return errors.New("invalid sprite size range").
			WithTag("min_size", conf.Sprites.MinSize).
			WithTag("max_size", conf.Sprites.MaxSize)
	}

	if 2*conf.Sprites.MaxSize > conf.World.Width ||
		2*conf.Sprites.MaxSize > conf.World.Height {
		return errors.New("sprites do not fit in the world").
			WithTag("max_size", conf.Sprites.MaxSize)
	}

	if conf.Sprites.RectRatio < 0 || conf.Sprites.RectRatio > 1 {
		return errors.New("rect ratio must be between 0 and 1").
			WithTag("rect_ratio", conf.Sprites.RectRatio)
	}

	if conf.World.FrameDuration <= 0 {
		return errors.New("frame duration must be positive").
			WithTag("frame_duration", conf.World.FrameDuration)
	}

	return nil
}
