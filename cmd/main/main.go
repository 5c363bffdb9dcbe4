package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cron "github.com/robfig/cron/v3"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"

	"go.mau.fi/whatsmeow/store/sqlstore"

	"github.com/goatbot786-md/goattecc-bot/pkg/bot"
	"github.com/goatbot786-md/goattecc-bot/pkg/env"
	"github.com/goatbot786-md/goattecc-bot/pkg/log"
	"github.com/goatbot786-md/goattecc-bot/pkg/router"
	"github.com/goatbot786-md/goattecc-bot/pkg/store"

	"github.com/goatbot786-md/goattecc-bot/internal"
	"github.com/goatbot786-md/goattecc-bot/internal/pair"

	// Registers the built-in chat commands.
	_ "github.com/goatbot786-md/goattecc-bot/internal/plugin"
)

type Server struct {
	Address string
	Port    string
}

func main() {
	// Initialize Cron
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
	), cron.WithSeconds())

	// Initialize Fiber
	app := fiber.New(fiber.Config{
		ErrorHandler:   router.HttpErrorHandler,
		BodyLimit:      router.BodyLimitBytes(),
		ReadBufferSize: 8192,
	})

	// Request ID + panic recovery (structured JSON)
	app.Use(router.HttpRequestID())
	app.Use(router.RecoveryMiddleware())

	// Router Compression
	app.Use(compress.New(compress.Config{
		Level: compress.Level(router.GZipLevel),
	}))

	// Router CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins: router.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Secret",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
	}))

	// Router Security
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	// Router Cache
	app.Use(router.HttpCacheInMemory(router.CacheTTLSeconds))

	// Router RealIP + request context enrichment
	app.Use(router.HttpRealIP())

	// Router Default Handler
	app.Get("/favicon.ico", router.ResponseNoContent)

	// Initialize Datastore
	ctx := context.Background()
	opts := bot.OptionsFromEnv()

	st, err := store.Open(ctx, opts.DefaultConfig)
	if err != nil {
		log.Bot("main").Fatal(err.Error())
	}

	// whatsmeow key material shares the same database
	container, err := sqlstore.New(ctx, st.Driver(), st.DSN(), nil)
	if err != nil {
		log.Bot("main").Fatal(err.Error())
	}
	if err := container.Upgrade(ctx); err != nil {
		log.Bot("main").Fatal(err.Error())
	}

	// Initialize Session Manager
	manager := bot.NewManager(opts, st, container)
	ct := pair.NewController(manager)

	// Load Internal Routes
	internal.Routes(app, ct)

	// Running Startup Tasks
	internal.Startup(manager)

	// Running Routines Tasks
	internal.Routines(c, manager)
	c.Start()

	// Get Server Configuration with defaults
	var serverConfig Server
	serverConfig.Address = env.GetEnvStringOrDefault("SERVER_ADDRESS", "0.0.0.0")
	serverConfig.Port = env.GetEnvStringOrDefault("SERVER_PORT", "7001")

	// Start Server
	go func() {
		if err := app.Listen(serverConfig.Address + ":" + serverConfig.Port); err != nil {
			log.Bot("main").Fatal(err.Error())
		}
	}()

	// Watch for Shutdown Signal
	sigShutdown := make(chan os.Signal, 1)
	signal.Notify(sigShutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-sigShutdown

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := app.ShutdownWithContext(ctxShutdown); err != nil {
		log.Bot("main").Error(err.Error())
	}

	c.Stop()
	manager.Shutdown()
	_ = st.Close()
}
