package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/idlecamp/server/internal/config"
	"github.com/idlecamp/server/internal/data"
	"github.com/idlecamp/server/internal/engine"
	"github.com/idlecamp/server/internal/feed"
	"github.com/idlecamp/server/internal/persist"
	"github.com/idlecamp/server/internal/scripting"
	"github.com/idlecamp/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName, character string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             idlecamp  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        掛機營地 · 戰鬥模擬伺服器          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(角色: %s)\033[0m\n\n", serverName, character)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := max(46-displayWidth(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-displayWidth(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	var (
		name     = flag.String("name", "", "character name (required)")
		classID  = flag.Int("class", 1, "class id used when the character is created")
		hardcore = flag.Bool("hardcore", false, "create the character in hardcore mode")
		cfgPath  = flag.String("config", config.Path("config/server.toml"), "config file")
	)
	flag.Parse()
	if *name == "" {
		return errors.New("-name is required")
	}

	// 1. Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, *name)

	// 3. Connect to PostgreSQL and run migrations
	printSection("資料庫")
	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(bootCtx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL 連線成功")

	version, err := persist.RunMigrations(bootCtx, db.Pool)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("資料庫遷移完成 (版本 %d)", version))
	fmt.Println()

	store := persist.NewStore(db)

	// 4. Reference tables
	printSection("資料載入")
	tables, err := data.LoadAll(cfg.Server.DataDir)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	printStat("職業", tables.Classes.Count())
	printStat("怪物模板", tables.Mobs.Count())
	printStat("技能", tables.Skills.Count())
	printStat("掉寶表", tables.Loot.Count())
	printStat("營地", tables.Zones.Count())
	printStat("道具模板", tables.Items.Count())
	for _, f := range tables.Faults {
		log.Warn(fmt.Sprintf("資料完整性問題: %v", f))
	}
	if n := len(tables.Faults); n > 0 {
		printStat("資料問題", n)
	}
	fmt.Println()

	// 5. Lua formulas
	printSection("腳本引擎")
	formulas, err := scripting.NewEngine(cfg.Server.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer formulas.Close()
	printOK("Lua 公式載入完成")
	fmt.Println()

	// 6. Session
	mode := world.ModeNormal
	if *hardcore {
		mode = world.ModeHardcore
	}
	eng, err := engine.Open(bootCtx, engine.Options{
		Config:   cfg,
		Log:      log,
		Tables:   tables,
		Formulas: formulas,
		Store:    store,
	}, engine.Character{Name: *name, ClassID: int32(*classID), Mode: mode})
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	if cfg.Feed.Enabled {
		hub := feed.NewHub(cfg.Feed, eng, store, log)
		g.Go(func() error { return hub.ListenAndServe(gctx) })
		printReady(fmt.Sprintf("即時推送  ws://%s/ws", cfg.Feed.BindAddress))
	}
	printReady(fmt.Sprintf("模擬開始  tick=%s", cfg.Simulation.TickRate))
	fmt.Println()

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("伺服器已關閉")
	return nil
}

// newLogger builds the console or JSON logger, teeing JSON into a rotating
// file when one is configured.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	log, err := zapCfg.Build()
	if err != nil || cfg.File == "" {
		return log, err
	}

	rotate := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	fileEnc := zap.NewProductionEncoderConfig()
	fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(rotate), zapCfg.Level)

	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})), nil
}
