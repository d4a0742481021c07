package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/inconshreveable/log15"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"raidkeeper/config"
	"raidkeeper/gymdb"
	"raidkeeper/pokebattler"
	"raidkeeper/raid"
	"raidkeeper/scanner"
	"raidkeeper/sightings"
	"raidkeeper/subs"
)

// sightings are kept for 30 days before the nightly prune drops them.
const sightingRetention = 30 * 24 * time.Hour

func main() {
	log := log15.New("module", "main")
	if err := run(log); err != nil {
		log.Crit("fatal", "err", err)
		os.Exit(1)
	}
}

func run(log log15.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	lvl, err := log15.LvlFromString(cfg.LogLevel)
	if err != nil {
		lvl = log15.LvlInfo
	}
	log15.Root().SetHandler(log15.LvlFilterHandler(lvl, log15.StdoutHandler))

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.DatabasePath, err)
	}
	gyms, err := gymdb.New(db)
	if err != nil {
		return err
	}
	subStore, err := subs.New(db)
	if err != nil {
		return err
	}
	sightingLog, err := sightings.New(db)
	if err != nil {
		return err
	}

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages

	bot := raid.NewBot(dg, raid.Deps{
		Gyms:      gyms,
		Subs:      subStore,
		Sightings: sightingLog,
		Counters:  pokebattler.NewClient(cfg.PokebattlerURL),
		Scanner:   scanner.NewClient(cfg.ScannerURL),
	}, cfg.SnapshotPath)

	c := cron.New()
	c.AddFunc(fmt.Sprintf("@every %ds", cfg.SnapshotIntervalSeconds), bot.SaveIfDirty)
	c.AddFunc("15 4 * * *", func() {
		if err := sightingLog.Prune(time.Now().Add(-sightingRetention)); err != nil {
			log.Warn("sighting prune failed", "err", err)
		}
	})
	c.Start()

	if err := dg.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	log.Info("raidkeeper is up", "db", cfg.DatabasePath, "snapshot", cfg.SnapshotPath)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	c.Stop()
	bot.Stop()
	if err := bot.Save(cfg.SnapshotPath); err != nil {
		log.Error("final snapshot failed", "err", err)
	}
	return dg.Close()
}
