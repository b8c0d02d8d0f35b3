package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/tourneydeck/internal/adapters/admin"
	"github.com/jose-valero/tourneydeck/internal/adapters/deck"
	"github.com/jose-valero/tourneydeck/internal/adapters/push"
	"github.com/jose-valero/tourneydeck/internal/app"
	"github.com/jose-valero/tourneydeck/internal/state"
	"github.com/jose-valero/tourneydeck/pkg/config"
)

func main() {
	log := newLogger()
	if err := run(log); err != nil {
		log.WithError(err).Fatal("tourneydeck stopped")
	}
	log.Info("goodbye")
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.Info("config: ", cfg.Redacted())

	// no deck, no point
	surface, err := deck.Open(log)
	if err != nil {
		return err
	}
	defer surface.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := state.NewStore(log)
	remote := admin.New(cfg.AdminURL, cfg.APIToken, log)

	// a bad token still lets us watch; every action will just bounce
	if err := remote.VerifyToken(ctx); err != nil {
		log.WithError(err).Warn("token verification failed, actions may be rejected")
	}

	var channel app.PushChannel
	if cfg.WSEnabled {
		deviceID := "streamdeck-" + uuid.NewString()[:8]
		sock, err := push.New(cfg.AdminURL, cfg.APIToken, deviceID, cfg.WSReconnectDelay, cfg.WSMaxReconnect, log)
		if err != nil {
			log.WithError(err).Warn("push channel unavailable, polling only")
		} else {
			sock.OnMatches = store.ApplyMatchesPush
			sock.OnTournament = store.ApplyTournamentPush
			go sock.Run(ctx)
			channel = sock
		}
	}

	syncer := app.NewSyncer(remote, store, channel, cfg, log)
	go syncer.Run(ctx)
	syncer.RequestRefresh()

	ctrl := app.NewController(cfg, store, remote, channel, surface, syncer, log)
	return ctrl.Run(ctx)
}
