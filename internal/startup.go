package internal

import (
	"context"
	"time"

	"github.com/goatbot786-md/goattecc-bot/pkg/bot"
	"github.com/goatbot786-md/goattecc-bot/pkg/env"
	"github.com/goatbot786-md/goattecc-bot/pkg/log"
)

// Startup restores previously active sessions shortly after boot. The
// delay lets the HTTP listener come up first so health checks pass while
// the fleet reconnects in the background.
func Startup(m *bot.Manager) {
	if !env.GetEnvBoolOrDefault("BOT_STARTUP_RECONNECT", true) {
		log.Bot("startup").Info("Startup reconnect disabled")
		return
	}
	delay := env.GetEnvDurationOrDefault("BOT_STARTUP_RECONNECT_DELAY", 5*time.Second)

	go func() {
		time.Sleep(delay)

		log.Bot("startup").Info("Restoring previously active sessions")
		outcomes := m.ReconnectAll(context.Background())

		restored, failed := 0, 0
		for _, out := range outcomes {
			if out.Status == "failed" {
				failed++
			} else {
				restored++
			}
		}
		log.Bot("startup").Infof("Session restore finished: %d ok, %d failed", restored, failed)
	}()
}
