package internal

import (
	"github.com/robfig/cron/v3"

	"github.com/goatbot786-md/goattecc-bot/pkg/bot"
	"github.com/goatbot786-md/goattecc-bot/pkg/env"
	"github.com/goatbot786-md/goattecc-bot/pkg/log"
)

// Routines registers the periodic jobs. The health sweep only observes and
// logs; actual reconnects stay with the session manager's close handling.
func Routines(c *cron.Cron, m *bot.Manager) {
	log.Bot("routines").Info("Registering routine tasks")

	if !env.GetEnvBoolOrDefault("BOT_HEALTH_CHECK_ENABLED", true) {
		log.Bot("routines").Info("Health check cron disabled")
		return
	}

	spec := env.GetEnvStringOrDefault("BOT_HEALTH_CHECK_CRON", "0 */5 * * * *")
	_, err := c.AddFunc(spec, func() {
		sessions := m.ActiveSessions()
		if len(sessions) == 0 {
			return
		}
		healthy := 0
		for _, s := range sessions {
			if s.Connected && s.LoggedIn {
				healthy++
				continue
			}
			log.Session(s.Number).Warn("Session unhealthy")
		}
		log.Bot("routines").Infof("Health sweep: %d/%d sessions healthy", healthy, len(sessions))
	})
	if err != nil {
		log.Bot("routines").WithError(err).Error("Failed to add health check cron job")
	}
}
