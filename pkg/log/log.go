package log

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
		DisableColors:   false,
		ForceColors:     true,
	}
}

func Print(c *fiber.Ctx) *logrus.Entry {
	if c == nil {
		return logger.WithFields(logrus.Fields{})
	}

	remoteIP := c.IP()
	if v := c.Locals("remote_ip"); v != nil {
		if ip, ok := v.(string); ok && ip != "" {
			remoteIP = ip
		}
	}
	return logger.WithFields(logrus.Fields{
		"remote_ip": remoteIP,
		"method":    c.Method(),
		"uri":       c.OriginalURL(),
	})
}

// Bot returns an entry for gateway events that happen outside any HTTP
// request, tagged with the subsystem that produced them.
func Bot(scope string) *logrus.Entry {
	return logger.WithField("scope", scope)
}

// Session returns an entry tagged with a masked phone number. Phone numbers
// double as tenant credentials here, so they never land in logs verbatim.
func Session(number string) *logrus.Entry {
	return logger.WithField("session", MaskNumber(number))
}

func MaskNumber(number string) string {
	if len(number) < 4 {
		return number
	}
	return number[0:len(number)-4] + "xxxx"
}
