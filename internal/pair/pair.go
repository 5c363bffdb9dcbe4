package pair

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/goatbot786-md/goattecc-bot/pkg/auth"
	"github.com/goatbot786-md/goattecc-bot/pkg/bot"
	"github.com/goatbot786-md/goattecc-bot/pkg/log"
	"github.com/goatbot786-md/goattecc-bot/pkg/router"
	"github.com/goatbot786-md/goattecc-bot/pkg/validation"
)

// Controller exposes the session manager over HTTP.
type Controller struct {
	Bot *bot.Manager
}

func NewController(m *bot.Manager) *Controller {
	return &Controller{Bot: m}
}

func (ct *Controller) queryNumber(c *fiber.Ctx) (string, error) {
	number := c.Query("number")
	if err := validation.ValidatePhone(number); err != nil {
		return "", err
	}
	return validation.SanitizeNumber(number), nil
}

// Pair starts a phone-code pairing for ?number=. An already-paired number
// reports its current state instead of erroring; the endpoint is safe to
// call repeatedly.
func (ct *Controller) Pair(c *fiber.Ctx) error {
	number, err := ct.queryNumber(c)
	if err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	log.Print(c).WithField("session", log.MaskNumber(number)).Info("Pairing requested")

	res, err := ct.Bot.Pair(c.UserContext(), number)
	switch {
	case errors.Is(err, bot.ErrAlreadyConnected):
		return router.ResponseSuccessWithData(c, "Number is already connected", fiber.Map{
			"status":  "already_connected",
			"session": ct.Bot.Status(number),
		})
	case errors.Is(err, bot.ErrPairingInProgress):
		return router.ResponseSuccessWithData(c, "Pairing already in progress", fiber.Map{
			"status": "connection_in_progress",
		})
	case err != nil:
		log.Print(c).WithError(err).Error("Pairing failed")
		return router.ResponseServiceUnavailable(c, "Failed to start pairing, try again later")
	}

	token, err := auth.GenerateSessionToken(number)
	if err != nil {
		log.Print(c).WithError(err).Warn("Session token generation failed")
	}

	return router.ResponseSuccessWithData(c, "Pairing started", fiber.Map{
		"status": res.Status,
		"code":   res.Code,
		"token":  token,
	})
}

// PairQR starts a QR login for ?number= and returns the QR image inline.
func (ct *Controller) PairQR(c *fiber.Ctx) error {
	number, err := ct.queryNumber(c)
	if err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	log.Print(c).WithField("session", log.MaskNumber(number)).Info("QR pairing requested")

	res, err := ct.Bot.PairQR(c.UserContext(), number)
	switch {
	case errors.Is(err, bot.ErrAlreadyConnected):
		return router.ResponseSuccessWithData(c, "Number is already connected", fiber.Map{
			"status": "already_connected",
		})
	case errors.Is(err, bot.ErrPairingInProgress):
		return router.ResponseSuccessWithData(c, "Pairing already in progress", fiber.Map{
			"status": "connection_in_progress",
		})
	case err != nil:
		log.Print(c).WithError(err).Error("QR pairing failed")
		return router.ResponseServiceUnavailable(c, "Failed to start QR pairing, try again later")
	}

	token, err := auth.GenerateSessionToken(number)
	if err != nil {
		log.Print(c).WithError(err).Warn("Session token generation failed")
	}

	return router.ResponseSuccessWithData(c, "QR pairing started", fiber.Map{
		"status":          res.Status,
		"qr_image":        res.Image,
		"timeout_seconds": res.TimeoutSec,
		"token":           token,
	})
}

// Status reports one session when ?number= is given, otherwise the count.
func (ct *Controller) Status(c *fiber.Ctx) error {
	if number := c.Query("number"); number != "" {
		if err := validation.ValidatePhone(number); err != nil {
			return router.ResponseBadRequest(c, err.Error())
		}
		return router.ResponseSuccessWithData(c, "Session status",
			ct.Bot.Status(validation.SanitizeNumber(number)))
	}
	return router.ResponseSuccessWithData(c, "Gateway status", fiber.Map{
		"active_sessions": ct.Bot.Count(),
	})
}

// Active lists every live session.
func (ct *Controller) Active(c *fiber.Ctx) error {
	return router.ResponseSuccessWithData(c, "Active sessions", ct.Bot.ActiveSessions())
}

// Ping is the liveness probe.
func (ct *Controller) Ping(c *fiber.Ctx) error {
	return router.ResponseSuccessWithData(c, "Pong", fiber.Map{
		"active_sessions": ct.Bot.Count(),
	})
}

// Reconnect re-pairs every number marked active in the datastore.
func (ct *Controller) Reconnect(c *fiber.Ctx) error {
	log.Print(c).Info("Fleet reconnect requested")
	outcomes := ct.Bot.ReconnectAll(c.UserContext())
	return router.ResponseSuccessWithData(c, "Reconnect sweep finished", outcomes)
}

// Teardown disconnects the :number session.
func (ct *Controller) Teardown(c *fiber.Ctx) error {
	number := c.Params("number")
	if err := validation.ValidatePhone(number); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	err := ct.Bot.Teardown(validation.SanitizeNumber(number))
	if errors.Is(err, bot.ErrNotConnected) {
		return router.ResponseNotFound(c, "Number is not connected")
	}
	if err != nil {
		return router.ResponseInternalError(c, "Failed to tear down session")
	}
	return router.ResponseSuccess(c, "Session torn down")
}
