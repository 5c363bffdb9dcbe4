package internal

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goatbot786-md/goattecc-bot/internal/pair"
	"github.com/goatbot786-md/goattecc-bot/pkg/auth"
	"github.com/goatbot786-md/goattecc-bot/pkg/router"
)

// Routes wires the gateway HTTP surface. Pairing endpoints are open so
// numbers can self-onboard; fleet and teardown endpoints need credentials.
func Routes(app *fiber.App, ct *pair.Controller) {
	base := router.BaseURL

	app.Get(base+"/", ct.Ping)
	app.Get(base+"/ping", ct.Ping)

	app.Get(base+"/pair", ct.Pair)
	app.Get(base+"/pair/qr", ct.PairQR)
	app.Get(base+"/status", ct.Status)
	app.Get(base+"/active", ct.Active)

	app.Get(base+"/reconnect", auth.AdminAuth(), ct.Reconnect)
	app.Delete(base+"/session/:number", auth.SessionOrAdminAuth(), ct.Teardown)
}
