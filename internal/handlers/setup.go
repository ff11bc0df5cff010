package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"schedule_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// Connectivity probes of common client OSes. While the portal is up they
// are redirected so the client shows its sign-in sheet.
var captiveProbePaths = []string{
	"/generate_204",
	"/gen_204",
	"/hotspot-detect.html",
	"/library/test/success.html",
	"/success.txt",
	"/ncsi.txt",
	"/connecttest.txt",
	"/redirect",
	"/canonical.html",
}

const setupPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Schedule controller setup</title></head>
<body><h1>Network setup</h1>
<form method="POST" action="/connect">
<p><label>SSID <input name="ssid" maxlength="64" required></label></p>
<p><label>Password <input name="pass" type="password" maxlength="64"></label></p>
<p><button type="submit">Save and restart</button></p>
</form></body></html>
`

const controlPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Schedule controller</title></head>
<body><h1>Schedule controller</h1>
<p>Status: <a href="/api">/api</a>. API docs: <a href="/swagger/index.html">/swagger</a>.</p>
</body></html>
`

const savedPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Saved</title></head>
<body><p>Credentials saved. The device restarts and joins the network.</p></body></html>
`

// index serves the setup form in setup mode and a landing page otherwise.
func (h *Handler) index(c *gin.Context) {
	page := controlPage
	if h.serving() {
		page = setupPage
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (h *Handler) captiveProbe(c *gin.Context) {
	if !h.serving() {
		h.notFound(c)
		return
	}
	c.Redirect(http.StatusFound, h.setupURL())
}

// @Summary      Provision network credentials
// @Description  Only available in setup mode. Saves the credentials and restarts into the join path.
// @Tags         setup
// @Accept       x-www-form-urlencoded
// @Produce      html
// @Param        ssid  formData  string  true   "Network name (max 64 bytes)"
// @Param        pass  formData  string  false  "Network password (max 64 bytes)"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /connect [post]
func (h *Handler) connect(c *gin.Context) {
	ssid := c.PostForm("ssid")
	pass := c.PostForm("pass")

	ctx := c.Request.Context()
	err := h.services.Provision(ctx, ssid, pass)
	switch {
	case errors.Is(err, service.ErrCredentialsTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": errCredsTooLong})
		return
	case errors.Is(err, service.ErrEmptySSID):
		c.JSON(http.StatusBadRequest, gin.H{"error": errCredsEmpty})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errProvision, "provision_failed", err, "ssid", ssid)
		return
	}
	if h.log != nil {
		h.log.Infow("provisioned", "ssid", ssid)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(savedPage))
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// isBrowserNoise matches requests browsers make on their own.
func isBrowserNoise(p string) bool {
	base := path.Base(p)
	switch {
	case strings.HasPrefix(base, "apple-touch-icon") && strings.HasSuffix(base, ".png"):
		return true
	case p == "/manifest.json", p == "/robots.txt":
		return true
	case strings.HasSuffix(p, ".map"):
		return true
	}
	return false
}

func (h *Handler) notFound(c *gin.Context) {
	if h.serving() {
		c.Redirect(http.StatusFound, h.setupURL())
		return
	}
	if isBrowserNoise(c.Request.URL.Path) {
		c.Status(http.StatusNoContent)
		return
	}
	c.String(http.StatusNotFound, "Not Found: %s", c.Request.URL.RequestURI())
}
