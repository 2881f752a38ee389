package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

// Pages holds the redirect targets of the checkout flow and the sandbox payment page.
var Pages = template.Must(template.New("pages").Parse(`
{{define "success"}}<!DOCTYPE html>
<html><head><title>Payment received</title></head>
<body><h1>Payment received</h1><p>Your card code will be delivered shortly.</p></body></html>
{{end}}
{{define "cancel"}}<!DOCTYPE html>
<html><head><title>Payment cancelled</title></head>
<body><h1>Payment cancelled</h1><p>No charge was made. You can start a new purchase at any time.</p></body></html>
{{end}}
{{define "test-payment"}}<!DOCTYPE html>
<html><head><title>Sandbox payment</title></head>
<body>
<h1>Sandbox payment</h1>
<p>Session: {{.SessionRef}}<br>Order: {{.OrderID}}</p>
<form method="post" action="/test-payment/complete">
<input type="hidden" name="session_id" value="{{.SessionRef}}">
<input type="hidden" name="order_id" value="{{.OrderID}}">
<button type="submit">Simulate successful payment</button>
</form>
<a href="/cancel">Simulate cancellation</a>
</body></html>
{{end}}
`))

// PageHandler renders checkout redirect pages and, outside production, the sandbox payment page.
type PageHandler struct {
	facade PaymentFacade
	logger *slog.Logger
}

func NewPageHandler(facade PaymentFacade, logger *slog.Logger) *PageHandler {
	return &PageHandler{facade: facade, logger: logger}
}

// Success handles GET /success.
func (h *PageHandler) Success(c *gin.Context) {
	c.HTML(http.StatusOK, "success", nil)
}

// Cancel handles GET /cancel.
func (h *PageHandler) Cancel(c *gin.Context) {
	c.HTML(http.StatusOK, "cancel", nil)
}

// TestPayment handles GET /test-payment.
func (h *PageHandler) TestPayment(c *gin.Context) {
	c.HTML(http.StatusOK, "test-payment", gin.H{
		"SessionRef": c.Query("session_id"),
		"OrderID":    c.Query("order_id"),
	})
}

// CompleteTestPayment handles POST /test-payment/complete by feeding a completed
// checkout event into the engine, as the gateway webhook would.
func (h *PageHandler) CompleteTestPayment(c *gin.Context) {
	sessionRef := c.PostForm("session_id")
	event := model.PaymentEvent{
		ID:         "sandbox_" + sessionRef,
		Type:       model.EventCheckoutCompleted,
		SessionRef: sessionRef,
		Metadata:   map[string]string{model.MetadataOrderID: c.PostForm("order_id")},
	}

	outcome, err := h.facade.HandlePayment(c.Request.Context(), event)
	if err != nil {
		h.logger.Warn("sandbox payment not settled", slog.String("session_ref", sessionRef), slog.String("error", err.Error()))
	} else {
		h.logger.Info("sandbox payment settled", slog.String("session_ref", sessionRef), slog.String("outcome", string(outcome)))
	}

	c.Redirect(http.StatusSeeOther, "/success?session_id="+url.QueryEscape(sessionRef))
}
