package admin

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/mailrelay/internal/http/v2/dto/admin"
	httperrors "github.com/dropDatabas3/mailrelay/internal/http/v2/errors"
	mw "github.com/dropDatabas3/mailrelay/internal/http/v2/middlewares"
	svc "github.com/dropDatabas3/mailrelay/internal/http/v2/services/admin"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/security/csrf"
)

// MailingController handles admin mailing endpoints.
type MailingController struct {
	service svc.MailingService
}

// NewMailingController creates a new admin mailing controller.
func NewMailingController(service svc.MailingService) *MailingController {
	return &MailingController{service: service}
}

// SendTest handles POST /v2/admin/smtp/test.
// Siempre responde {"success": bool, "data": string}.
func (c *MailingController) SendTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MailingController.SendTest"))

	var req svc.TestRequest
	if cl, ok := mw.GetClaims(ctx); ok {
		req.Caller = &cl
	}
	req.CSRFToken = strings.TrimSpace(r.Header.Get(csrf.HeaderName))

	// Un body ilegible no corta acá: el service rechaza primero por CSRF y
	// privilegio.
	if isForm(r) {
		if err := parseForm(w, r); err != nil {
			req.Malformed = true
		} else {
			req.Address = r.PostForm.Get("test_email")
			if req.CSRFToken == "" {
				req.CSRFToken = r.PostForm.Get(csrf.FormField)
			}
		}
	} else {
		var body dto.TestEmailRequest
		if err := decodeJSON(w, r, &body); err != nil {
			req.Malformed = true
		} else {
			req.Address = body.TestEmail
			if req.CSRFToken == "" {
				req.CSRFToken = body.CSRF
			}
		}
	}

	res := c.service.HandleTestRequest(ctx, req)
	log.Debug("test send handled", logger.Bool("success", res.Success), logger.Status(res.Status))
	httperrors.WriteJSON(w, res.Status, dto.TestEmailResponse{Success: res.Success, Data: res.Data})
}
