package email

import (
	"fmt"
	"html"
)

// ─── Test Email ───
// Correo fijo que manda el endpoint de test para probar conectividad.

const testEmailStyles = `
body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #f4f4f7; color: #333; margin: 0; padding: 0; }
.container { width: 100%; max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden; }
.header { background: #1a1a2e; padding: 32px; text-align: center; }
.header h1 { color: #ffffff; margin: 0; font-size: 24px; font-weight: 700; }
.content { padding: 32px; line-height: 1.7; }
.badge { display: inline-block; background: #11998e; color: white; padding: 6px 16px; border-radius: 50px; font-size: 13px; font-weight: 600; margin-bottom: 20px; }
.timestamp { color: #999; font-size: 12px; margin-top: 16px; }
`

// TestEmailSubject es el asunto fijo del correo de prueba.
const TestEmailSubject = "SMTP test email"

// TestEmailContent contiene el contenido del correo de prueba.
type TestEmailContent struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// Message arma el Message para to.
func (p TestEmailContent) Message(to string) Message {
	return Message{To: []string{to}, Subject: p.Subject, Text: p.TextBody, HTML: p.HTMLBody}
}

// GetTestEmailContent retorna el correo de prueba para siteName.
func GetTestEmailContent(siteName, timestamp string) TestEmailContent {
	safe := html.EscapeString(siteName)
	return TestEmailContent{
		Subject: TestEmailSubject,
		HTMLBody: fmt.Sprintf(`<!doctype html>
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>%s</style>
</head>
<body>
  <div style="padding: 40px 20px;">
    <div class="container">
      <div class="header"><h1>%s</h1></div>
      <div class="content">
        <div class="badge">SMTP OK</div>
        <p>This is a test email confirming that the SMTP relay configured for <strong>%s</strong> delivers mail.</p>
        <p>If you did not request this test, you can ignore this message.</p>
        <p class="timestamp">Sent: %s</p>
      </div>
    </div>
  </div>
</body>
</html>`, testEmailStyles, safe, safe, timestamp),
		TextBody: fmt.Sprintf(`SMTP test email - %s

This is a test email confirming that the SMTP relay configured for %s delivers mail.

Sent: %s`, siteName, siteName, timestamp),
	}
}
