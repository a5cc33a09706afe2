// Package notify sends the run lifecycle mails: started, succeeded with
// the workbook attached, failed with the error, and the missing-column
// alert. Mail is strictly best-effort; a delivery failure is logged and
// never escalates into the run's own status.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/logger"
	"gopkg.in/gomail.v2"
)

// Mailer sends run notifications over the configured SMTP endpoint.
type Mailer struct {
	smtp config.SMTPConfig
	mail config.MailConfig
}

// NewMailer creates a mailer.
func NewMailer(smtp config.SMTPConfig, mail config.MailConfig) *Mailer {
	return &Mailer{smtp: smtp, mail: mail}
}

// RunStarted announces that the account's run has begun.
func (m *Mailer) RunStarted(ctx context.Context, account string, processing time.Time, extraTo ...string) {
	m.send(ctx, mailParams{
		Subject: fmt.Sprintf("BRS %s: run started for %s", account, processing.Format("02-01-2006")),
		Body: m.renderBody(ctx, startedTmpl, map[string]string{
			"Account": account,
			"Date":    processing.Format("02-01-2006"),
		}),
		ExtraTo: extraTo,
	})
}

// RunSucceeded sends the completion mail with the output workbooks attached.
func (m *Mailer) RunSucceeded(ctx context.Context, account string, processing time.Time, attachments []string, extraTo ...string) {
	m.send(ctx, mailParams{
		Subject: fmt.Sprintf("BRS %s: reconciliation complete for %s", account, processing.Format("02-01-2006")),
		Body: m.renderBody(ctx, successTmpl, map[string]string{
			"Account": account,
			"Date":    processing.Format("02-01-2006"),
		}),
		Attachments: attachments,
		ExtraTo:     extraTo,
	})
}

// RunFailed sends the failure mail carrying the error text.
func (m *Mailer) RunFailed(ctx context.Context, account string, processing time.Time, runErr error, extraTo ...string) {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	m.send(ctx, mailParams{
		Subject: fmt.Sprintf("BRS %s: run FAILED for %s", account, processing.Format("02-01-2006")),
		Body: m.renderBody(ctx, failedTmpl, map[string]string{
			"Account": account,
			"Date":    processing.Format("02-01-2006"),
			"Error":   errText,
		}),
		ExtraTo: extraTo,
	})
}

// ColumnsMissing alerts that an input file arrived without its required
// columns, naming the file and the columns.
func (m *Mailer) ColumnsMissing(ctx context.Context, account, file string, missing []string, extraTo ...string) {
	m.send(ctx, mailParams{
		Subject: fmt.Sprintf("BRS %s: required columns missing in %s", account, file),
		Body: m.renderBody(ctx, columnsTmpl, map[string]string{
			"Account": account,
			"File":    file,
			"Columns": strings.Join(missing, ", "),
		}),
		ExtraTo: extraTo,
	})
}

type mailParams struct {
	Subject     string
	Body        string
	Attachments []string
	ExtraTo     []string
}

func (m *Mailer) send(ctx context.Context, p mailParams) {
	log := logger.FromContext(ctx)

	to := append([]string{}, m.mail.Recipients...)
	for _, addr := range p.ExtraTo {
		if addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		log.Warn().Str("subject", p.Subject).Msg("No mail recipients configured, skipping")
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.smtp.From)
	msg.SetHeader("To", to...)
	if len(m.mail.CC) > 0 {
		msg.SetHeader("Cc", m.mail.CC...)
	}
	msg.SetHeader("Subject", p.Subject)
	msg.SetBody("text/html", p.Body)
	for _, a := range p.Attachments {
		msg.Attach(a)
	}

	dialer := gomail.NewDialer(m.smtp.Host, m.smtp.Port, m.smtp.Username, m.smtp.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		log.Error().Err(err).Str("subject", p.Subject).Msg("Mail delivery failed")
		return
	}
	log.Info().Str("subject", p.Subject).Int("recipients", len(to)).Msg("Mail sent")
}

func (m *Mailer) renderBody(ctx context.Context, tmpl *template.Template, data map[string]string) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Mail template render failed")
		return ""
	}
	return buf.String()
}

var (
	startedTmpl = template.Must(template.New("started").Parse(`
<p>Dear Team,</p>
<p>The bank reconciliation for account <b>{{.Account}}</b> dated <b>{{.Date}}</b> has started.</p>
<p>This is an automated notification.</p>`))

	successTmpl = template.Must(template.New("success").Parse(`
<p>Dear Team,</p>
<p>The bank reconciliation for account <b>{{.Account}}</b> dated <b>{{.Date}}</b> completed successfully.
The BRS workbook is attached.</p>
<p>This is an automated notification.</p>`))

	failedTmpl = template.Must(template.New("failed").Parse(`
<p>Dear Team,</p>
<p>The bank reconciliation for account <b>{{.Account}}</b> dated <b>{{.Date}}</b> failed:</p>
<pre>{{.Error}}</pre>
<p>Please investigate before the next cycle.</p>`))

	columnsTmpl = template.Must(template.New("columns").Parse(`
<p>Dear Team,</p>
<p>The input file <b>{{.File}}</b> for account <b>{{.Account}}</b> is missing required columns:</p>
<p><b>{{.Columns}}</b></p>
<p>The run cannot proceed with this file until it is corrected.</p>`))
)
