package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"film-room/internal/models"
	"film-room/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

// Enabled reports whether delivery is configured at all.
func (s *Sender) Enabled() bool {
	return s.config.ToEmail != ""
}

// SendDigest emails a summary of completed film analyses.
func (s *Sender) SendDigest(completed []*models.AnalysisRequest) error {
	if len(completed) == 0 {
		return nil // Nothing to report
	}

	subject := fmt.Sprintf("Film Room Digest - %d Analyses Completed (%s)",
		len(completed), time.Now().Format("Jan 2, 2006"))

	body, err := s.generateDigestBody(completed)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.sendViaSMTP(subject, body)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"moduleNames": func(outputs map[models.ModuleKind]*models.FormattedOutput) []string {
		var names []string
		for _, kind := range models.AllModules() {
			if _, ok := outputs[kind]; ok {
				names = append(names, string(kind))
			}
		}
		return names
	},
}).Parse(`<html>
<body style="font-family: sans-serif;">
<h2>Completed Film Analyses</h2>
{{range .}}
<div style="margin-bottom: 16px; padding: 12px; border: 1px solid #ddd;">
  <strong>{{if .Title}}{{.Title}}{{else}}{{.Source}}{{end}}</strong><br>
  Source: {{.Source}} ({{.SourceType}})<br>
  Finished: {{.UpdatedAt.Format "Jan 2 15:04"}}<br>
  Sections ready: {{range moduleNames .Outputs}}{{.}} {{end}}
  {{if .Failures}}<br>Degraded sections: {{range $kind, $reason := .Failures}}{{$kind}} {{end}}{{end}}
</div>
{{end}}
</body>
</html>`))

func (s *Sender) generateDigestBody(completed []*models.AnalysisRequest) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, completed); err != nil {
		return "", err
	}
	return buf.String(), nil
}
