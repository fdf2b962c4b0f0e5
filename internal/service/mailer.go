package service

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/fishtrack/internal/config"
)

// EmailRecipient is a sender or recipient in a Mailtrap send request.
type EmailRecipient struct {
    Email string `json:"email"`
    Name  string `json:"name,omitempty"`
}

// EmailRequest is the Mailtrap send API payload.
type EmailRequest struct {
    From     EmailRecipient   `json:"from"`
    To       []EmailRecipient `json:"to"`
    Subject  string           `json:"subject"`
    HTML     string           `json:"html,omitempty"`
    Text     string           `json:"text,omitempty"`
    Category string           `json:"category,omitempty"`
}

// MailtrapMailer sends password recovery mail through the Mailtrap HTTP API.
type MailtrapMailer struct {
    cfg    config.MailConfig
    client *http.Client
}

// NewMailtrapMailer returns a mailer for cfg.  A nil client uses a default
// client with a 10 second timeout.
func NewMailtrapMailer(cfg config.MailConfig, client *http.Client) *MailtrapMailer {
    if client == nil {
        client = &http.Client{Timeout: 10 * time.Second}
    }
    return &MailtrapMailer{cfg: cfg, client: client}
}

// SendPasswordReset sends the recovery link in Portuguese, matching the
// language of the app.
func (m *MailtrapMailer) SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error {
    html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Redefinição de senha</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2>Redefinição de senha</h2>
  <p>Olá %s,</p>
  <p>Recebemos um pedido para redefinir a senha da sua conta FishTrack.</p>
  <p><a href="%s">Redefinir senha</a></p>
  <p>Este link expira em 1 hora. Se você não fez o pedido, ignore este email.</p>
</body>
</html>`, toName, resetURL)

    text := fmt.Sprintf("Olá %s,\n\nPara redefinir sua senha do FishTrack, acesse:\n\n%s\n\nEste link expira em 1 hora.\n", toName, resetURL)

    return m.send(ctx, EmailRequest{
        From:     EmailRecipient{Email: m.cfg.FromEmail, Name: m.cfg.FromName},
        To:       []EmailRecipient{{Email: toEmail, Name: toName}},
        Subject:  "FishTrack: redefinição de senha",
        HTML:     html,
        Text:     text,
        Category: "password_recovery",
    })
}

func (m *MailtrapMailer) send(ctx context.Context, emailReq EmailRequest) error {
    payload, err := json.Marshal(emailReq)
    if err != nil {
        return fmt.Errorf("failed to marshal email request: %w", err)
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.URL, bytes.NewReader(payload))
    if err != nil {
        return fmt.Errorf("failed to create request: %w", err)
    }
    req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
    req.Header.Set("Content-Type", "application/json")

    resp, err := m.client.Do(req)
    if err != nil {
        return fmt.Errorf("failed to send email: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
        return fmt.Errorf("mailtrap API returned status: %d", resp.StatusCode)
    }
    return nil
}

// LogMailer writes reset links to the log instead of sending them.  It is
// used in development when no mail API is configured.
type LogMailer struct {
    Log *zap.Logger
}

// SendPasswordReset logs the link.
func (m LogMailer) SendPasswordReset(_ context.Context, toEmail, _, resetURL string) error {
    m.Log.Info("password reset link", zap.String("to", toEmail), zap.String("url", resetURL))
    return nil
}
