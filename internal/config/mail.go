package config

// MailConfig configures the transactional mail API used for password
// recovery.  When URL is empty the server logs reset links instead of
// sending them.
type MailConfig struct {
    URL       string
    APIKey    string
    FromEmail string
    FromName  string
}

// LoadMailConfig reads MAILTRAP_* and MAIL_FROM_* variables.
func LoadMailConfig() MailConfig {
    return MailConfig{
        URL:       envStr("MAILTRAP_API_URL", ""),
        APIKey:    envStr("MAILTRAP_API_KEY", ""),
        FromEmail: envStr("MAIL_FROM_EMAIL", "noreply@fishtrack.app"),
        FromName:  envStr("MAIL_FROM_NAME", "FishTrack"),
    }
}
