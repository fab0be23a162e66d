// internal/workers/booking/notify-booking/config.go
package notifybooking

import (
	"time"

	"stayease/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SMSSenderID  string
	Timeout      time.Duration
}

// LoadConfig builds the worker config from the notification settings.
func LoadConfig(n config.NotificationConfig, w config.WorkerConfig) *Config {
	timeout := config.GetDuration(w.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{
		EmailEnabled: n.Email.Enabled && n.Email.FromEmail != "",
		SMSEnabled:   n.SMS.Enabled,
		FromEmail:    n.Email.FromEmail,
		SMSSenderID:  n.SMS.SenderID,
		Timeout:      timeout,
	}
}
