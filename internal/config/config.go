package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Chat transport
	Transport        string
	TelegramBotToken string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	WebhookPort      string

	// Only messages from this chat id / JID are handled. Empty means
	// answer everyone.
	OwnerID string

	Timezone string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleBudgetsSheet       string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Dispatcher
	StoreTimeout time.Duration

	// Scheduled jobs (hours are local wall-clock, 0-23)
	ReminderEnabled bool
	ReminderHour    int
	SummaryEnabled  bool
	SummaryHour     int
	// SummaryRecipient gets the evening recap. Falls back to OWNER_ID.
	SummaryRecipient string

	// Mirror worker
	MirrorBatchSize int
	MirrorInterval  time.Duration

	// Backend selection
	DataBackend string
}

func Load() *Config {
	cfg := &Config{
		Transport:        getEnv("TRANSPORT", "telegram"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		WebhookPort:      getEnv("WEBHOOK_PORT", "8081"),

		OwnerID:  getEnv("OWNER_ID", ""),
		Timezone: getEnv("TZ", "Asia/Jakarta"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/duitbot.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "duitbot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_transactions"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transaksi"),
		GoogleBudgetsSheet:       getEnv("GOOGLE_BUDGETS_SHEET", "Income"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 15*time.Second),

		ReminderEnabled:  getEnvBool("REMINDER_ENABLED", true),
		ReminderHour:     getEnvInt("REMINDER_HOUR", 15),
		SummaryEnabled:   getEnvBool("SUMMARY_ENABLED", true),
		SummaryHour:      getEnvInt("SUMMARY_HOUR", 21),
		SummaryRecipient: getEnv("SUMMARY_RECIPIENT", ""),

		MirrorBatchSize: getEnvInt("MIRROR_BATCH_SIZE", 10),
		MirrorInterval:  getEnvDuration("MIRROR_INTERVAL", 30*time.Second),

		DataBackend: getEnv("DATA_BACKEND", "sqlite"),
	}

	return cfg
}

// Validate checks everything the bot process reads: transport credentials,
// backend, scheduled jobs and the optional AMQP mirror.
func (c *Config) Validate() error {
	var errors []string

	switch c.Transport {
	case "telegram":
		if c.TelegramBotToken == "" {
			errors = append(errors, "TELEGRAM_BOT_TOKEN is required for telegram transport")
		}
	case "whatsapp":
		if c.TwilioAccountSID == "" {
			errors = append(errors, "TWILIO_ACCOUNT_SID is required for whatsapp transport")
		}
		if c.TwilioAuthToken == "" {
			errors = append(errors, "TWILIO_AUTH_TOKEN is required for whatsapp transport")
		}
		if c.TwilioFromNumber == "" {
			errors = append(errors, "TWILIO_FROM_NUMBER is required for whatsapp transport")
		}
		if port, err := strconv.Atoi(c.WebhookPort); err != nil {
			errors = append(errors, fmt.Sprintf("invalid webhook port '%s': must be a number", c.WebhookPort))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid webhook port %d: must be between 1 and 65535", port))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid transport '%s': must be one of [telegram whatsapp]", c.Transport))
	}

	errors = c.checkTimezone(errors)

	validBackends := []string{"memory", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		errors = c.checkSQLite(errors)
	}
	if c.AMQPURL != "" {
		errors = c.checkAMQP(errors)
	}
	if c.DataBackend == "sheets" {
		errors = c.checkSheets(errors)
	}

	if c.StoreTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be at least 1 second", c.StoreTimeout))
	}

	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		errors = append(errors, fmt.Sprintf("invalid reminder hour %d: must be between 0 and 23", c.ReminderHour))
	}
	if c.SummaryHour < 0 || c.SummaryHour > 23 {
		errors = append(errors, fmt.Sprintf("invalid summary hour %d: must be between 0 and 23", c.SummaryHour))
	}
	if c.SummaryEnabled && c.SummaryRecipient == "" && c.OwnerID == "" {
		errors = append(errors, "SUMMARY_RECIPIENT (or OWNER_ID) is required when the daily summary is enabled")
	}

	errors = c.checkMirror(errors)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks only what the mirror worker reads: the local SQLite
// ledger, the AMQP queue and the Google Sheets target. Transport credentials
// and scheduler settings belong to the bot process and are not required here.
func (c *Config) ValidateWorker() error {
	var errors []string

	errors = c.checkTimezone(errors)
	errors = c.checkSQLite(errors)

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required, the worker consumes mirror events")
	} else {
		errors = c.checkAMQP(errors)
	}
	errors = c.checkSheets(errors)
	errors = c.checkMirror(errors)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func (c *Config) checkTimezone(errors []string) []string {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	return errors
}

func (c *Config) checkSQLite(errors []string) []string {
	if c.SQLiteDBPath == "" {
		return append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}
	return errors
}

func (c *Config) checkAMQP(errors []string) []string {
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func (c *Config) checkSheets(errors []string) []string {
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the sheets target")
	}
	hasJSON := c.GoogleServiceAccountJSON != ""
	hasFile := c.GoogleServiceAccountFile != ""
	if !hasJSON && !hasFile {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the sheets target")
	}
	if hasFile {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	return errors
}

func (c *Config) checkMirror(errors []string) []string {
	if c.MirrorBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid mirror batch size %d: must be at least 1", c.MirrorBatchSize))
	} else if c.MirrorBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid mirror batch size %d: must be at most 1000", c.MirrorBatchSize))
	}

	if c.MirrorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
