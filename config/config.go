package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL                string
	DatabaseName       string
	BaseURL            string
	Port               string
	JWTSecret          string
	SendgridAPIKey     string
	AdminNotifyEmail   string
	PendingReminderAge int
	CloudinaryPreset   string
	CloudinarySecret   string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	reminderAge, err := strconv.Atoi(os.Getenv("PENDING_REMINDER_AGE_HOURS"))
	if err != nil || reminderAge <= 0 {
		reminderAge = 48
	}

	return &Config{
		URL:                os.Getenv("DB_URI"),
		DatabaseName:       os.Getenv("DB_NAME"),
		BaseURL:            os.Getenv("BASE_URL"),
		Port:               os.Getenv("PORT"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		SendgridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		AdminNotifyEmail:   os.Getenv("ADMIN_NOTIFY_EMAIL"),
		PendingReminderAge: reminderAge,
		CloudinaryPreset:   os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		CloudinarySecret:   os.Getenv("CLOUDINARY_API_SECRET"),
	}

}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
	return
}
