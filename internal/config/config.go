package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time resolves the hotel's operating timezone
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and limits.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	AdminSecret     string // shared secret required to register staff accounts
	CronSecret      string // shared secret required by the review-request sweep
	MailgunAPIKey   string // API key for the outbound email provider
	MailgunDomain   string // sending domain registered with the provider
	EmailFrom       string // From address for reservation emails
	FrontendBaseURL string // base URL used to build cancel/review links

	LocalTZ            *time.Location // hotel operating timezone (review sweep)
	CapacityWindowDays int            // how many days ahead capacity may be set
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		AdminSecret:     must("ADMIN_SECRET"),
		CronSecret:      must("CRON_SECRET"),
		MailgunAPIKey:   must("MAILGUN_API_KEY"),
		MailgunDomain:   must("MAILGUN_DOMAIN"),
		EmailFrom:       getenv("EMAIL_FROM", "reservations@seagullhotel.com"),
		FrontendBaseURL: must("FRONTEND_BASE_URL"),

		LocalTZ:            mustTZ(getenv("LOCAL_TIMEZONE", "Africa/Cairo")),
		CapacityWindowDays: envInt("CAPACITY_WINDOW_DAYS", 6),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustTZ resolves an IANA timezone name or exits.
func mustTZ(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", name, err)
	}
	return loc
}
