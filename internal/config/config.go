package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv" // godotenv seeds the environment from a .env file
)

// Config holds the core runtime configuration values.  Each field
// corresponds to an environment variable.  Component specific settings
// (queue, cache, rate limit, simulation) live in their own loaders.
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
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding values already present in the environment.  A
// missing file is not an error; the service runs fine on a bare
// environment.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("config: failed to load %s: %v", f, err)
		}
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            envStr("APP_ENV", "dev"),                 // environment (dev/test/prod)
		Port:           envStr("APP_PORT", "8080"),               // port to bind the HTTP server
		DBUser:         must("DB_USER"),                          // database user
		DBPass:         os.Getenv("DB_PASS"),                     // database password (empty allowed)
		DBHost:         must("DB_HOST"),                          // database host
		DBPort:         envStr("DB_PORT", "3306"),                // database port
		DBName:         must("DB_NAME"),                          // database name
		JWTSecret:      must("JWT_SECRET"),                       // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN", 15),      // TTL for access tokens in minutes
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS", 7),     // TTL for refresh tokens in days
		BcryptCost:     mustInt("BCRYPT_COST", 10),               // bcrypt cost factor
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

// mustInt returns the integer value of key, or def when it is unset.  A
// value that is present but not an integer is fatal.
func mustInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
