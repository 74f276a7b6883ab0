package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses the hold and sweep durations
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced with must(); the
// reservation tunables fall back to the engine defaults when unset.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	HoldTTL       time.Duration // how long a reservation is held by default
	SweepInterval time.Duration // how often the expiry sweep runs
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),      // environment (dev/test/prod)
		Port:          must("APP_PORT"),     // port to bind the HTTP server
		DBUser:        must("DB_USER"),      // database user
		DBPass:        os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:        must("DB_HOST"),      // database host
		DBPort:        must("DB_PORT"),      // database port
		DBName:        must("DB_NAME"),      // database name
		HoldTTL:       minutes("HOLD_TTL_MIN", 15),      // default hold duration
		SweepInterval: seconds("SWEEP_INTERVAL_SEC", 60), // expiry sweep cadence
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

// minutes reads an integer env var expressed in minutes, with a default.
// A non-positive or malformed value is rejected rather than silently
// disabling holds.
func minutes(key string, def int) time.Duration {
	return time.Duration(positiveInt(key, def)) * time.Minute
}

// seconds reads an integer env var expressed in seconds, with a default.
func seconds(key string, def int) time.Duration {
	return time.Duration(positiveInt(key, def)) * time.Second
}

func positiveInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		log.Fatalf("invalid positive int for %s: %q", key, s)
	}
	return n
}
