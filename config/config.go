// Package config loads the engine's environment-driven configuration, the
// same getEnv/getEnvAsInt shape the teacher's own config package uses,
// extended with every option spec §6's configuration table names plus the
// control surface's own bind address, database path, and superuser
// bootstrap list.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds every environment-tunable knob the engine reads at startup.
type Config struct {
	// DBPath is the SQLite catalog file the engine opens on startup.
	DBPath string
	// ControlBindAddr is the address the HTTP control surface listens on.
	ControlBindAddr string
	// SQLEnabled gates the /sql passthrough resource.
	SQLEnabled bool

	// Bumpers is the name of the bumpers playlist; empty means the
	// superlist of every catalog item.
	Bumpers string
	// LegalID is the name of the legal-id playlist LEGAL_ID requirements
	// draw from.
	LegalID string
	// LegalIDMaxLength caps how long a legal-id candidate may run.
	LegalIDMaxLength int
	// BumperCutoff is the seconds threshold above which the automation
	// loop rotates the main show instead of reaching for bumpers.
	BumperCutoff int
	// SleepCutoff is the largest deliberately generated silence gap, in
	// seconds, the loop will pad rather than refuse.
	SleepCutoff int
	// ImplicitLegalID synthesizes a top-of-hour LEGAL_ID requirement into
	// the effective schedule.
	ImplicitLegalID bool
	// ImplicitLegalIDGap is the gap attached to that synthesized
	// requirement.
	ImplicitLegalIDGap int
	// DefaultHuman starts the engine in manual-override mode.
	DefaultHuman bool
	// DoInit runs every reboot=true requirement once before the
	// automation loop and control surface start serving.
	DoInit bool
	// FastShutdown exits immediately on a shutdown signal rather than
	// waiting for the in-flight track to finish.
	FastShutdown bool

	// MPlayerBinary is the media subprocess binary the player session
	// spawns.
	MPlayerBinary string
	// MPlayerTimeout is the liveness window, in seconds, before a
	// non-responsive child is declared hung.
	MPlayerTimeout int
	// MPlayerErrorLog is the path the child's stderr is appended to. A
	// blank value discards it.
	MPlayerErrorLog string

	// MaxOpenFiles is the RLIMIT_NOFILE ceiling the process raises its own
	// limit to at startup, per spec §5's file-descriptor ceiling.
	MaxOpenFiles uint64

	// SuperuserBootstrap is a "user:password" pair seeded into the
	// catalog's superusers table at startup if that username has no row
	// yet; an existing row for it is left unchanged. Blank disables
	// bootstrapping — an operator is expected to have already provisioned
	// one.
	SuperuserBootstrap string
}

// Load reads Config from the process environment, falling back to the
// documented defaults for anything unset.
func Load() *Config {
	return &Config{
		DBPath:           getEnv("DB_PATH", "./denpa-radio.db"),
		ControlBindAddr:  getEnv("CONTROL_BIND_ADDR", ":8090"),
		SQLEnabled:       getEnvAsBool("SQL_ENABLED", false),
		Bumpers:          getEnv("BUMPERS", ""),
		LegalID:          getEnv("LEGALID", ""),
		LegalIDMaxLength: getEnvAsInt("LEGALID_MAX_LENGTH", 60),
		BumperCutoff:     getEnvAsInt("BUMPERCUTOFF", 200),
		SleepCutoff:      getEnvAsInt("SLEEPCUTOFF", 4),

		ImplicitLegalID:    getEnvAsBool("IMPLICIT_LEGALID", true),
		ImplicitLegalIDGap: getEnvAsInt("IMPLICIT_LEGALID_GAP", 180),
		DefaultHuman:       getEnvAsBool("DEFAULTHUMAN", false),
		DoInit:             getEnvAsBool("DOINIT", false),
		FastShutdown:       getEnvAsBool("FAST_SHUTDOWN", false),

		MPlayerBinary:   getEnv("MPLAYER", "mplayer"),
		MPlayerTimeout:  getEnvAsInt("MPLAYERTIMEOUT", 6),
		MPlayerErrorLog: getEnv("MPLAYER_ERRORLOG", ""),

		MaxOpenFiles: uint64(getEnvAsInt("MAX_OPEN_FILES", 4096)),

		SuperuserBootstrap: getEnv("SUPERUSER_BOOTSTRAP", ""),
	}
}

// SuperuserBootstrapPair splits SuperuserBootstrap into username/password,
// reporting ok=false if it is blank or malformed.
func (c *Config) SuperuserBootstrapPair() (username, password string, ok bool) {
	user, pass, found := strings.Cut(c.SuperuserBootstrap, ":")
	if !found || user == "" || pass == "" {
		return "", "", false
	}
	return user, pass, true
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}
