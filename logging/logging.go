// Package logging builds the process-wide structured logger and the
// separate audit-trail logger, injected explicitly into every component's
// constructor per spec §9's "re-architect as explicit dependencies" note —
// never package-level globals.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
)

// New builds the zerolog logger used for operational logging across every
// scheduler, executor, and client component.
func New(component string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// NewAudit builds the logrus-backed audit trail logger used for claim and
// trade history mirrors (SPEC_FULL §10): every confirmed trade and claim is
// additionally logged here as a durable, greppable line independent of the
// Store, for operators who tail logs rather than query the database.
func NewAudit() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)
	return l
}

// TokenFields returns the common set of log fields attached to every
// per-token log line (token_id, mint), mirroring the teacher's
// trader_id/exchange field convention.
func TokenFields(logger zerolog.Logger, tokenID, mint string) zerolog.Logger {
	return logger.With().Str("token_id", tokenID).Str("mint", mint).Logger()
}
