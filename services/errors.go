package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Fehlertaxonomie des Write-Paths: Validierungsfehler werden vor jedem Schreibzugriff
// abgewiesen, Integritätsfehler kommen aus der Datenbank, alles andere gilt für den
// Aufrufer als transient.
var (
	// ErrInvalidNCTID: NCT-ID fehlt oder passt nicht auf NCT + 8 Ziffern.
	ErrInvalidNCTID = errors.New("invalid or missing nct_id")

	// ErrTrialNotFound: kein Trial mit dieser NCT-ID vorhanden.
	ErrTrialNotFound = errors.New("trial not found")
)

// IsIntegrityViolation meldet, ob ein Fehler eine Constraint-Verletzung der Datenbank
// ist (SQLSTATE-Klasse 23: Unique, Foreign Key, Not Null).
func IsIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}
