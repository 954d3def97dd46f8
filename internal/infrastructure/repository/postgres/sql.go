package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"
	"github.com/riskibarqy/codstats/internal/usecase"
)

// storageError wraps any database failure as *usecase.StorageIOError.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}

	var storageErr *usecase.StorageIOError
	if errors.As(err, &storageErr) {
		return err
	}
	return &usecase.StorageIOError{Op: op, Connection: isConnectionError(err), Err: err}
}

// isConnectionError reports lost or refused connections: SQLSTATE class 08,
// admin/crash shutdown 57P01..57P03, and driver level bad connections.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "08" {
			return true
		}
		switch pqErr.Code {
		case "57P01", "57P02", "57P03":
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
