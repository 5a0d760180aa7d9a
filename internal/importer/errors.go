package importer

import (
	"errors"
	"fmt"

	"stock-service/internal/models"
)

// ErrNoData is returned when neither report section produced a single entry.
// Nothing is persisted in that case.
var ErrNoData = errors.New("no stock data found in spreadsheet")

// PartialFailureError reports which stock tables could not be written. The
// table that succeeded is left as written.
type PartialFailureError struct {
	GeneralErr error
	ReadyErr   error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("stock import %s: general stock %s, ready stock %s",
		e.describe(), outcome(e.GeneralErr), outcome(e.ReadyErr))
}

func (e *PartialFailureError) describe() string {
	if e.GeneralErr != nil && e.ReadyErr != nil {
		return "failed"
	}
	return "partially failed"
}

// Succeeded lists the views that were persisted
func (e *PartialFailureError) Succeeded() []models.StockView {
	var ok []models.StockView
	if e.GeneralErr == nil {
		ok = append(ok, models.StockViewGeneral)
	}
	if e.ReadyErr == nil {
		ok = append(ok, models.StockViewReady)
	}
	return ok
}

// AllFailed reports whether no table was written
func (e *PartialFailureError) AllFailed() bool {
	return e.GeneralErr != nil && e.ReadyErr != nil
}

func (e *PartialFailureError) Unwrap() []error {
	var errs []error
	if e.GeneralErr != nil {
		errs = append(errs, e.GeneralErr)
	}
	if e.ReadyErr != nil {
		errs = append(errs, e.ReadyErr)
	}
	return errs
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "failed (" + err.Error() + ")"
}
