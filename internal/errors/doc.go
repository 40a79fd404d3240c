// Package errors defines the error taxonomy of the reporting pipeline.
//
// Every failure that crosses a package boundary is an *AppError carrying an
// ErrorType:
//
//	CONFIG         missing or malformed configuration or secrets
//	DATASET_LOAD   source workbook missing, unreadable or malformed
//	EMPTY_DATASET  statistics requested over zero records
//	OUTPUT_PATH    target directory of an artifact does not exist
//	RENDER         chart, workbook or document library failure
//	DELIVERY       mail transport failure
//
// Use IsType to branch on a kind without unwrapping by hand:
//
//	if errors.IsType(err, errors.ErrTypeDelivery) {
//	    logger.Warn("report not delivered", slog.String("error", err.Error()))
//	}
package errors
