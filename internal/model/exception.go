package model

const UnknownExceptionType = "Unknown"

// ExceptionRecord is one exception row projected from the query result.
type ExceptionRecord struct {
	Timestamp     string `json:"timestamp"`
	Type          string `json:"type"`
	Message       string `json:"message"`
	OperationName string `json:"operation_name"`
}

// ExceptionFromRow projects a row positionally onto an ExceptionRecord. Rows
// with fewer than four cells yield ok == false. Cells that are not strings
// fall back to "" ("Unknown" for the type).
func ExceptionFromRow(row []Cell) (rec ExceptionRecord, ok bool) {
	if len(row) < 4 {
		return ExceptionRecord{}, false
	}
	return ExceptionRecord{
		Timestamp:     row[0].StringOr(""),
		Type:          row[1].StringOr(UnknownExceptionType),
		Message:       row[2].StringOr(""),
		OperationName: row[3].StringOr(""),
	}, true
}
