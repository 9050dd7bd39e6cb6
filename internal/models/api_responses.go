package models

// ErrorResponse is the standard error payload for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// IngestResponse reports what one upload did.
type IngestResponse struct {
	RowsIngested      int `json:"rows_ingested"`
	ColumnsMapped     int `json:"columns_mapped"`
	ColumnsSkipped    int `json:"columns_skipped"`
	PeriodsDiscovered int `json:"periods_discovered"`
	EntitiesUpserted  int `json:"entities_upserted"`
}

// BatchResponse reports one portfolio computation run.
type BatchResponse struct {
	PortfolioID int64  `json:"portfolio_id"`
	RunID       string `json:"run_id"`
	Succeeded   int    `json:"succeeded"`
	Partial     int    `json:"partial"`
	Failed      int    `json:"failed"`
}
