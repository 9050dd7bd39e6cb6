package models

// Entity is one security row from the uploaded sheets. Code is the stable
// upload identifier; the exchange identifiers fill the fixed trailing block.
type Entity struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	ISIN    string `json:"isin"`
	BSECode string `json:"bse_code"`
	NSECode string `json:"nse_code"`
}
