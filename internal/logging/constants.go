package logging

// Standard field names used across log output.
const (
	FieldFile          = "file_name"
	FieldBank          = "bank"
	FieldParser        = "parser"
	FieldTransactionID = "transaction_id"
	FieldMerchant      = "merchant"
	FieldCategory      = "category"
	FieldSource        = "source"
	FieldConfidence    = "confidence"
	FieldUserID        = "user_id"
	FieldRequestID     = "request_id"
	FieldOperation     = "operation"
	FieldStatus        = "status"
	FieldReason        = "reason"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldOutputFile    = "output_file"
)
