package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldAmountCents   = "amount_cents"
	FieldCategory      = "category"
	FieldTimeframe     = "timeframe"
	FieldSlice         = "slice"
	FieldEmail         = "email"
)

// Components defines standard component names
const (
	ComponentAPI          = "api"
	ComponentSession      = "session"
	ComponentTransactions = "transactions"
	ComponentDashboard    = "dashboard"
	ComponentKeystore     = "keystore"
	ComponentAMQP         = "amqp"
	ComponentSheets       = "sheets"
	ComponentCLI          = "cli"
)

// Operations defines standard operation names
const (
	OpLogin    = "login"
	OpRegister = "register"
	OpLogout   = "logout"
	OpVerify   = "verify"
	OpFetch    = "fetch"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpExport   = "export"
	OpPublish  = "publish"
)
