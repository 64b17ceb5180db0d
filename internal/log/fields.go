package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldUser      = "user"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldMonth     = "month"
	FieldDate      = "date"
	FieldTxID      = "tx_id"
	FieldBackend   = "backend"
	FieldError     = "error"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentDispatcher = "dispatcher"
	ComponentStorage    = "storage"
	ComponentSheets     = "sheets"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentScheduler  = "scheduler"
	ComponentTelegram   = "telegram"
	ComponentWhatsApp   = "whatsapp"
	ComponentBackend    = "backend"
)
