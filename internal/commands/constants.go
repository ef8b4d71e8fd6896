package commands

// Interactive shell commands
const (
	Generate  = "generate"
	Save      = "save"
	Scan      = "scan"
	Screen    = "screen"
	ScanImage = "image"
	ScanURL   = "url"
	Cancel    = "cancel"
	Show      = "show"
	Help      = "help"
	Quit      = "quit"
)

// Telegram bot commands and buttons
const (
	Start = "/start"
	Last  = "/last"

	BotHelp        = "/help"
	GenerateButton = "Generate QR"
	ScanButton     = "Scan QR"
	CancelButton   = "Cancel"
)
