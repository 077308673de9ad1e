package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = ">"

	// Response Codes
	OK        = "OK"
	ERROR     = "ERROR"
	ShutOK    = "SHUT OK"
	NoCarrier = "NO CARRIER"
	CmeError  = "+CME ERROR:"

	// Commands
	CmdAt         = "AT"
	CmdEchoOff    = "ATE0"
	CmdShut       = "AT+CIPSHUT"
	CmdMux        = "AT+CIPMUX=1"
	CmdRxGetMode  = "AT+CIPRXGET=1"
	CmdBringUp    = "AT+CIICR"
	CmdLocalIP    = "AT+CIFSR"
	CmdRxGetQuery = "AT+CIPRXGET=4,0"
	CmdClose      = "AT+CIPCLOSE=0"
	CmdSignal     = "AT+CSQ"

	// Command prefixes completed by the builders in command.go
	CmdDNSPrefix   = "AT+CDNSGIP=\""
	CmdOpenPrefix  = "AT+CIP"
	CmdSendPrefix  = "AT+CIPSEND=0,"
	CmdRxGetPrefix = "AT+CIPRXGET=2,0,"
	CmdAPNPrefix   = "AT+CSTT=\""

	// Replies
	DNSOk        = "+CDNSGIP: 1"
	DNSFail      = "+CDNSGIP: 0"
	DNSReply     = "+CDNSGIP:"
	RxGetPending = "+CIPRXGET: 4,0,"
	RxGetGrant   = "+CIPRXGET: 2,0,"
	RxGetData    = "+CIPRXGET: 1,0"
	Signal       = "+CSQ: "

	// URCs (Unsolicited Result Codes)
	UrcDataPending = RxGetData
	UrcPdpDeact    = "+PDP: DEACT"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // Data entry prompt
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "Final"
	case TypeURC:
		return "URC"
	case TypeData:
		return "Data"
	case TypePrompt:
		return "Prompt"
	default:
		return "Unknown"
	}
}
