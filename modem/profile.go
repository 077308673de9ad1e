package modem

// Profile captures the per-firmware reply patterns and buffer reserves the
// engine works with. The zero value is not usable; start from SIM800.
type Profile struct {
	Name string

	// OpenVariant completes "AT+CIP<variant>=0,..." for opening a socket.
	OpenVariant string

	ConnectOK    string
	ConnectFail  string
	SendOK       string
	SendFail     string
	CloseOK      string
	ClosePattern string

	// A successful resolution reply must carry this many quote
	// characters, bounds inclusive.
	DNSMinQuotes int
	DNSMaxQuotes int
	// DNSOverhead is the outbound space needed on top of the host length
	// to issue a resolution request.
	DNSOverhead int

	// SendReserve is the minimum outbound space before a send is
	// announced. It covers the announce header.
	SendReserve int
	// RxGetReserve is held back from the outbound space when sizing a
	// receive request.
	RxGetReserve int

	// LineLength bounds one assembled reply unit.
	LineLength int
}

// SIM800 is the profile for SIMCom SIM800 series modems in multi-link,
// manual-receive mode.
var SIM800 = Profile{
	Name:         "SIM800",
	OpenVariant:  "START",
	ConnectOK:    "0, CONNECT OK",
	ConnectFail:  "0, CONNECT FAIL",
	SendOK:       "0, SEND OK",
	SendFail:     "0, SEND FAIL",
	CloseOK:      "0, CLOSE OK",
	ClosePattern: "0, CLOSED",
	DNSMinQuotes: 4,
	DNSMaxQuotes: 10,
	DNSOverhead:  20,
	SendReserve:  22,
	RxGetReserve: 8,
	LineLength:   128,
}
