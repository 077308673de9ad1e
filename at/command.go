package at

import "strconv"

// DNSQuery builds the domain resolution request for host.
func DNSQuery(host string) string {
	return CmdDNSPrefix + host + "\"" + CRLF
}

// Open builds the connection command for a firmware variant ("START" on
// SIM800, "OPEN" on SIM7x00) on link 0.
func Open(variant, ip string, port uint16) string {
	return CmdOpenPrefix + variant + "=0,\"TCP\",\"" + ip + "\"," + strconv.FormatUint(uint64(port), 10) + CRLF
}

// Send announces n payload bytes on link 0.
func Send(n int) string {
	return CmdSendPrefix + strconv.Itoa(n) + CRLF
}

// RxGet requests n buffered bytes from link 0.
func RxGet(n int) string {
	return CmdRxGetPrefix + strconv.Itoa(n) + CRLF
}

// APN builds the access point setup command. Credentials are only sent
// when a user is given.
func APN(apn, user, password string) string {
	cmd := CmdAPNPrefix + apn + "\""
	if user != "" {
		cmd += ",\"" + user + "\",\"" + password + "\""
	}
	return cmd + CRLF
}

// Command terminates a plain command.
func Command(cmd string) string {
	return cmd + CRLF
}
