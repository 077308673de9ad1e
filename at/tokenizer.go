package at

import (
	"bufio"
	"bytes"
	"strings"
)

// promptToken is the data entry prompt as the modem emits it.
const promptToken = Prompt + " "

// Splitter is used for tokenizing AT command traffic. It uses the
// signature of bufio.SplitFunc so it can be directly used with
// bufio.Scanner.
//
// It splits the input by CRLF line endings and also recognizes the
// data entry prompt ("> ").
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// 1. Match data entry prompt
	if bytes.HasPrefix(data, []byte(promptToken)) {
		return len(promptToken), data[0:len(promptToken)], nil
	}

	// 2. Match standard line ending with CRLF
	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of a modem line. Surrounding whitespace,
// including the line terminator, is ignored.
func Classify(line string) ResponseType {
	line = strings.TrimSpace(line)
	if line == Prompt {
		return TypePrompt
	}

	// Direct matches for final results
	switch line {
	case OK, ERROR, ShutOK, NoCarrier:
		return TypeFinal
	}

	// Prefix matches
	switch {
	case strings.HasPrefix(line, CmeError):
		return TypeFinal
	case strings.HasPrefix(line, UrcDataPending), strings.HasPrefix(line, UrcPdpDeact):
		return TypeURC
	case strings.HasSuffix(line, ", CLOSED"):
		return TypeURC
	default:
		return TypeData
	}
}

// IsError reports whether line is a final failure result.
func IsError(line string) bool {
	line = strings.TrimSpace(line)
	return line == ERROR || strings.HasPrefix(line, CmeError)
}
