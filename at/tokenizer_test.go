package at_test

import (
	"bufio"
	"strings"
	"testing"

	"i4.energy/across/simcomm/at"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Simple AT command response",
			input:    "AT+CSQ\r\n+CSQ: 15,99\r\nOK\r\n",
			expected: []string{"AT+CSQ", "+CSQ: 15,99", "OK"},
		},
		{
			name:     "AT command with error",
			input:    "AT+CIICR\r\n+CME ERROR: 10\r\n",
			expected: []string{"AT+CIICR", "+CME ERROR: 10"},
		},
		{
			name:     "Send sequence",
			input:    "AT+CIPSEND=0,5\r\n> hello\r\n0, SEND OK\r\n",
			expected: []string{"AT+CIPSEND=0,5", "> ", "hello", "0, SEND OK"},
		},
		{
			name:     "DNS resolution",
			input:    "AT+CDNSGIP=\"example.com\"\r\nOK\r\n+CDNSGIP: 1,\"example.com\",\"93.184.216.34\"\r\n",
			expected: []string{"AT+CDNSGIP=\"example.com\"", "OK", "+CDNSGIP: 1,\"example.com\",\"93.184.216.34\""},
		},
		{
			name:     "URC mixed with AT response",
			input:    "AT+CSQ\r\n+CIPRXGET: 1,0\r\n+CSQ: 20,99\r\nOK\r\n",
			expected: []string{"AT+CSQ", "+CIPRXGET: 1,0", "+CSQ: 20,99", "OK"},
		},
		{
			name:     "Prompt only",
			input:    "> ",
			expected: []string{"> "},
		},
		{
			name:     "Empty lines handling",
			input:    "\r\n\r\nAT\r\nOK\r\n\r\n",
			expected: []string{"", "", "AT", "OK", ""},
		},
		{
			name:     "Incomplete command at EOF",
			input:    "AT+CSQ\r\n+CSQ: 15,99",
			expected: []string{"AT+CSQ", "+CSQ: 15,99"},
		},
		{
			name:     "Partial prompt at EOF",
			input:    "AT+CIPSEND=0,3\r\n>",
			expected: []string{"AT+CIPSEND=0,3", ">"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %v\nGot: %v",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected at.ResponseType
	}{
		// Final responses
		{name: "OK response", input: "OK", expected: at.TypeFinal},
		{name: "OK with terminator", input: "OK\r\n", expected: at.TypeFinal},
		{name: "ERROR response", input: "ERROR", expected: at.TypeFinal},
		{name: "SHUT OK", input: "SHUT OK", expected: at.TypeFinal},
		{name: "CME Error", input: "+CME ERROR: 30", expected: at.TypeFinal},

		// URCs
		{name: "Data pending URC", input: "+CIPRXGET: 1,0", expected: at.TypeURC},
		{name: "PDP deactivated", input: "+PDP: DEACT", expected: at.TypeURC},
		{name: "Link closed", input: "0, CLOSED\r\n", expected: at.TypeURC},

		// Data responses
		{name: "Signal quality response", input: "+CSQ: 15,99", expected: at.TypeData},
		{name: "Receive grant", input: "+CIPRXGET: 2,0,5,0", expected: at.TypeData},
		{name: "Local IP", input: "10.0.0.7", expected: at.TypeData},

		// Prompt
		{name: "Data entry prompt", input: ">", expected: at.TypePrompt},
		{name: "Data entry prompt with space", input: "> ", expected: at.TypePrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := at.Classify(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestIsError(t *testing.T) {
	for _, line := range []string{"ERROR", "ERROR\r\n", "+CME ERROR: 3"} {
		if !at.IsError(line) {
			t.Errorf("IsError(%q) = false", line)
		}
	}
	for _, line := range []string{"OK", "0, CONNECT FAIL", ""} {
		if at.IsError(line) {
			t.Errorf("IsError(%q) = true", line)
		}
	}
}
