package utils

import (
	"fmt"
	"strings"
)

// TopicMatches returns true if the received topic matches the subscription
// topic, honouring the MQTT '+' and '#' wildcards.
func TopicMatches(subscription, received string) bool {
	sub := strings.Split(subscription, "/")
	rec := strings.Split(received, "/")

	for i, s := range sub {
		switch s {
		case "#":
			// '#' is only valid as the last level
			return i == len(sub)-1
		case "+":
			if i >= len(rec) {
				return false
			}
		default:
			if i >= len(rec) || rec[i] != s {
				return false
			}
		}
	}
	return len(sub) == len(rec)
}

func GetNthTopicSegmentFromEnd(topic string, n int) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 0 {
		return ""
	}

	index := len(parts) - 1 - n
	if index < 0 || index >= len(parts) {
		return ""
	}

	return parts[index]
}

// replaceBinaryWithHex scans the string and replaces any non-printable characters
// (outside ASCII 32-126) with their hex-encoded form.
func ReplaceBinaryWithHex(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= 32 && r <= 126 {
			b.WriteRune(r)
		} else {
			b.WriteString(fmt.Sprintf("\\x%02X", r))
		}
	}
	return b.String()
}

// examine the payload and heuristically determine if it's a binary frame or a json packet
func IsLikelyJSON(payload []byte) bool {
	// Trim leading whitespace and check if the first non-space char is '{'
	for _, b := range payload {
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		return (b == '{')
	}
	return false
}
