// Package ids generates and checks the KSUID identifiers used for every
// persisted record.
package ids

import "github.com/segmentio/ksuid"

func New() string {
	return ksuid.New().String()
}

// Valid reports whether s is a well-formed identifier.
func Valid(s string) bool {
	if len(s) != 27 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	_, err := ksuid.Parse(s)
	return err == nil
}
