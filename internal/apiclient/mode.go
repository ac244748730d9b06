package apiclient

import (
	"fmt"
	"strings"
)

// Mode selects where a question is answered.
type Mode string

const (
	Cloud Mode = "cloud"
	Local Mode = "local"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Cloud:
		return Cloud, nil
	case Local:
		return Local, nil
	}
	return "", fmt.Errorf("unknown mode %q (want cloud or local)", s)
}

// Label is the name shown in the mode indicator.
func (m Mode) Label() string {
	if m == Local {
		return "Local AI (Ollama)"
	}
	return "Cloud AI (Groq)"
}

func (m Mode) endpoint() string {
	if m == Local {
		return "/local_chat/invoke"
	}
	return "/chat/invoke"
}
