package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type activeChecker interface {
	Active() bool
}

// consoleBridge answers host questions on the terminal.
type consoleBridge struct {
	reader   *bufio.Reader
	out      io.Writer
	sessions activeChecker
}

func (b *consoleBridge) HasActiveSession() bool {
	return b.sessions.Active()
}

func (b *consoleBridge) ConfirmNavigation() bool {
	return confirm(b.reader, "Leaving will end the current study session. Continue?", b.out)
}

func (b *consoleBridge) EndSession() {
	_, _ = fmt.Fprintln(b.out, "Study session ended.")
}

func (b *consoleBridge) PromptForSessionName(message, def string) (string, bool) {
	name, err := GetSimpleText(b.reader, fmt.Sprintf("%s [%s] (type 'cancel' to go back)", message, def), b.out)
	if err != nil || strings.EqualFold(name, "cancel") {
		return "", false
	}
	if name == "" {
		return def, true
	}
	return name, true
}
