package service

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"unicode"

	"device_controller/internal/fsm"
	"device_controller/internal/logger"
)

// Keypad turns lines of local terminal input into panel events:
//
//	1234      one credential character per rune
//	/f3       select function 3
//	/reset    operator override back to AwaitingCredential
//	//x1      types "/x1"; a doubled slash escapes a leading slash
//
// Commands start with '/', so any other line is typed verbatim.
type Keypad struct {
	panel interface{ Post(fsm.Event) }
	log   *logger.Logger
}

func NewKeypad(d *Devices, log *logger.Logger) *Keypad {
	if log == nil {
		log = logger.Nop()
	}
	return &Keypad{panel: d.Panel, log: log}
}

const commandPrefix = "/"

// ParseKeypadLine converts one input line into events. Unknown commands
// yield nothing.
func ParseKeypadLine(line string) []fsm.Event {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, commandPrefix+commandPrefix):
		return typed(line[len(commandPrefix):])
	case strings.HasPrefix(line, commandPrefix):
		return command(line[len(commandPrefix):])
	}
	return typed(line)
}

func command(cmd string) []fsm.Event {
	switch {
	case strings.EqualFold(cmd, "reset"):
		return []fsm.Event{fsm.Override("keypad reset")}
	case len(cmd) > 1 && (cmd[0] == 'f' || cmd[0] == 'F'):
		fn, err := strconv.Atoi(cmd[1:])
		if err != nil {
			return nil
		}
		return []fsm.Event{fsm.SelectFunction(fn)}
	}
	return nil
}

// typed yields one credential character per non-space rune.
func typed(line string) []fsm.Event {
	var out []fsm.Event
	for _, r := range line {
		if unicode.IsSpace(r) {
			continue
		}
		out = append(out, fsm.CredentialChar(r))
	}
	return out
}

// Run reads r until EOF or ctx is done, posting every parsed event.
func (k *Keypad) Run(ctx context.Context, r io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			k.log.Warnw("keypad_read_failed", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			events := ParseKeypadLine(line)
			if len(events) == 0 {
				k.log.Infow("keypad_unknown_input", "input", line)
				continue
			}
			for _, ev := range events {
				k.panel.Post(ev)
			}
		}
	}
}
