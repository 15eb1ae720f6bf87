// Package input implements the interactive line reads used by the
// resolver and the orphan scanner: reads are flushed (pending type-ahead
// is discarded before the prompt) and cancellable (SIGINT during a read
// resolves immediately instead of blocking until newline).
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// ErrInterrupted is returned when the user sends SIGINT during a read.
// Callers treat it as a cancellation of the whole run, not of the
// current file.
var ErrInterrupted = errors.New("interrupted by user")

type lineResult struct {
	line string
	err  error
}

// Channel reads lines from a file, one prompt at a time.
type Channel struct {
	in    *os.File
	out   io.Writer
	isTTY bool

	once  sync.Once
	lines chan lineResult
}

// New returns a Channel reading from in and writing prompts to out.
func New(in *os.File, out io.Writer) *Channel {
	return &Channel{
		in:    in,
		out:   out,
		isTTY: isatty.IsTerminal(in.Fd()),
	}
}

// pump moves lines from the underlying file into a channel so ReadLine
// can select between input and cancellation. It exits on read error
// (including EOF), forwarding the error as the final result.
func (c *Channel) pump() {
	c.lines = make(chan lineResult, 8)
	go func() {
		r := bufio.NewReader(c.in)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				if line != "" {
					// Final line without trailing newline still counts.
					c.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
				}
				c.lines <- lineResult{err: err}
				close(c.lines)
				return
			}
			c.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
		}
	}()
}

// flush discards input the user typed before the prompt was shown:
// anything already queued in the channel, and anything still pending in
// the kernel's input queue. Only terminals are flushed — piped input is
// consumed sequentially, line by line.
func (c *Channel) flush() {
	if !c.isTTY {
		return
	}
	for {
		select {
		case res, ok := <-c.lines:
			if !ok || res.err != nil {
				return
			}
		default:
			// tcflush(fd, TCIFLUSH); best effort.
			_ = unix.IoctlSetInt(int(c.in.Fd()), unix.TCFLSH, unix.TCIFLUSH)
			return
		}
	}
}

// ReadLine flushes pending input, prints the prompt, and blocks until a
// line arrives, end of input is reached (io.EOF), or the user
// interrupts (ErrInterrupted). No terminal mode is modified, so there
// is nothing to restore on any exit path.
func (c *Channel) ReadLine(prompt string) (string, error) {
	c.once.Do(c.pump)
	c.flush()
	fmt.Fprint(c.out, prompt)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	select {
	case res, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	case <-sig:
		fmt.Fprintln(c.out)
		return "", ErrInterrupted
	}
}
