// Command serialmon attaches the local terminal to the kernel's serial
// console. Point it at the pty QEMU creates for its serial chardev:
//
//	qemu-system-x86_64 -cdrom build/kernel.iso -serial pty &
//	serialmon /dev/pts/3
//
// The local terminal is switched to raw mode so control characters reach
// the guest; exit with ctrl-].
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-tty"
	"golang.org/x/sys/unix"
)

const exitChar = 0x1d // ctrl-]

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <serial-pty>\n", os.Args[0])
		os.Exit(2)
	}

	if err := monitor(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "serialmon: %v\n", err)
		os.Exit(1)
	}
}

func monitor(path string) error {
	port, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer port.Close()

	if err = makeRaw(int(port.Fd())); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	term, err := tty.Open()
	if err != nil {
		return err
	}
	defer term.Close()

	restore, err := term.Raw()
	if err != nil {
		return err
	}
	defer restore()

	// Serial output flows to the terminal in the background; the loop
	// below feeds keystrokes the other way.
	go io.Copy(term.Output(), port)

	for {
		r, err := term.ReadRune()
		if err != nil {
			return err
		}
		if r == exitChar {
			return nil
		}

		if _, err = port.Write([]byte(string(r))); err != nil {
			return err
		}
	}
}

// makeRaw disables line buffering and character translation on the pty so
// the byte stream passes through untouched.
func makeRaw(fd int) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, unix.TCSETS, termios)
}
