//go:build unix

package bridge

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ttySource reads the controlling terminal. Resize detection uses a
// self-pipe written by a SIGWINCH watcher so a single poll covers both
// the tty and resize notifications.
type ttySource struct {
	tty    *os.File
	ownsFd bool

	pipeR, pipeW *os.File
	sigCh        chan os.Signal
	done         chan struct{}
}

func openTTY() (*ttySource, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	owns := true
	if err != nil {
		tty = os.Stdin
		owns = false
	}

	pipeR, pipeW, err := os.Pipe()
	if err != nil {
		if owns {
			_ = tty.Close()
		}
		return nil, err
	}

	s := &ttySource{
		tty:    tty,
		ownsFd: owns,
		pipeR:  pipeR,
		pipeW:  pipeW,
		sigCh:  make(chan os.Signal, 1),
		done:   make(chan struct{}),
	}
	signal.Notify(s.sigCh, syscall.SIGWINCH)
	go s.watchResize()
	return s, nil
}

func (s *ttySource) watchResize() {
	for {
		select {
		case <-s.sigCh:
			_, _ = s.pipeW.Write([]byte{0})
		case <-s.done:
			return
		}
	}
}

func (s *ttySource) ReadInput(p []byte) (int, bool, error) {
	fds := []unix.PollFd{
		{Fd: int32(s.tty.Fd()), Events: unix.POLLIN},
		{Fd: int32(s.pipeR.Fd()), Events: unix.POLLIN},
	}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, false, err
		}
		if fds[1].Revents&unix.POLLIN != 0 {
			// Drain coalesced resize notifications.
			var drain [16]byte
			_, _ = s.pipeR.Read(drain[:])
			return 0, true, nil
		}
		if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			n, err := s.tty.Read(p)
			if n == 0 && err == nil {
				return 0, false, os.ErrClosed
			}
			return n, false, err
		}
	}
}

func (s *ttySource) Size() (rows, cols int, err error) {
	w, h, err := term.GetSize(int(s.tty.Fd()))
	if err != nil {
		return 0, 0, err
	}
	return h, w, nil
}

func (s *ttySource) Close() error {
	signal.Stop(s.sigCh)
	close(s.done)
	_ = s.pipeR.Close()
	_ = s.pipeW.Close()
	if s.ownsFd {
		return s.tty.Close()
	}
	return nil
}
