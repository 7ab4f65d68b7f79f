package tracker

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// StopCommand is the console line that ends a foreground session.
const StopCommand = "stop"

// ListenForStop calls stop once a line reading "stop" (any case) arrives on
// in, or on SIGINT or SIGTERM. It returns after calling stop or when ctx is
// done. in may be nil, in which case only signals are watched.
func ListenForStop(ctx context.Context, in io.Reader, stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	listen(ctx, in, sigCh, stop)
}

func listen(ctx context.Context, in io.Reader, sigCh <-chan os.Signal, stop func()) {
	lines := make(chan string)
	if in != nil {
		// The reader goroutine may stay blocked in Read after ctx is done;
		// it exits at EOF or with the process.
		go func() {
			scanner := bufio.NewScanner(in)
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			stop()
			return
		case line := <-lines:
			if strings.EqualFold(strings.TrimSpace(line), StopCommand) {
				stop()
				return
			}
		}
	}
}
