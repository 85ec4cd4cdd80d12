package app

import (
	"bufio"
	"context"
	"errors"
	"io"
)

// WaitForEnter blocks until a line or EOF is read from r, or ctx is done.
// On ctx the pending read is abandoned; r is expected to be process stdin.
func WaitForEnter(ctx context.Context, r io.Reader) error {
	read := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(r).ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		read <- err
	}()

	select {
	case err := <-read:
		return err
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
