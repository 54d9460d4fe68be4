package quest

import "context"

// Command is a local change paired with the remote write that persists it.
// Revert must be the exact inverse of Apply.
type Command struct {
	Name   string
	Apply  func()
	Remote func(ctx context.Context) error
	Revert func()
}

// Run applies the command locally, then writes it remotely. If the write fails
// the local change is reverted and the write error returned.
func Run(ctx context.Context, cmd Command) error {
	cmd.Apply()
	if err := cmd.Remote(ctx); err != nil {
		cmd.Revert()
		return err
	}
	return nil
}
