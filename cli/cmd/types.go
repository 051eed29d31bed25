package cmd

import (
	"context"
	"os"
)

// Types prints the object types sources can construct.
type Types struct{}

// Run executes the types command.
func (*Types) Run(context.Context) error {
	if err := Catalog().Print(os.Stdout); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
