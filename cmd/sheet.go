package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playsheet/internal/shared"
	"github.com/desertthunder/playsheet/internal/sheet"
	"github.com/urfave/cli/v3"
)

// SheetPreview prints the track requests an import of the file would process.
func (r *Runner) SheetPreview(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: spreadsheet file", shared.ErrMissingArgument)
	}

	requests, err := sheet.Load(path)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(requests, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%s)", path, sheet.DetectFormat(path)))
	for _, req := range requests {
		r.writePlain("%4d  %s\n", req.Row, req)
	}
	return r.writePlainln("%d tracks", len(requests))
}
