package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) recordAttendance(ctx context.Context) error {
	summary, err := cli.attSvc.RunDaily(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "attendance recorded: %d no class, %d present, %d absent\n",
		summary.NoClass, summary.Present, summary.Absent)
	return nil
}
