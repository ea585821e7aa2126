package main

import (
	"context"
	"fmt"
)

// accrueFees runs the fee accrual over the whole student body. Safe to repeat:
// students already billed are skipped.
func (cli *commandLine) accrueFees() error {
	res, err := cli.feeSvc.Accrue(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("charged %d student(s), skipped %d already billed\n", res.Charged, res.Skipped)
	for _, class := range res.Missing {
		fmt.Printf("no fee structure for class %q\n", class)
	}
	return nil
}
