package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/0x6d6e647a/rpmconf/internal/app"
	"github.com/0x6d6e647a/rpmconf/internal/exitcode"
)

func main() {
	err := app.Execute()
	if err == nil {
		return
	}

	var ec *exitcode.Error
	if errors.As(err, &ec) {
		if ec.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", ec.Err)
		}
		os.Exit(ec.Code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
