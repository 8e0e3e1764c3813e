package main

import (
	"errors"
	"fmt"
)

var errNameRequired = errors.New("name is required for 'create' command")

func errUnknownCommand(cmd string) error {
	return fmt.Errorf("unknown command %q, use: up, down, status, create", cmd)
}
