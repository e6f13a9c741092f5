package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/todoapp/todoapp-go/internal/crypto"
)

func secretCmd() *cli.Command {
	length := crypto.DefaultSecretLength
	return &cli.Command{
		Name:  "secret",
		Usage: "Print a random value suitable for JWT_SECRET",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "length",
				Aliases:     []string{"n"},
				Usage:       "Number of characters in the secret",
				Value:       length,
				Destination: &length,
			},
		},
		Action: func(c *cli.Context) error {
			secret, err := crypto.GenerateSecret(length)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, secret)
			return err
		},
	}
}
