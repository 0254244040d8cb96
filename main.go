package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Zhima-Mochi/minishop-inventory/internal/domain/payment"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "minishop",
		Usage:  "orders & inventory service",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server (configured from the environment)",
				Action: serve,
			},
			{
				Name:      "sign",
				Usage:     "print the X-Webhook-Signature header value for a payload",
				ArgsUsage: "[payload-file]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "secret",
						Usage:    "shared webhook secret",
						EnvVars:  []string{"WEBHOOK_SECRET"},
						Required: true,
					},
				},
				Action: sign,
			},
		},
	}
}

// sign reads the payload from the file argument, or stdin when none is given.
func sign(c *cli.Context) error {
	var (
		body []byte
		err  error
	)
	if path := c.Args().First(); path != "" && path != "-" {
		body, err = os.ReadFile(path)
	} else {
		body, err = io.ReadAll(c.App.Reader)
	}
	if err != nil {
		return fmt.Errorf("sign: read payload: %w", err)
	}

	_, err = fmt.Fprintln(c.App.Writer, payment.Sign([]byte(c.String("secret")), body))
	return err
}
