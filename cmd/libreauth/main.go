// Command libreauth prints TOTP codes and inspects otpauth URIs from the terminal.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	version "github.com/soulteary/version-kit"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/soulteary/libreauth/internal/otpauth"
	"github.com/soulteary/libreauth/internal/totp"
)

var errNoSecret = errors.New("no secret given")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "libreauth",
		Usage:   "TOTP codes and otpauth URIs",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:      "code",
				Usage:     "print the current code for a Base32 secret",
				ArgsUsage: "[SECRET]",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "at",
						Usage: "unix time to generate the code for",
					},
				},
				Action: codeAction,
			},
			{
				Name:      "parse",
				Usage:     "show what an otpauth:// URI contains",
				ArgsUsage: "URI",
				Action:    parseAction,
			},
			{
				Name:   "remaining",
				Usage:  "seconds left in the current 30s window",
				Action: remainingAction,
			},
		},
	}
}

func generator(c *cli.Context) *totp.Generator {
	if !c.IsSet("at") {
		return totp.NewGenerator(nil)
	}
	at := c.Int64("at")
	return totp.NewGenerator(func() int64 { return at })
}

func codeAction(c *cli.Context) error {
	secret := c.Args().First()
	if secret == "" {
		var err error
		if secret, err = readSecret(c.App.Reader, c.App.ErrWriter); err != nil {
			return err
		}
	}

	gen := generator(c)
	code := gen.Generate(secret)
	if totp.IsFallback(code) {
		fmt.Fprintln(c.App.ErrWriter, "warning: code could not be generated, showing fallback")
	}
	fmt.Fprintf(c.App.Writer, "%s  (%ds left)\n", code, gen.RemainingSeconds())
	return nil
}

// readSecret prompts without echo on a terminal and reads one line otherwise.
func readSecret(r io.Reader, prompt io.Writer) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Secret: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return nonEmpty(string(b))
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return nonEmpty(line)
}

func nonEmpty(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errNoSecret
	}
	return s, nil
}

func parseAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: libreauth parse URI")
	}
	d, err := otpauth.Parse(c.Args().First())
	if err != nil {
		return err
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(descriptorRows(d)).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, table)
	return nil
}

func descriptorRows(d *otpauth.Descriptor) pterm.TableData {
	return pterm.TableData{
		{"Field", "Value"},
		{"Type", d.Type},
		{"Issuer", orDash(d.Issuer)},
		{"Account", orDash(d.AccountName)},
		{"Secret", d.Secret},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func remainingAction(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, totp.RemainingSeconds())
	return nil
}
