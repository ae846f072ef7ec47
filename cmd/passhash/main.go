package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"finance-tracker/internal/auth"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run prints a bcrypt hash suitable for PASSCODE_HASH.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("passhash", flag.ContinueOnError)
	fs.SetOutput(stderr)

	passcodeFlag := fs.String("passcode", "", "Passcode (optional, will prompt if omitted)")
	envFormat := fs.Bool("env", false, "Print as a PASSCODE_HASH=... line")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stdout, "Usage: passhash [-passcode <passcode>] [-env]")
		fs.PrintDefaults()
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	passcode := *passcodeFlag
	if passcode == "" {
		fmt.Fprint(stderr, "Passcode: ")
		var err error
		passcode, err = readPasscode(stdin)
		if err != nil {
			return fmt.Errorf("failed to read passcode: %w", err)
		}
		fmt.Fprintln(stderr)
	}

	if strings.TrimSpace(passcode) == "" {
		return fmt.Errorf("passcode cannot be empty")
	}

	hash, err := auth.HashPassword(passcode)
	if err != nil {
		return fmt.Errorf("failed to hash passcode: %w", err)
	}

	if *envFormat {
		// Single quotes keep the $ separators intact for godotenv.
		fmt.Fprintf(stdout, "PASSCODE_HASH='%s'\n", hash)
		return nil
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

func readPasscode(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
