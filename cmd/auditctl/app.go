package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	storefile "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/store/file"
)

// errChainInvalid makes verify exit non-zero on a broken chain.
var errChainInvalid = errors.New("audit chain is invalid")

const compactFlag = "compact"

// newApp builds the command tree. Commands hold parse state, so every run
// gets a fresh tree.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "auditctl",
		Usage:   "Inspect and verify decision audit logs offline",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: compactFlag, Usage: "Print JSON on one line"},
		},
		Commands: []*cli.Command{
			verifyCmd(),
			getCmd(),
			fingerprintCmd(),
		},
	}
}

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Walk the hash chain and report the first break",
		ArgsUsage: "<audit-file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := arg(cmd, 0, "audit-file")
			if err != nil {
				return err
			}
			store, err := openReadOnly(path)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := audit.Verify(ctx, store)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if !report.Valid {
				return errChainInvalid
			}
			return nil
		},
	}
}

func getCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the first record for a decision ID",
		ArgsUsage: "<audit-file> <decision-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := arg(cmd, 0, "audit-file")
			if err != nil {
				return err
			}
			id, err := arg(cmd, 1, "decision-id")
			if err != nil {
				return err
			}
			store, err := openReadOnly(path)
			if err != nil {
				return err
			}
			log, err := audit.Open(ctx, store)
			if err != nil {
				_ = store.Close()
				return err
			}
			defer log.Close()

			rec, err := log.Get(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
}

func fingerprintCmd() *cli.Command {
	return &cli.Command{
		Name:      "fingerprint",
		Usage:     "Print the input hash an application document would be audited under",
		ArgsUsage: "<json-file>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := arg(cmd, 0, "json-file")
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			if !json.Valid(raw) {
				return fmt.Errorf("%s is not valid JSON", path)
			}
			hash, err := audit.Fingerprint(json.RawMessage(raw))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, hash)
			return err
		},
	}
}

func arg(cmd *cli.Command, i int, name string) (string, error) {
	v := cmd.Args().Get(i)
	if v == "" {
		return "", fmt.Errorf("missing <%s> argument", name)
	}
	return v, nil
}

// openReadOnly never creates or repairs the log, so it is safe to point at a
// file a running server is appending to.
func openReadOnly(path string) (*storefile.Store, error) {
	return storefile.OpenReadOnly(path)
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cli.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.Root().Reader)
	}
	return os.ReadFile(path)
}

func printJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(cmd.Root().Writer)
	if !cmd.Root().Bool(compactFlag) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
