package cli

import (
	"context"
	"errors"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/eventsphere/internal/dependencies/clock"
	"github.com/mcoot/eventsphere/internal/services/scanner"
)

const (
	scanStatusOK        = "checked_in"
	scanStatusDebounced = "debounced"
	scanStatusFailed    = "failed"
)

func newCheckInCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <registration-id>",
		Short: "Check a participant in (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := checkIn(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newScanCmd() *cobra.Command {
	window := scanner.DefaultWindow
	if v, err := time.ParseDuration(os.Getenv("SCAN_DEBOUNCE")); err == nil && v > 0 {
		window = v
	}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Check in registration IDs read from a scanner on stdin (admin)",
		Long: `Read one registration ID per line from stdin, as a keyboard-wedge barcode
scanner types them, and check each one in. Repeat reads inside the debounce
window are ignored. Failed check-ins are reported and scanning continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if window <= 0 {
				return errors.New("--debounce must be positive")
			}

			out := output(cmd)
			s := scanner.New(window, clock.New(), func(ctx context.Context, id string) (string, error) {
				result, err := checkIn(ctx, id)
				if err != nil {
					return "", err
				}
				return result.Message, nil
			})

			err := s.Run(cmd.Context(), scanner.Lines(cmd.InOrStdin()), func(o scanner.Outcome) {
				out.Print(scanResult(o))
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&window, "debounce", window, "Ignore reads this soon after an accepted one (env: SCAN_DEBOUNCE)")

	return cmd
}

func checkIn(ctx context.Context, id string) (CheckInResult, error) {
	var result CheckInResult
	err := client.Post(ctx, "/checkin/"+url.PathEscape(id), nil, &result)
	return result, err
}

func scanResult(o scanner.Outcome) ScanResult {
	switch {
	case o.Debounced:
		return ScanResult{Code: o.Code, Status: scanStatusDebounced}
	case o.Err != nil:
		r := ScanResult{Code: o.Code, Status: scanStatusFailed, Message: o.Err.Error()}
		var apiErr *APIError
		if errors.As(o.Err, &apiErr) {
			r.Message = apiErr.Message
			r.ErrorCode = apiErr.Code
		}
		return r
	default:
		return ScanResult{Code: o.Code, Status: scanStatusOK, Message: o.Message}
	}
}
