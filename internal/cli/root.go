package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/config"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/ui"
)

var (
	// ErrNoMode is returned when neither mode flag is given
	ErrNoMode = errors.New("no mode selected: pass --yesterday or --initial-fetch")

	// ErrDeclined is returned when the operator does not confirm a backfill
	ErrDeclined = errors.New("initial fetch declined")
)

// Exit codes of the ga4-loader binary
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitNoMode   = 2
	ExitDeclined = 3
)

// RunFunc performs the job once the mode is settled
type RunFunc func(ctx context.Context, configPath string, mode domain.Mode, narrator *ui.Narrator) error

// Deps are the collaborators of the root command
type Deps struct {
	Confirmer Confirmer
	Run       RunFunc
	Out       io.Writer
}

// NewRootCommand builds the ga4-loader command
func NewRootCommand(deps Deps) *cobra.Command {
	var (
		yesterday    bool
		initialFetch bool
		configPath   string
	)

	cmd := &cobra.Command{
		Use:   "ga4-loader",
		Short: "Export GA4 metrics and load them into monthly warehouse tables",
		Long: `Fetch traffic and event metrics from the GA4 Data API, write them to the
export file, and load them into one warehouse table per calendar month.

Modes:
  --yesterday       fetch the previous day; records already in the warehouse are skipped
  --initial-fetch   fetch from WAREHOUSE_INITIAL_FETCH_FROM_DATE through today without
                    duplicate checks, after confirmation`,
		Example: `  # Daily scheduled run
  $ ga4-loader --yesterday

  # One-off backfill with a custom config file
  $ ga4-loader --initial-fetch --config prod.env`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			narrator := ui.NewNarrator(deps.Out)

			mode, err := selectMode(yesterday, initialFetch)
			if err != nil {
				narrator.Error("Please provide a valid argument: --yesterday or --initial-fetch")
				return err
			}

			if mode == domain.ModeBackfill {
				ok, err := deps.Confirmer.Confirm(BackfillPrompt)
				if err != nil {
					return err
				}
				if !ok {
					narrator.Info("Initial fetch cancelled")
					return ErrDeclined
				}
			}

			return deps.Run(cmd.Context(), configPath, mode, narrator)
		},
	}

	cmd.Flags().BoolVar(&yesterday, "yesterday", false, "Fetch the previous calendar day")
	cmd.Flags().BoolVar(&initialFetch, "initial-fetch", false, "Backfill from the configured start date through today")
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Path to the env-format config file")
	cmd.MarkFlagsMutuallyExclusive("yesterday", "initial-fetch")

	if deps.Out != nil {
		cmd.SetOut(deps.Out)
	}

	return cmd
}

func selectMode(yesterday, initialFetch bool) (domain.Mode, error) {
	switch {
	case yesterday:
		return domain.ModeRecent, nil
	case initialFetch:
		return domain.ModeBackfill, nil
	default:
		return "", ErrNoMode
	}
}

// ExitCode maps the error returned by the root command to a process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrNoMode):
		return ExitNoMode
	case errors.Is(err, ErrDeclined):
		return ExitDeclined
	default:
		return ExitFailure
	}
}
