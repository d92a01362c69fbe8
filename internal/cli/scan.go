package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omni-quota/internal/display"
	"github.com/j-veylop/omni-quota/internal/models"
	"github.com/j-veylop/omni-quota/internal/services/poller"
)

// scanReport is the JSON shape of one cycle.
type scanReport struct {
	Error     string                 `json:"error,omitempty"`
	Primary   models.Identity        `json:"primary,omitempty"`
	Accounts  []models.AccountRecord `json:"accounts"`
	Endpoints int                    `json:"endpoints"`
	Rejected  int                    `json:"rejected"`
	Failed    int                    `json:"failed"`
	Connected bool                   `json:"connected"`
}

func newScanCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one discovery and quota cycle",
		Long: `Find running language servers, query each one once and print the accounts
that were accepted in this cycle.

Examples:
  oq scan
  oq scan --json | jq '.accounts[].models'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, done, err := e.openManager(cmd)
			if err != nil {
				return err
			}
			defer done()

			res := mgr.Scan(cmd.Context())
			accepted := make([]models.AccountRecord, 0, len(res.Accepted))
			for _, id := range res.Accepted {
				if rec, ok := mgr.Accounts().Get(id); ok {
					accepted = append(accepted, rec)
				}
			}

			report := newScanReport(res, accepted)
			if e.flags.JSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return writeScan(cmd.OutOrStdout(), report, mgr.Config().DisplayPrefs())
		},
	}
}

func newScanReport(res poller.CycleResult, accepted []models.AccountRecord) scanReport {
	report := scanReport{
		Primary:   res.Primary.AccountID,
		Accounts:  accepted,
		Endpoints: res.Endpoints,
		Rejected:  res.Rejected,
		Failed:    res.Failed,
		Connected: res.Primary.Connected,
	}
	if res.Err != nil {
		report.Error = res.Err.Error()
	}
	return report
}

func writeScan(w io.Writer, r scanReport, prefs display.Prefs) error {
	status := "connected"
	if !r.Connected {
		status = "offline"
	}
	fmt.Fprintf(w, "Language server: %s (endpoints %d, accepted %d, rejected %d, failed %d)\n",
		status, r.Endpoints, len(r.Accounts), r.Rejected, r.Failed)
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	if len(r.Accounts) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return writeAccountsTable(w, r.Accounts, prefs)
}
