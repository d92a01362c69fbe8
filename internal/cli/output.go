package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/j-veylop/omni-quota/internal/display"
	"github.com/j-veylop/omni-quota/internal/models"
)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// writeAccountsTable prints one row per model of every account.
func writeAccountsTable(w io.Writer, accounts []models.AccountRecord, prefs display.Prefs) error {
	if len(accounts) == 0 {
		_, err := fmt.Fprintln(w, "No accounts stored.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ACCOUNT\tID\tTIER\tMODEL\tREMAINING\tRESET")
	for _, acc := range accounts {
		ms := display.FilterModels(acc.Models, prefs)
		if len(ms) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\n", acc.DisplayName, acc.ID, acc.Tier)
			continue
		}
		for _, mq := range ms {
			level := display.StatusColor(mq.Percentage, prefs.WarningThreshold, prefs.CriticalThreshold)
			reset := mq.ResetLabel
			if reset == "" {
				reset = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s %d%%\t%s\n",
				acc.DisplayName, acc.ID, acc.Tier, mq.Name, level.Marker(), mq.Percentage, reset)
		}
	}
	return tw.Flush()
}

// writeAccountDetail prints one account as label/value rows and its models.
func writeAccountDetail(w io.Writer, d accountDetail, prefs display.Prefs) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Name:\t%s\n", d.DisplayName)
	fmt.Fprintf(tw, "ID:\t%s\n", d.ID)
	if d.Email != "" {
		fmt.Fprintf(tw, "Email:\t%s\n", d.Email)
	}
	fmt.Fprintf(tw, "Tier:\t%s\n", d.Tier)
	if !d.LastActiveAt.IsZero() {
		fmt.Fprintf(tw, "Last active:\t%s\n", d.LastActiveAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(tw, "CSRF token:\t%s\n", storedLabel(d.HasCSRFToken))
	fmt.Fprintf(tw, "Auth token:\t%s\n", storedLabel(d.HasAuthToken))
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return writeAccountsTable(w, []models.AccountRecord{d.AccountRecord}, prefs)
}

func storedLabel(ok bool) string {
	if ok {
		return "stored"
	}
	return "none"
}

// writeHistoryTable prints samples oldest first.
func writeHistoryTable(w io.Writer, samples []models.HistorySnapshot) error {
	if len(samples) == 0 {
		_, err := fmt.Fprintln(w, "No history recorded.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tACCOUNT\tMODEL\tREMAINING")
	for i := range samples {
		s := &samples[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\n",
			s.Time().Local().Format(time.DateTime), s.AccountID, s.ModelName, s.Percentage)
	}
	return tw.Flush()
}
