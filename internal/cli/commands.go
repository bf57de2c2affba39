package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/models"
)

// resolveDate accepts YYYY-MM-DD, "today" and "yesterday".
func resolveDate(arg string, now time.Time) (string, error) {
	switch strings.ToLower(arg) {
	case "today", "":
		return now.Format(common.DateLayout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(common.DateLayout), nil
	}
	if err := models.ValidateDate(arg); err != nil {
		return "", err
	}
	return arg, nil
}

func (a *App) dateRange(args []string) (string, string, error) {
	var from, to string
	var err error
	if len(args) > 0 {
		if from, err = resolveDate(args[0], a.now()); err != nil {
			return "", "", err
		}
	}
	if len(args) > 1 {
		if to, err = resolveDate(args[1], a.now()); err != nil {
			return "", "", err
		}
	}
	return from, to, nil
}

// Log records a severity: log [date] <slot> <severity>. The severity may
// span several words, e.g. "no pain".
func (a *App) Log(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: log <date|today> <slot> <severity>")
		return nil
	}

	dateArg := "today"
	if _, err := models.ParseTimeSlot(args[0]); err != nil {
		dateArg, args = args[0], args[1:]
		if len(args) < 2 {
			fmt.Fprintln(a.out, "Usage: log <date|today> <slot> <severity>")
			return nil
		}
	}

	date, err := resolveDate(dateArg, a.now())
	if err != nil {
		return err
	}
	slot, err := models.ParseTimeSlot(args[0])
	if err != nil {
		return err
	}
	sev, err := models.ParseSeverity(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	e, err := a.entries.Log(ctx, date, slot, sev)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged %s %s: %s\n", e.Date, e.Slot, e.Severity)
	return nil
}

func (a *App) Day(ctx context.Context, args []string) error {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	date, err := resolveDate(arg, a.now())
	if err != nil {
		return err
	}

	rows, err := a.entries.Day(ctx, date)
	if err != nil {
		return err
	}

	bySlot := make(map[models.TimeSlot]*models.Entry, len(rows))
	for _, e := range rows {
		bySlot[e.Slot] = e
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", date)
	for _, slot := range models.TimeSlots {
		e, ok := bySlot[slot]
		if !ok {
			fmt.Fprintf(tw, "  %s\t-\t\n", slot)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", slot, e.Severity, syncMark(e))
	}
	return tw.Flush()
}

func (a *App) List(ctx context.Context, args []string) error {
	from, to, err := a.dateRange(args)
	if err != nil {
		return err
	}
	rows, err := a.entries.List(ctx, from, to)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No entries.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSLOT\tSEVERITY\t")
	for _, e := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Date, e.Slot, e.Severity, syncMark(e))
	}
	return tw.Flush()
}

func (a *App) Trends(ctx context.Context, args []string) error {
	from, to, err := a.dateRange(args)
	if err != nil {
		return err
	}
	days, err := a.entries.Trends(ctx, from, to)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		fmt.Fprintln(a.out, "No entries.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tAVG\tLEVEL\tPEAK\tN")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%d\n", d.Date, d.Average, d.Rounded, d.Peak, d.Count)
	}
	return tw.Flush()
}

func syncMark(e *models.Entry) string {
	if e.Synced {
		return ""
	}
	return "(pending)"
}

// SignIn runs the OAuth consent flow for an account and makes it active.
func (a *App) SignIn(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: signin <account>")
		return nil
	}
	identity := args[0]

	state, err := common.MakeRandHexString(16)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Open this URL in a browser and grant access:")
	fmt.Fprintln(a.out, a.auth.AuthCodeURL(state))

	code, err := getLine(a.scanner, "Paste the authorization code", a.out)
	if err != nil {
		return err
	}
	if code == "" {
		return errors.New("no authorization code entered")
	}

	if err := a.auth.Exchange(ctx, identity, code); err != nil {
		return err
	}
	if err := a.settings.SignIn(ctx, identity); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", identity)
	return nil
}

func (a *App) SignOut(ctx context.Context) error {
	if err := a.settings.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

// Sheet prints the linked sheet, or links a new one when a URL is given.
func (a *App) Sheet(ctx context.Context, args []string) error {
	if len(args) == 0 {
		url, err := a.settings.SheetURL(ctx)
		if err != nil {
			return err
		}
		if url == "" {
			fmt.Fprintln(a.out, "No sheet linked yet; one is found or created on the next sync.")
			return nil
		}
		fmt.Fprintln(a.out, url)
		return nil
	}

	if err := a.settings.SetSheetURL(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sheet linked.")
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	if !a.isSignedIn(ctx) {
		return common.ErrNotSignedIn
	}

	err := a.syncer.RunNow(ctx)
	if errors.Is(err, common.ErrSyncInProgress) {
		fmt.Fprintln(a.out, "A sync is already running.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sync complete.")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st, err := a.settings.Status(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Account:\t%s\n", orDash(st.Identity))
	fmt.Fprintf(tw, "Sheet:\t%s\n", orDash(st.SheetURL))
	fmt.Fprintf(tw, "Entries:\t%d (%d pending)\n", st.Entries, st.Pending)
	if a.syncer.Online() {
		fmt.Fprintln(tw, "Network:\tonline")
	} else {
		fmt.Fprintln(tw, "Network:\toffline")
	}
	if r := st.LastRun; r != nil {
		line := fmt.Sprintf("%s at %s", r.Status, r.StartedAt.Local().Format(time.DateTime))
		if r.Status == models.SyncSuccess {
			line += fmt.Sprintf(", %d written, %d pulled", r.Stats.Writes, r.Stats.Pulled)
		}
		if r.Error != "" {
			line += ": " + r.Error
		}
		fmt.Fprintf(tw, "Last sync:\t%s\n", line)
	}
	return tw.Flush()
}

func (a *App) Export(ctx context.Context, args []string) error {
	from, to, err := a.dateRange(args)
	if err != nil {
		return err
	}
	path, key, err := a.exporter.Export(ctx, from, to)
	if path != "" {
		fmt.Fprintf(a.out, "Exported to %s\n", path)
	}
	if err != nil {
		return err
	}
	if key != "" {
		fmt.Fprintf(a.out, "Uploaded as s3://%s/%s\n", a.config.S3Bucket, key)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
