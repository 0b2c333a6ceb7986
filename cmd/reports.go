package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/complypoint/complyctl/internal/utils"
	"github.com/complypoint/complyctl/pkg/reports"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Download compliance reports and manage report schedules",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reports available on your plan",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustReportsClient()
		defs, err := client.Available(context.Background())
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		for _, d := range defs {
			fmt.Printf("%-24s %-32s formats: %s\n", d.ID, d.Name, strings.Join(d.Formats, ", "))
		}
	},
}

var reportsDownloadCmd = &cobra.Command{
	Use:   "download <report-id>",
	Short: "Download a report as CSV, or assemble it locally as PDF",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustReportsClient()
		ctx := context.Background()

		defs, err := client.Available(ctx)
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		var def *reports.Definition
		for i := range defs {
			if defs[i].ID == args[0] {
				def = &defs[i]
				break
			}
		}
		if def == nil {
			utils.Log.Fatal("Unknown report: ", args[0])
		}

		format, _ := cmd.Flags().GetString("format")
		filters := reports.Filters{Format: format}
		filters.PropertyID, _ = cmd.Flags().GetString("property")
		filters.StartDate, _ = cmd.Flags().GetString("start")
		filters.EndDate, _ = cmd.Flags().GetString("end")
		outDir, _ := cmd.Flags().GetString("out")

		path, err := client.Download(ctx, *def, filters, outDir)
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		fmt.Println(path)
	},
}

var reportsScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage recurring report deliveries",
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List report schedules",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustReportsClient()
		scheds, err := client.Schedules(context.Background())
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		for _, s := range scheds {
			state := "paused"
			if s.Active {
				state = "active"
			}
			recipients := strings.Join(s.Recipients, ", ")
			if recipients == "" {
				recipients = "(account email)"
			}
			fmt.Printf("%-12s %-20s %-10s %-8s → %s\n", s.ID, s.ReportID, s.Cadence, state, recipients)
		}
	},
}

var scheduleCreateCmd = &cobra.Command{
	Use:   "create <report-id>",
	Short: "Create a report schedule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustReportsClient()
		format, _ := cmd.Flags().GetString("format")
		cadence, _ := cmd.Flags().GetString("cadence")
		recipients, _ := cmd.Flags().GetStringSlice("recipients")

		err := client.CreateSchedule(context.Background(), reports.CreateScheduleInput{
			ReportID:   args[0],
			Format:     format,
			Cadence:    cadence,
			Recipients: recipients,
		})
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		// Refetch rather than trusting local state.
		scheduleListCmd.Run(cmd, nil)
	},
}

var scheduleToggleCmd = &cobra.Command{
	Use:   "toggle <schedule-id>",
	Short: "Activate or pause a schedule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustReportsClient()
		active, _ := cmd.Flags().GetBool("active")
		if err := client.ToggleSchedule(context.Background(), args[0], active); err != nil {
			presentError(err)
			os.Exit(1)
		}
		scheduleListCmd.Run(cmd, nil)
	},
}

var scheduleDeleteCmd = &cobra.Command{
	Use:   "delete <schedule-id>",
	Short: "Delete a schedule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("Delete schedule "+args[0]+"? This cannot be undone.") {
			fmt.Println("Aborted.")
			return
		}
		client := mustReportsClient()
		if err := client.DeleteSchedule(context.Background(), args[0]); err != nil {
			presentError(err)
			os.Exit(1)
		}
		scheduleListCmd.Run(cmd, nil)
	},
}

func mustReportsClient() *reports.Client {
	httpClient, err := newAPIClient()
	if err != nil {
		presentError(err)
		os.Exit(1)
	}
	return &reports.Client{HTTP: httpClient}
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsDownloadCmd)
	reportsCmd.AddCommand(reportsScheduleCmd)
	reportsScheduleCmd.AddCommand(scheduleListCmd)
	reportsScheduleCmd.AddCommand(scheduleCreateCmd)
	reportsScheduleCmd.AddCommand(scheduleToggleCmd)
	reportsScheduleCmd.AddCommand(scheduleDeleteCmd)

	reportsDownloadCmd.Flags().StringP("format", "f", "csv", "Report format: csv or pdf")
	reportsDownloadCmd.Flags().StringP("property", "p", "", "Property filter (requirements reports only)")
	reportsDownloadCmd.Flags().String("start", "", "Start date YYYY-MM-DD (audit-log reports only)")
	reportsDownloadCmd.Flags().String("end", "", "End date YYYY-MM-DD (audit-log reports only)")
	reportsDownloadCmd.Flags().StringP("out", "o", ".", "Output directory")

	scheduleCreateCmd.Flags().StringP("format", "f", "pdf", "Delivery format")
	scheduleCreateCmd.Flags().StringP("cadence", "c", "monthly", "Cadence: weekly or monthly")
	scheduleCreateCmd.Flags().StringSliceP("recipients", "r", nil, "Recipient emails (default: account email)")

	scheduleToggleCmd.Flags().Bool("active", true, "Set active (true) or paused (false)")

	scheduleDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
