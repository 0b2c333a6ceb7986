package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/complypoint/complyctl/internal/tui"
	"github.com/complypoint/complyctl/internal/utils"
	"github.com/complypoint/complyctl/pkg/intake"
	"github.com/complypoint/complyctl/pkg/snapshot"
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Order a compliance service through the interactive intake wizard",
	Long: `Walks the five intake steps: service and add-ons, your details, service
questions, review and consent, then hands off to payment. Progress on the
middle steps is saved locally, so an interrupted order can be resumed within
24 hours.`,
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newAPIClient()
		if err != nil {
			presentError(err)
			os.Exit(1)
		}

		store, err := snapshot.Open(snapshotPath())
		if err != nil {
			utils.Log.Fatal("Can't open local snapshot store: ", err)
		}
		defer store.Close()
		wizStore := snapshot.NewWizardStore(store)

		wizard := intake.NewWizard(&intake.DraftClient{HTTP: client}, wizStore)
		model := tui.NewModel(wizard, &intake.CatalogClient{HTTP: client}, wizStore)

		if _, err := tea.NewProgram(model).Run(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func snapshotPath() string {
	if path := viper.GetString("snapshot.dbpath"); path != "" {
		return path
	}
	home, err := homedir.Dir()
	if err != nil {
		return ".complyctl.sqlite"
	}
	return home + "/.complyctl.sqlite"
}

func init() {
	rootCmd.AddCommand(intakeCmd)
}
