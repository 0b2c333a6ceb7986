package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cmsMediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage the image library",
}

var mediaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded images",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustCMSClient()
		items, err := client.Media(context.Background())
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		for _, m := range items {
			fmt.Printf("%-12s %-32s %-12s %d bytes\n", m.ID, m.Filename, m.ContentType, m.SizeBytes)
		}
	},
}

var mediaUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image (image files only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		client := mustCMSClient()
		item, err := client.UploadMedia(context.Background(), args[0], content)
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		fmt.Printf("Uploaded %s → %s\n", item.Filename, item.URL)
	},
}

var mediaDeleteCmd = &cobra.Command{
	Use:   "delete <media-id>",
	Short: "Delete an image from the library",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("Delete media "+args[0]+"? Pages referencing it will lose the image.") {
			fmt.Println("Aborted.")
			return
		}
		client := mustCMSClient()
		if err := client.DeleteMedia(context.Background(), args[0]); err != nil {
			presentError(err)
			os.Exit(1)
		}
		fmt.Println("Deleted.")
	},
}

func init() {
	cmsCmd.AddCommand(cmsMediaCmd)
	cmsMediaCmd.AddCommand(mediaListCmd)
	cmsMediaCmd.AddCommand(mediaUploadCmd)
	cmsMediaCmd.AddCommand(mediaDeleteCmd)

	mediaDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
