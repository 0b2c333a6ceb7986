package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/complypoint/complyctl/pkg/cms"
)

var cmsBlocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Edit the content blocks on a page draft",
}

var blocksListCmd = &cobra.Command{
	Use:   "list <page-id>",
	Short: "List a page's blocks in order",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustCMSClient()
		page, err := client.Page(context.Background(), args[0])
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		blocks := page.Blocks
		sort.Slice(blocks, func(i, j int) bool { return blocks[i].Order < blocks[j].Order })
		for _, b := range blocks {
			fmt.Printf("%3d  %-12s %s\n", b.Order, b.ID, b.Type)
		}
	},
}

var blocksAddCmd = &cobra.Command{
	Use:   "add <page-id> <type>",
	Short: "Append a block to the page draft",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustCMSClient()
		raw, _ := cmd.Flags().GetString("content")
		content := map[string]interface{}{}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &content); err != nil {
				fmt.Println("--content must be a JSON object:", err)
				os.Exit(1)
			}
		}
		block, err := client.CreateBlock(context.Background(), args[0], cms.BlockInput{
			Type:    args[1],
			Content: content,
		})
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		fmt.Printf("Added %s block %s at position %d\n", block.Type, block.ID, block.Order)
	},
}

var blocksMoveCmd = &cobra.Command{
	Use:   "move <page-id> <block-id>",
	Short: "Move a block up or down one position",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		up, _ := cmd.Flags().GetBool("up")
		down, _ := cmd.Flags().GetBool("down")
		if up == down {
			fmt.Println("pass exactly one of --up or --down")
			os.Exit(1)
		}
		delta := 1
		if up {
			delta = -1
		}

		client := mustCMSClient()
		ctx := context.Background()
		page, err := client.Page(ctx, args[0])
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		if err := client.MoveBlock(ctx, args[0], page.Blocks, args[1], delta); err != nil {
			presentError(err)
			os.Exit(1)
		}
		blocksListCmd.Run(cmd, args[:1])
	},
}

var blocksDeleteCmd = &cobra.Command{
	Use:   "delete <page-id> <block-id>",
	Short: "Remove a block from the page draft",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("Delete block "+args[1]+"?") {
			fmt.Println("Aborted.")
			return
		}
		client := mustCMSClient()
		if err := client.DeleteBlock(context.Background(), args[0], args[1]); err != nil {
			presentError(err)
			os.Exit(1)
		}
		fmt.Println("Deleted.")
	},
}

func init() {
	cmsCmd.AddCommand(cmsBlocksCmd)
	cmsBlocksCmd.AddCommand(blocksListCmd)
	cmsBlocksCmd.AddCommand(blocksAddCmd)
	cmsBlocksCmd.AddCommand(blocksMoveCmd)
	cmsBlocksCmd.AddCommand(blocksDeleteCmd)

	blocksAddCmd.Flags().StringP("content", "c", "", "Block content as a JSON object")
	blocksMoveCmd.Flags().Bool("up", false, "Move the block one position up")
	blocksMoveCmd.Flags().Bool("down", false, "Move the block one position down")
	blocksDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
