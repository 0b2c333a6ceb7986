package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/complypoint/complyctl/pkg/cms"
)

var cmsCmd = &cobra.Command{
	Use:   "cms",
	Short: "Manage the site builder: pages, blocks, media and the page tree",
}

var cmsPagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Page lifecycle: drafts, publishing and revision history",
}

var pagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustCMSClient()
		pages, err := client.Pages(context.Background())
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		for _, p := range pages {
			nav := " "
			if p.VisibleInNav {
				nav = "*"
			}
			fmt.Printf("%-12s v%-3d %-10s %s %s\n", p.ID, p.CurrentVersion, p.Status, nav, p.Slug)
		}
	},
}

var pagesCreateCmd = &cobra.Command{
	Use:   "create <slug>",
	Short: "Create a draft page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustCMSClient()
		title, _ := cmd.Flags().GetString("title")
		nav, _ := cmd.Flags().GetBool("nav")
		page, err := client.CreatePage(context.Background(), cms.PageInput{
			Slug:         args[0],
			Title:        title,
			VisibleInNav: nav,
		})
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		fmt.Printf("Created draft %s (%s)\n", page.ID, page.Slug)
	},
}

var pagesPublishCmd = &cobra.Command{
	Use:   "publish <page-id>",
	Short: "Publish the current draft, recording an immutable revision",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustCMSClient()
		page, err := client.Publish(context.Background(), args[0])
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		fmt.Printf("Published %s at version %d\n", page.Slug, page.CurrentVersion)
	},
}

var pagesRevisionsCmd = &cobra.Command{
	Use:   "revisions <page-id>",
	Short: "List a page's publish history",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustCMSClient()
		revs, err := client.Revisions(context.Background(), args[0])
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		for _, r := range revs {
			fmt.Printf("v%-4d %s  %s\n", r.Version, r.PublishedAt, r.PublishedBy)
		}
	},
}

var pagesRollbackCmd = &cobra.Command{
	Use:   "rollback <page-id> <version>",
	Short: "Create a new draft from an earlier revision (history is kept)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		version, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("version must be a number")
			os.Exit(1)
		}
		client := mustCMSClient()
		page, err := client.Rollback(context.Background(), args[0], version)
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		fmt.Printf("Draft of %s now matches revision %d\n", page.Slug, version)
	},
}

var pagesDeleteCmd = &cobra.Command{
	Use:   "delete <page-id>",
	Short: "Delete a page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("Delete page "+args[0]+"?") {
			fmt.Println("Aborted.")
			return
		}
		client := mustCMSClient()
		if err := client.DeletePage(context.Background(), args[0]); err != nil {
			presentError(err)
			os.Exit(1)
		}
		fmt.Println("Deleted.")
	},
}

var cmsTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the marketing page tree (hub → category → service)",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustCMSClient()
		tree, err := client.Tree(context.Background())
		if err != nil {
			presentError(err)
			os.Exit(1)
		}
		printTree(tree, 0)
	},
}

func printTree(nodes []*cms.TreeNode, depth int) {
	for _, n := range nodes {
		indent := ""
		for i := 0; i < depth; i++ {
			indent += "  "
		}
		flags := n.Page.Status
		if !n.Page.VisibleInNav {
			flags += ", hidden"
		}
		fmt.Printf("%s%s (%s)\n", indent, n.Page.Slug, flags)
		printTree(n.Children, depth+1)
	}
}

func mustCMSClient() *cms.Client {
	httpClient, err := newAPIClient()
	if err != nil {
		presentError(err)
		os.Exit(1)
	}
	return &cms.Client{HTTP: httpClient}
}

func init() {
	rootCmd.AddCommand(cmsCmd)
	cmsCmd.AddCommand(cmsPagesCmd)
	cmsCmd.AddCommand(cmsTreeCmd)
	cmsPagesCmd.AddCommand(pagesListCmd)
	cmsPagesCmd.AddCommand(pagesCreateCmd)
	cmsPagesCmd.AddCommand(pagesPublishCmd)
	cmsPagesCmd.AddCommand(pagesRevisionsCmd)
	cmsPagesCmd.AddCommand(pagesRollbackCmd)
	cmsPagesCmd.AddCommand(pagesDeleteCmd)

	pagesCreateCmd.Flags().StringP("title", "t", "", "Page title")
	pagesCreateCmd.Flags().Bool("nav", false, "Show the page in navigation")
	pagesDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
