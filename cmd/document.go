package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	legaldoc "github.com/emrgen/legaldoc"
)

var serverURL string

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:4020", "legaldoc server url")

	rootCmd.AddCommand(createDocCmd())
	rootCmd.AddCommand(getDocCmd())
	rootCmd.AddCommand(currentDocCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(chainCmd())
	rootCmd.AddCommand(reviseDocCmd())
	rootCmd.AddCommand(activateDocCmd())
	rootCmd.AddCommand(deleteDocCmd())
}

func checkMissingFlags(cmd *cobra.Command, required []string) bool {
	missing := false
	for _, name := range required {
		if !cmd.Flags().Changed(name) {
			color.Red("missing required flag: --%s", name)
			missing = true
		}
	}
	return missing
}

func printDocTable(docs ...*legaldoc.Document) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Type", "Title", "Version", "Status", "Effective"})
	for _, doc := range docs {
		table.Append([]string{doc.ID, doc.Type, doc.Title, strconv.FormatInt(doc.Version, 10), doc.Status, doc.EffectiveDate})
	}
	table.Render()
}

func createDocCmd() *cobra.Command {
	var docType string
	var title string
	var content string
	var effectiveDate string

	var required = []string{"type", "title", "content", "effective-date"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a document, making it the version in effect",
		Example: "legaldoc create -t policy -T <title> -c <content> -e 2026-09-15",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := legaldoc.NewClient(serverURL)
			doc, err := client.Create(context.Background(), docType, title, content, effectiveDate)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("document created with id: %s", doc.ID)
			printDocTable(doc)
		},
	}

	command.Flags().StringVarP(&docType, "type", "t", "", "document type: policy, terms or disclaimer (required)")
	command.Flags().StringVarP(&title, "title", "T", "", "title of the document (required)")
	command.Flags().StringVarP(&content, "content", "c", "", "content of the document (required)")
	command.Flags().StringVarP(&effectiveDate, "effective-date", "e", "", "date the text becomes binding, YYYY-MM-DD (required)")

	command.Flags().SortFlags = false

	return command
}

func getDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a document version",
		Example: "legaldoc get -d <version-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := legaldoc.NewClient(serverURL)
			doc, err := client.Get(context.Background(), docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			printDocTable(doc)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "version id (required)")
	command.Flags().SortFlags = false

	return command
}

func currentDocCmd() *cobra.Command {
	var docType string

	var required = []string{"type"}

	command := &cobra.Command{
		Use:     "current",
		Short:   "show the version in legal effect for a type",
		Example: "legaldoc current -t policy",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := legaldoc.NewClient(serverURL)
			doc, err := client.Current(context.Background(), docType)
			if err != nil {
				logrus.Error(err)
				return
			}

			printDocTable(doc)
		},
	}

	command.Flags().StringVarP(&docType, "type", "t", "", "document type (required)")
	command.Flags().SortFlags = false

	return command
}

func historyCmd() *cobra.Command {
	var docType string
	var includeRemoved bool
	var page int
	var pageSize int

	var required = []string{"type"}

	command := &cobra.Command{
		Use:     "history",
		Short:   "list the version history of a type, newest first",
		Example: "legaldoc history -t policy -r",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := legaldoc.NewClient(serverURL)
			history, err := client.History(context.Background(), docType, includeRemoved, page, pageSize)
			if err != nil {
				logrus.Error(err)
				return
			}

			printDocTable(history.Versions...)
			color.Cyan("page %d of %d versions", history.Page, history.Total)
		},
	}

	command.Flags().StringVarP(&docType, "type", "t", "", "document type (required)")
	command.Flags().BoolVarP(&includeRemoved, "removed", "r", false, "include removed versions")
	command.Flags().IntVarP(&page, "page", "p", 1, "page number")
	command.Flags().IntVarP(&pageSize, "page-size", "n", 20, "page size")
	command.Flags().SortFlags = false

	return command
}

func chainCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "chain",
		Short:   "walk a version's revision chain back to its root",
		Example: "legaldoc chain -d <version-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := legaldoc.NewClient(serverURL)
			chain, err := client.Chain(context.Background(), docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			printDocTable(chain...)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "version id (required)")
	command.Flags().SortFlags = false

	return command
}

func reviseDocCmd() *cobra.Command {
	var docID string
	var title string
	var content string
	var effectiveDate string

	var required = []string{"doc-id", "title", "content", "effective-date"}

	command := &cobra.Command{
		Use:   "revise",
		Short: "revise a document as a new version",
		Long: `Revise the version currently in effect. The edit is stored as a new
version row linked to the revised one; the original text is never mutated.
Fails when the given version is no longer the one in effect.`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := legaldoc.NewClient(serverURL)
			doc, err := client.Revise(context.Background(), docID, title, content, effectiveDate)
			if err != nil {
				logrus.Error(err)
				return
			}

			printDocTable(doc)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "version id being revised (required)")
	command.Flags().StringVarP(&title, "title", "T", "", "title (required)")
	command.Flags().StringVarP(&content, "content", "c", "", "content (required)")
	command.Flags().StringVarP(&effectiveDate, "effective-date", "e", "", "date the text becomes binding, YYYY-MM-DD (required)")
	command.Flags().SortFlags = false

	return command
}

func activateDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "activate",
		Short:   "put an older version back into legal effect",
		Example: "legaldoc activate -d <version-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := legaldoc.NewClient(serverURL)
			doc, err := client.Activate(context.Background(), docID)
			if err != nil {
				logrus.Error(err)
				return
			}

			color.Green("version %d of %s is now in effect", doc.Version, doc.Type)
			printDocTable(doc)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "version id (required)")
	command.Flags().SortFlags = false

	return command
}

func deleteDocCmd() *cobra.Command {
	var docID string

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "remove a version (kept in history for audit)",
		Example: "legaldoc delete -d <version-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := legaldoc.NewClient(serverURL)
			if err := client.SoftDelete(context.Background(), docID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("version %s removed", docID)
		},
	}

	command.Flags().StringVarP(&docID, "doc-id", "d", "", "version id (required)")
	command.Flags().SortFlags = false

	return command
}
