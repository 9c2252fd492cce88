package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"treesum/pkg/record"
	"treesum/pkg/ui"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [directory]",
	Short: "Summarize the checksum record covering a directory",
	Long: `Locate the record file covering a directory (walking upward from it) and
print the stored checksums and metadata for the directory's node, along with
a summary of its immediate subdirectories.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		return runInfo(target)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(target string) error {
	recordFile, ok := record.Find(target)
	if !ok {
		ui.PrintWarning("No record file found", target)
		return nil
	}

	root, err := record.Load(recordFile)
	if err != nil {
		return err
	}
	node, ancestors, err := record.Locate(root, recordFile, target)
	if err != nil {
		return err
	}

	ui.PrintInfo("Record file", recordFile)
	ui.PrintInfo("Depth below record root", strconv.Itoa(len(ancestors)))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"MD5", orIncomplete(node.MD5)})
	table.Append([]string{"MD5 (files only)", orIncomplete(node.FilesOnlyMD5)})
	table.Append([]string{"Total size", humanize.Bytes(uint64(node.Size))})
	table.Append([]string{"Immediate files", strconv.Itoa(node.NFiles)})
	table.Append([]string{"Immediate files size", humanize.Bytes(uint64(node.FilesSize))})
	table.Append([]string{"Subdirectories", strconv.Itoa(len(node.Subdirectories))})
	if node.CalculatedAt != "" {
		table.Append([]string{"Calculated at", node.CalculatedAt})
	}
	table.Render()

	if len(node.Subdirectories) > 0 {
		names := make([]string, 0, len(node.Subdirectories))
		for name := range node.Subdirectories {
			names = append(names, name)
		}
		sort.Strings(names)

		subTable := tablewriter.NewWriter(os.Stdout)
		subTable.SetHeader([]string{"Subdirectory", "MD5", "Size", "Files"})
		for _, name := range names {
			sub := node.Subdirectories[name]
			subTable.Append([]string{
				name,
				orIncomplete(sub.MD5),
				humanize.Bytes(uint64(sub.Size)),
				strconv.Itoa(sub.NFiles),
			})
		}
		subTable.Render()
	}

	if !node.Complete() {
		fmt.Println(ui.Dim("This record is incomplete; run 'treesum calculate --continue' to finish it."))
	}
	return nil
}

func orIncomplete(digest string) string {
	if digest == "" {
		return "(incomplete)"
	}
	return digest
}
