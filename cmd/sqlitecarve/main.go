// Command sqlitecarve forensically extracts rows and residue from a
// SQLite database file (and optionally its WAL sidecar), per spec.md §6.
// It replaces the teacher's bare os.Args .dbinfo switch (main.go) with a
// cobra command tree, the way the rest of this retrieval pack's CLI tools
// are built.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forensickit/sqlitecarve/carve"
	"github.com/forensickit/sqlitecarve/output"
)

var (
	flagDB        string
	flagWAL       string
	flagOut       string
	flagClassify  bool
	flagSearch    string
	flagVerbose   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlitecarve",
		Short: "Forensically extract rows and residue from a SQLite file",
		RunE:  runCarve,
	}
	cmd.Flags().StringVar(&flagDB, "db", "", "path to the main SQLite database file (required)")
	cmd.Flags().StringVar(&flagWAL, "wal", "", "path to the WAL sidecar file (optional)")
	cmd.Flags().StringVar(&flagOut, "out", "", "output directory (required)")
	cmd.Flags().BoolVar(&flagClassify, "classify", false, "classify records as Active/Deleted/Modified/Duplicate")
	cmd.Flags().StringVar(&flagSearch, "search", "", "keyword to search across extracted values")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug-level diagnostics")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("out")
	return cmd
}

func runCarve(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	if flagVerbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	sess, header, err := carve.OpenMain(flagDB, carve.WithLogger(logger))
	if err != nil {
		if carve.IsFatal(err) {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			os.Exit(1)
		}
		return err
	}
	defer sess.Close()

	result, err := carve.RunMain(sess, header)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	logger.Infof("main file: %s read, %d records, %d residue fragments",
		humanize.Bytes(uint64(header.PageSize)*uint64(sess.PageCount())), len(result.Records), len(result.Residue))

	if flagWAL != "" {
		walSess, walHeader, err := carve.OpenWAL(flagWAL, carve.WithLogger(logger))
		if err != nil {
			if carve.IsFatal(err) {
				fmt.Fprintln(os.Stderr, "fatal:", err)
				os.Exit(1)
			}
			return err
		}
		defer walSess.Close()

		walResult, err := carve.RunWAL(walSess, walHeader, result.Context, sess.PageCount())
		if err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			os.Exit(1)
		}
		logger.Infof("wal file: %d records, %d residue fragments merged", len(walResult.Records), len(walResult.Residue))
		result.Records = append(result.Records, walResult.Records...)
		result.Residue = append(result.Residue, walResult.Residue...)
	}

	if flagClassify {
		result.Records = carve.ClassifyRecords(result.Records)
	}

	if err := os.MkdirAll(flagOut, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	csvPath := filepath.Join(flagOut, "records.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer csvFile.Close()
	if err := output.WriteCSV(csvFile, result.Records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	dbOutPath := filepath.Join(flagOut, "extracted.sqlite")
	if err := output.WriteSQLite(dbOutPath, result); err != nil {
		return fmt.Errorf("write relational output: %w", err)
	}

	output.WriteTabular(cmd.OutOrStdout(), result.Records)

	if flagSearch != "" {
		hits := output.SearchKeyword(result.Records, result.Context.TableMap, flagSearch)
		logger.Infof("keyword %q: %d hits", flagSearch, len(hits))
		for _, h := range hits {
			fmt.Fprintf(cmd.OutOrStdout(), "table=%s rowid=%d status=%s matches=%v\n", h.TableName, h.RowID, h.RecordStatus, h.Matches)
		}
	}

	return nil
}
