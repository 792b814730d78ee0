package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write patients and appointments to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		snap := a.store.Snapshot()
		data, err := export.Workbook(snap.Patients, snap.Incidents)
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		log.Info("Exported workbook",
			zap.String("path", exportOut),
			zap.Int("patients", len(snap.Patients)),
			zap.Int("incidents", len(snap.Incidents)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "clinic-export.xlsx", "output file")
}
