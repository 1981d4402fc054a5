// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/rvine/config"
	"github.com/katalvlaran/rvine/vinecop"
)

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select a vine copula model for a data set",
		Long: `Select the structure and pair-copulas of a vine copula with the
sequential maximum-spanning-tree procedure, or refit the families of an
existing model with --refit.

Examples:
  rvine select --data u.csv --out model.yaml
  rvine select --data u.csv --config controls.yaml --threads 4
  rvine select --data u.csv --refit model.yaml --out refit.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataPath, _ := cmd.Flags().GetString("data")
			outPath, _ := cmd.Flags().GetString("out")
			refitPath, _ := cmd.Flags().GetString("refit")

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			u, err := readCSV(dataPath)
			if err != nil {
				return err
			}
			c, err := e.controls()
			if err != nil {
				return err
			}

			start := time.Now()
			var vc *vinecop.Vinecop
			if refitPath != "" {
				model, err := config.LoadModel(refitPath)
				if err != nil {
					return err
				}
				vc, err = vinecop.Fit(cmd.Context(), u, model, c)
				if err != nil {
					return fmt.Errorf("refit failed: %w", err)
				}
			} else if vc, err = vinecop.Select(cmd.Context(), u, c); err != nil {
				return fmt.Errorf("selection failed: %w", err)
			}
			e.log.Info("model fitted",
				zap.Int("rows", u.Rows()),
				zap.Int("dim", vc.Dim()),
				zap.Int("trunc_lvl", vc.TruncLevel()),
				zap.Float64("loglik", vc.Loglik()),
				zap.Duration("elapsed", time.Since(start)))

			if outPath != "" {
				if err = config.SaveModel(outPath, vc); err != nil {
					return err
				}
			}

			return printSummary(cmd.OutOrStdout(), vc, e.cfg.Psi0)
		},
	}

	cmd.Flags().String("data", "", "CSV file of pseudo-observations")
	cmd.Flags().String("out", "", "Write the fitted model to this YAML file")
	cmd.Flags().String("refit", "", "Keep the structure and families of this model; refit parameters only")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func printSummary(w io.Writer, vc *vinecop.Vinecop, psi0 float64) error {
	aic, err := vc.AIC()
	if err != nil {
		return err
	}
	bic, _ := vc.BIC()
	mbicv, err := vc.MBICV(psi0)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, vc)
	fmt.Fprintf(w, "threshold: %g\n", vc.Threshold())
	fmt.Fprintf(w, "loglik: %.4f  aic: %.4f  bic: %.4f  mbicv: %.4f\n", vc.Loglik(), aic, bic, mbicv)
	for _, d := range vc.Diagnostics() {
		fmt.Fprintln(w, "warning:", d)
	}

	return nil
}
