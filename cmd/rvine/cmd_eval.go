// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/rvine/config"
	"github.com/katalvlaran/rvine/matrix"
	"github.com/katalvlaran/rvine/vinecop"
)

// loadModelAndData reads the --model and --data flags shared by the evaluation commands.
func loadModelAndData(cmd *cobra.Command, e *env) (*vinecop.Vinecop, *matrix.Dense, error) {
	modelPath, _ := cmd.Flags().GetString("model")
	dataPath, _ := cmd.Flags().GetString("data")
	vc, err := config.LoadModel(modelPath)
	if err != nil {
		return nil, nil, err
	}
	u, err := readCSV(dataPath)
	if err != nil {
		return nil, nil, err
	}

	return vc.WithNumThreads(e.cfg.NumThreads), u, nil
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "Model YAML file")
	cmd.Flags().String("data", "", "CSV file of points in (0,1)^d")
	cmd.Flags().String("out", "", "Write results to this CSV file instead of stdout")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("data")
}

func newPDFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Evaluate the copula density at each data row",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			vc, u, err := loadModelAndData(cmd, e)
			if err != nil {
				return err
			}
			dens, err := vc.PDF(cmd.Context(), u)
			if err != nil {
				return fmt.Errorf("density failed: %w", err)
			}

			return emit(cmd, func(w io.Writer) error { return writeValues(w, dens) })
		},
	}
	addModelFlags(cmd)

	return cmd
}

func newCDFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cdf",
		Short: "Estimate the copula distribution function at each data row",
		Long: `Estimate C(u) as the share of simulated points below u.
The number of points (n_mc), the engine (qrng) and the seed come from the
controls file; --n-mc overrides n_mc.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			vc, u, err := loadModelAndData(cmd, e)
			if err != nil {
				return err
			}
			nMC := e.cfg.NMC
			if cmd.Flags().Changed("n-mc") {
				nMC, _ = cmd.Flags().GetInt("n-mc")
			}
			eng, err := e.cfg.Engine(vc.Dim())
			if err != nil {
				return err
			}
			vals, _, err := vc.CDF(cmd.Context(), u, nMC, eng)
			if err != nil {
				return fmt.Errorf("cdf failed: %w", err)
			}
			e.log.Debug("cdf estimated", zap.Int("n_mc", nMC), zap.Stringer("qrng", eng.Resolved()))

			return emit(cmd, func(w io.Writer) error { return writeValues(w, vals) })
		},
	}
	addModelFlags(cmd)
	cmd.Flags().Int("n-mc", 0, "Number of simulated points")

	return cmd
}

func newRosenblattCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rosenblatt",
		Short: "Apply the Rosenblatt transform (or its inverse) to each data row",
		RunE: func(cmd *cobra.Command, args []string) error {
			inverse, _ := cmd.Flags().GetBool("inverse")
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			vc, u, err := loadModelAndData(cmd, e)
			if err != nil {
				return err
			}
			var res *matrix.Dense
			if inverse {
				res, err = vc.InverseRosenblatt(cmd.Context(), u)
			} else {
				res, err = vc.Rosenblatt(cmd.Context(), u)
			}
			if err != nil {
				return fmt.Errorf("rosenblatt failed: %w", err)
			}

			return emit(cmd, func(w io.Writer) error { return writeCSV(w, res) })
		},
	}
	addModelFlags(cmd)
	cmd.Flags().Bool("inverse", false, "Apply the inverse transform")

	return cmd
}
