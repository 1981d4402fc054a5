// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/rvine/config"
	"github.com/katalvlaran/rvine/qrng"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate observations from a model",
		Long: `Simulate n observations by inverting the Rosenblatt transform of
uniform (pseudo or quasi) random points. The engine and seed default to the
controls file.

Examples:
  rvine simulate --model model.yaml -n 1000 --seed 42
  rvine simulate --model model.yaml -n 4096 --qrng sobol --out sim.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath, _ := cmd.Flags().GetString("model")
			n, _ := cmd.Flags().GetInt("rows")

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if cmd.Flags().Changed("seed") {
				e.cfg.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("qrng") {
				e.cfg.Qrng, _ = cmd.Flags().GetString("qrng")
				if _, err = qrng.ParseKind(e.cfg.Qrng); err != nil {
					return err
				}
			}
			vc, err := config.LoadModel(modelPath)
			if err != nil {
				return err
			}
			vc = vc.WithNumThreads(e.cfg.NumThreads)
			eng, err := e.cfg.Engine(vc.Dim())
			if err != nil {
				return err
			}
			sim, _, err := vc.Simulate(cmd.Context(), n, eng)
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}
			e.log.Debug("simulated",
				zap.Int("n", n),
				zap.Int64("seed", e.cfg.Seed),
				zap.Stringer("qrng", eng.Resolved()))

			return emit(cmd, func(w io.Writer) error { return writeCSV(w, sim) })
		},
	}

	cmd.Flags().String("model", "", "Model YAML file")
	cmd.Flags().IntP("rows", "n", 1000, "Number of observations")
	cmd.Flags().Int64("seed", 0, "Seed (overrides the controls file)")
	cmd.Flags().String("qrng", "", "Engine: pseudo, auto, halton or sobol (overrides the controls file)")
	cmd.Flags().String("out", "", "Write the sample to this CSV file instead of stdout")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}
