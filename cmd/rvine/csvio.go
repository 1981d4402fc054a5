// SPDX-License-Identifier: MIT

package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/rvine/matrix"
)

var errEmptyData = errors.New("no data rows")

// readCSV loads a numeric CSV file. The first record is treated as a header when
// any of its fields fails to parse.
func readCSV(path string) (*matrix.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data: %w", err)
	}
	defer f.Close()

	return parseCSV(f)
}

func parseCSV(r io.Reader) (*matrix.Dense, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var rows [][]float64
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data: %w", err)
		}
		row := make([]float64, len(rec))
		var bad error
		for j, field := range rec {
			if row[j], bad = strconv.ParseFloat(strings.TrimSpace(field), 64); bad != nil {
				break
			}
		}
		if bad != nil {
			if line == 1 {
				continue // header
			}

			return nil, fmt.Errorf("data line %d: %w", line, bad)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errEmptyData
	}

	return matrix.NewDenseFrom(rows)
}

// writeCSV writes m with full float precision.
func writeCSV(w io.Writer, m *matrix.Dense) error {
	cw := csv.NewWriter(w)
	rec := make([]string, m.Cols())
	var i int
	for i = 0; i < m.Rows(); i++ {
		for j, v := range m.RowView(i) {
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

// writeValues writes one value per line.
func writeValues(w io.Writer, vs []float64) error {
	m, err := matrix.NewDenseColumns(vs)
	if err != nil {
		return err
	}

	return writeCSV(w, m)
}

// emit runs write against the --out file, or the command's stdout when --out is empty.
func emit(cmd *cobra.Command, write func(io.Writer) error) error {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err = write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}
