/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/blocksolve/ilu"
	"github.com/notargets/blocksolve/krylov"
	"github.com/notargets/blocksolve/testprob"
)

// Parameters obtained from the YAML input file
type SolverParameters struct {
	Title         string  `yaml:"Title"`
	Nx            int     `yaml:"Nx"`
	Ny            int     `yaml:"Ny"`
	BlockSize     int     `yaml:"BlockSize"`
	Peclet        float64 `yaml:"Peclet"`
	Tolerance     float64 `yaml:"Tolerance"`
	MaxIterations int     `yaml:"MaxIterations"`
	Restart       int     `yaml:"Restart"`
	Ordering      string  `yaml:"Ordering"` // "natural" or "rcm"
}

func (sp *SolverParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, sp)
}

func (sp *SolverParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("[%d x %d]\t\t= Grid\n", sp.Nx, sp.Ny)
	fmt.Printf("[%d]\t\t\t= Block Size\n", sp.BlockSize)
	fmt.Printf("%8.5f\t\t= Peclet\n", sp.Peclet)
	fmt.Printf("%8.1e\t\t= Tolerance\n", sp.Tolerance)
	fmt.Printf("[%s]\t\t= Ordering\n", sp.Ordering)
}

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a block model problem with preconditioned GMRES",
	Long: `
Assembles a block convection-diffusion model operator, factors it with
BlockILU(0) and solves with GMRES, reporting iteration counts with and
without preconditioning,

blocksolve solve -x 32 -y 32 -b 4`,
	Run: func(cmd *cobra.Command, args []string) {
		sp := &SolverParameters{
			Title:     "block convection-diffusion",
			Tolerance: 1.e-8,
			Ordering:  "natural",
		}
		if fileName, _ := cmd.Flags().GetString("input"); fileName != "" {
			data, err := os.ReadFile(fileName)
			if err != nil {
				fmt.Printf("unable to read input file: %s\n", err)
				os.Exit(1)
			}
			if err = sp.Parse(data); err != nil {
				fmt.Printf("unable to parse input file: %s\n", err)
				os.Exit(1)
			}
		}
		if sp.Nx == 0 {
			sp.Nx, _ = cmd.Flags().GetInt("nx")
		}
		if sp.Ny == 0 {
			sp.Ny, _ = cmd.Flags().GetInt("ny")
		}
		if sp.BlockSize == 0 {
			sp.BlockSize, _ = cmd.Flags().GetInt("blockSize")
		}
		if sp.Peclet == 0 {
			sp.Peclet, _ = cmd.Flags().GetFloat64("peclet")
		}
		if sp.MaxIterations == 0 {
			sp.MaxIterations, _ = cmd.Flags().GetInt("maxIterations")
		}
		if sp.Restart == 0 {
			sp.Restart, _ = cmd.Flags().GetInt("restart")
		}
		if ord, _ := cmd.Flags().GetString("ordering"); ord != "" {
			sp.Ordering = ord
		}
		if prof, _ := cmd.Flags().GetBool("profile"); prof {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		sp.Print()
		RunSolve(sp)
	},
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().StringP("input", "i", "", "YAML input file with solver parameters")
	SolveCmd.Flags().IntP("nx", "x", 32, "grid points in x")
	SolveCmd.Flags().IntP("ny", "y", 32, "grid points in y")
	SolveCmd.Flags().IntP("blockSize", "b", 4, "coupled fields per grid point")
	SolveCmd.Flags().Float64P("peclet", "p", 0.5, "convection skew, 0 = symmetric diffusion")
	SolveCmd.Flags().Int("maxIterations", 2000, "iteration cap for the outer solver")
	SolveCmd.Flags().Int("restart", 30, "GMRES restart length")
	SolveCmd.Flags().StringP("ordering", "o", "natural", "block elimination ordering: natural or rcm")
	SolveCmd.Flags().Bool("profile", false, "write a CPU profile for the run")
}

func RunSolve(sp *SolverParameters) {
	var (
		A = testprob.BlockConvectionDiffusion2D(sp.Nx, sp.Ny, sp.BlockSize, sp.Peclet)
	)
	n, _ := A.Dims()
	fmt.Printf("system dimension %d, nnz %d\n", n, A.NNZ())

	// Manufactured solution, b = A * xExact.
	xExact := make([]float64, n)
	for i := range xExact {
		xExact[i] = 1. + float64(i%7)
	}
	b := make([]float64, n)
	A.MulVec(xExact, b)

	ordering := ilu.NaturalOrdering
	if sp.Ordering == "rcm" {
		ordering = ilu.RCMOrdering
	}
	start := time.Now()
	M, err := ilu.NewBlockILU0(A, sp.BlockSize, ordering)
	if err != nil {
		fmt.Printf("factorization failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("BlockILU(0): %d blocks factored in %v\n", M.NNZBlocks(), time.Since(start))

	settings := krylov.Settings{
		Tolerance:     sp.Tolerance,
		MaxIterations: sp.MaxIterations,
		Restart:       sp.Restart,
	}
	for _, run := range []struct {
		label string
		prec  krylov.Preconditioner
	}{
		{"GMRES", krylov.Identity{}},
		{"GMRES+BlockILU(0)", M},
	} {
		x := make([]float64, n)
		start = time.Now()
		res, err := krylov.GMRES(A, run.prec, b, x, settings)
		if err != nil {
			fmt.Printf("%-20s failed: %s\n", run.label, err)
			continue
		}
		floats.Sub(x, xExact)
		fmt.Printf("%-20s converged=%v iterations=%4d residual=%8.2e error=%8.2e elapsed=%v\n",
			run.label, res.Converged, res.Iterations, res.ResidualNorm,
			floats.Norm(x, 2)/floats.Norm(xExact, 2), time.Since(start))
	}
}
