// Copyright 2024 The flarevm Authors
// This file is part of the flarevm library.
//
// The flarevm library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The flarevm library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the flarevm library. If not, see <http://www.gnu.org/licenses/>.

// flarevm is a command line tool to run EVM bytecode against an in-memory
// state, reporting the execution outcome, output and gas usage.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/flarevm/flarevm/core/vm"
	"github.com/flarevm/flarevm/core/vm/runtime"
)

var (
	codeFlag = &cli.StringFlag{
		Name:  "code",
		Usage: "EVM bytecode to run, hex encoded",
	}
	codeFileFlag = &cli.StringFlag{
		Name:  "codefile",
		Usage: "File containing hex encoded EVM bytecode ('-' for stdin)",
	}
	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: "Call data passed to the code, hex encoded",
	}
	gasFlag = &cli.Int64Flag{
		Name:  "gas",
		Usage: "Gas limit of the execution",
		Value: 10_000_000,
	}
	revisionFlag = &cli.StringFlag{
		Name:  "revision",
		Usage: "Instruction set revision (frontier ... shanghai)",
		Value: "shanghai",
	}
	createFlag = &cli.BoolFlag{
		Name:  "create",
		Usage: "Treat the code as init code and deploy it",
	}
	benchFlag = &cli.BoolFlag{
		Name:  "bench",
		Usage: "Report analysis and execution timings",
	}
	statFlag = &cli.BoolFlag{
		Name:  "stat",
		Usage: "Print memory and refund statistics",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
)

var app = &cli.App{
	Name:  "flarevm",
	Usage: "run EVM bytecode",
	Flags: []cli.Flag{
		codeFlag,
		codeFileFlag,
		inputFlag,
		gasFlag,
		revisionFlag,
		createFlag,
		benchFlag,
		statFlag,
		verbosityFlag,
	},
	Before: func(ctx *cli.Context) error {
		level := log.LevelInfo
		switch ctx.Int(verbosityFlag.Name) {
		case 0:
			level = log.LevelCrit
		case 1:
			level = log.LevelError
		case 2:
			level = log.LevelWarn
		case 3:
			level = log.LevelInfo
		case 4:
			level = log.LevelDebug
		default:
			level = log.LevelTrace
		}
		log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, false)))
		return nil
	},
	Action: run,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var revisions = map[string]vm.Revision{
	"frontier":         vm.Frontier,
	"homestead":        vm.Homestead,
	"tangerinewhistle": vm.TangerineWhistle,
	"spuriousdragon":   vm.SpuriousDragon,
	"byzantium":        vm.Byzantium,
	"constantinople":   vm.Constantinople,
	"petersburg":       vm.Petersburg,
	"istanbul":         vm.Istanbul,
	"berlin":           vm.Berlin,
	"london":           vm.London,
	"paris":            vm.Paris,
	"shanghai":         vm.Shanghai,
}

func loadCode(ctx *cli.Context) ([]byte, error) {
	var hexCode string
	switch {
	case ctx.IsSet(codeFlag.Name):
		hexCode = ctx.String(codeFlag.Name)
	case ctx.IsSet(codeFileFlag.Name):
		var (
			data []byte
			err  error
		)
		if name := ctx.String(codeFileFlag.Name); name == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, err
		}
		hexCode = string(data)
	default:
		return nil, fmt.Errorf("either --%s or --%s must be given", codeFlag.Name, codeFileFlag.Name)
	}
	hexCode = strings.TrimSpace(hexCode)
	hexCode = strings.TrimPrefix(hexCode, "0x")
	return hexutil.Decode("0x" + hexCode)
}

func run(ctx *cli.Context) error {
	code, err := loadCode(ctx)
	if err != nil {
		return err
	}
	var input []byte
	if ctx.IsSet(inputFlag.Name) {
		in := strings.TrimPrefix(ctx.String(inputFlag.Name), "0x")
		if input, err = hexutil.Decode("0x" + in); err != nil {
			return fmt.Errorf("invalid input: %v", err)
		}
	}
	rev, ok := revisions[strings.ToLower(ctx.String(revisionFlag.Name))]
	if !ok {
		return fmt.Errorf("unknown revision %q", ctx.String(revisionFlag.Name))
	}
	cfg := &runtime.Config{
		Revision: rev,
		GasLimit: ctx.Int64(gasFlag.Name),
	}
	log.Info("Executing bytecode", "size", len(code), "revision", rev, "gas", cfg.GasLimit)

	var analysisTime time.Duration
	if ctx.Bool(benchFlag.Name) {
		start := time.Now()
		vm.Analyze(rev, code)
		analysisTime = time.Since(start)
	}

	start := time.Now()
	var res vm.Result
	if ctx.Bool(createFlag.Name) {
		res, _ = runtime.Create(code, cfg)
	} else {
		res, _ = runtime.Execute(code, input, cfg)
	}
	execTime := time.Since(start)

	fmt.Printf("status:   %v\n", res.Status)
	if ctx.Bool(createFlag.Name) && res.Status == vm.Success {
		fmt.Printf("contract: %v\n", res.CreateAddress)
	}
	if len(res.Output) > 0 {
		fmt.Printf("output:   %x\n", res.Output)
	}
	fmt.Printf("gas used: %d\n", cfg.GasLimit-res.GasLeft)
	if ctx.Bool(statFlag.Name) {
		fmt.Printf("refund:   %d\n", res.GasRefund)
		fmt.Printf("memory:   %d bytes\n", res.MemoryConsumed)
	}
	if ctx.Bool(benchFlag.Name) {
		fmt.Printf("analysis: %v\n", analysisTime)
		fmt.Printf("run:      %v\n", execTime)
	}
	return nil
}
