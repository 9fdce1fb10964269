package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/slangc/internal/bytecode"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/interp"
	"github.com/cwbudde/slangc/internal/llvmgen"
	"github.com/cwbudde/slangc/internal/parser"
	"github.com/cwbudde/slangc/internal/sema"
)

var (
	outputFile      string
	dumpBytecode    bool
	executeBytecode bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <source>",
	Short: "Compile a Slang source file to LLVM IR",
	Long: `Compile runs the full pipeline — parse, the nine semantic
phases, bytecode generation, and LLVM emission — and writes the
resulting module as LLVM IR text.

Examples:
  slangc compile program.sl
  slangc compile program.sl -o out.ll
  slangc compile program.sl --dump-bytecode
  slangc compile program.sl --execute-bytecode`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: <input>.ll)")
	compileCmd.Flags().BoolVar(&dumpBytecode, "dump-bytecode", false, "print disassembled bytecode to stderr")
	compileCmd.Flags().BoolVar(&executeBytecode, "execute-bytecode", false, "run the compiled bytecode's main() through the smoke-test interpreter")
}

func runCompile(_ *cobra.Command, args []string) (err error) {
	filename := args[0]

	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*errors.InternalError)
			if !ok {
				panic(r)
			}
			err = ie
		}
	}()

	log := buildLogger()
	defer log.Sync() //nolint:errcheck

	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	p := parser.New(string(src))
	astProg := p.ParseProgram(filepath.Base(filename))
	if len(p.Errors()) > 0 {
		for _, perr := range p.Errors() {
			fmt.Fprintln(os.Stderr, perr)
		}
		return fmt.Errorf("parsing failed with %d error(s)", len(p.Errors()))
	}

	ctx := sema.NewContext(filename, string(src), log)
	pm := sema.NewPassManager(sema.DefaultPasses()...)
	if err := pm.RunAll(astProg, ctx); err != nil {
		return fmt.Errorf("compiler phase failed: %w", err)
	}
	if ctx.Bag.HasErrors() {
		fmt.Fprint(os.Stderr, ctx.Bag.MultiError(true))
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("compilation failed with %d error(s)", len(ctx.Bag.Diagnostics()))
	}

	prog := bytecode.Compile(ctx.Program.Name, ctx.Program)

	if dumpBytecode {
		fmt.Fprintf(os.Stderr, "\n== Bytecode (%s) ==\n", prog.Name)
		bytecode.NewDisassembler(os.Stderr).Disassemble(prog)
		fmt.Fprintln(os.Stderr)
	}

	if executeBytecode {
		result, err := interp.New(prog).Run("main")
		if err != nil {
			return fmt.Errorf("bytecode execution failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "main() -> %v\n", result)
	}

	mod := llvmgen.Emit(prog)

	outFile := outputFile
	if outFile == "" {
		ext := filepath.Ext(filename)
		outFile = strings.TrimSuffix(filename, ext) + ".ll"
	}
	if err := os.WriteFile(outFile, []byte(mod.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outFile, err)
	}

	fmt.Printf("Compiled %s -> %s\n", filename, outFile)
	return nil
}
