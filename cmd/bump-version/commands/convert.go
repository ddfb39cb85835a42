package commands

import (
	"fmt"

	"jupyterchat/internal/localversion"
	contextutils "jupyterchat/internal/utils"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

// Dialect names accepted by --to
const (
	dialectNPM    = "npm"
	dialectPython = "python"
)

func convertCmd(env Env) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "convert --to npm|python <version>",
		Short: "Convert a version between the Python and NPM spellings",
		Long: heredoc.Doc(`
			Convert a version between the Python and NPM spellings

			Pre-release tags map aN <-> -alpha.N, bN <-> -beta.N and rcN <-> -rc.N.
			The +twdN build tag is kept as is.
		`),
		Example: heredoc.Doc(`
			bump-version convert --to npm 0.19.90a1+twd1
			bump-version convert --to python 0.19.90-alpha.1+twd1
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var (
				converted string
				err       error
			)
			switch to {
			case dialectNPM:
				converted, err = localversion.PythonToNPM(args[0])
			case dialectPython:
				converted, err = localversion.NPMToPython(args[0])
			default:
				return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "--to must be %q or %q, got %q", dialectNPM, dialectPython, to)
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(env.Out, converted)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "target spelling: npm or python")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
