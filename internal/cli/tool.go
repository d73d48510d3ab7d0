package cli

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Inspect and invoke the agent's memory tools",
}

func init() {
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the function declarations of every tool",
		Run:   runToolList,
	}

	call := &cobra.Command{
		Use:   "call [name] [json-args]",
		Short: "Invoke a tool the way the agent runtime does",
		Args:  cobra.RangeArgs(1, 2),
		Run:   runToolCall,
	}

	toolCmd.AddCommand(list, call)
	RootCmd.AddCommand(toolCmd)
}

func runToolList(cmd *cobra.Command, args []string) {
	reg, err := newRegistry()
	if err != nil {
		exitErr("open tools", err)
	}

	printJSON(reg.Spec())
}

func runToolCall(cmd *cobra.Command, args []string) {
	fc, err := parseFunctionCall(args)
	if err != nil {
		exitErr("parse args", err)
	}

	reg, err := newRegistry()
	if err != nil {
		exitErr("open tools", err)
	}

	resp, err := reg.Execute(cmd.Context(), fc)
	if err != nil {
		exitErr(fc.Name, err)
	}

	printJSON(resp.Response)
}

func parseFunctionCall(args []string) (genai.FunctionCall, error) {
	fc := genai.FunctionCall{Name: args[0], Args: map[string]any{}}
	if len(args) > 1 && args[1] != "" {
		if err := json.Unmarshal([]byte(args[1]), &fc.Args); err != nil {
			return fc, goerr.Wrap(err, "arguments must be a JSON object", goerr.V("args", args[1]))
		}
	}
	return fc, nil
}
