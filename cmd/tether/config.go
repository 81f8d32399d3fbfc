// Config command group: read and write layered configuration.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tether/pkg/types"
)

var configGlobal bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage configuration. Values resolve from the local scope
(.tether/config.yaml in the working directory) first, then fall back to
the global scope (~/.tether/config.yaml). Writes go to the local scope
unless --global is given.

Keys use dotted paths, e.g. github.owner or sqlite.data_dir.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

func init() {
	configCmd.PersistentFlags().BoolVarP(&configGlobal, "global", "g", false, "operate on the global scope only")
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configListCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, ok, err := resolver.Get(args[0], configGlobal)
	if err != nil {
		return fmt.Errorf("config get %s: %w", args[0], err)
	}
	if !ok {
		return fmt.Errorf("%w: config key %q is not set", types.ErrNotFound, args[0])
	}
	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := resolver.Set(args[0], args[1], configGlobal); err != nil {
		return fmt.Errorf("config set %s: %w", args[0], err)
	}
	scope := "local"
	if configGlobal {
		scope = "global"
	}
	fmt.Printf("Set %s = %s (%s)\n", args[0], args[1], scope)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if err := resolver.Unset(args[0], configGlobal); err != nil {
		return fmt.Errorf("config unset %s: %w", args[0], err)
	}
	fmt.Printf("Unset %s\n", args[0])
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	settings, err := resolver.List(configGlobal)
	if err != nil {
		return fmt.Errorf("config list: %w", err)
	}

	if flagJSON {
		return printJSON(settings)
	}

	if len(settings) == 0 {
		fmt.Println("No configuration set.")
		return nil
	}
	for _, key := range sortedKeys(settings) {
		fmt.Printf("%s = %s\n", key, settings[key])
	}
	return nil
}
