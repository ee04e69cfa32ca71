package main

import (
	"fmt"

	"github.com/go-arcade/sniper/internal/sniper/config"
	"github.com/go-arcade/sniper/internal/sniper/service/matcher"
	"github.com/spf13/cobra"
)

func newStandardizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standardize CODE...",
		Short: "Strip plan-specific suffixes from addon codes",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, code := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", code, matcher.StandardizeConfig(code))
			}
		},
	}
}

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint MEMORY STORAGE",
		Short: "Print the config fingerprint and display names for a memory/storage pair",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			fp := matcher.NewFingerprint(args[0], args[1])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fingerprint: %s\n", fp)
			fmt.Fprintf(out, "memory:      %s\n", matcher.FormatMemoryDisplay(fp.Memory))
			fmt.Fprintf(out, "storage:     %s\n", matcher.FormatStorageDisplay(fp.Storage))
		},
	}
}

func newConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Load a config file and print the effective listen address and data dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.LoadConfigFile(path)
			if err != nil {
				return err
			}
			httpConf := config.ProvideHttpConfig(&conf)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "listen:   %s:%d\n", httpConf.Host, httpConf.Port)
			fmt.Fprintf(out, "data dir: %s\n", config.ProvideStoreConfig(&conf).Dir)
			fmt.Fprintf(out, "api auth: %t\n", httpConf.Auth.Enable)
			fmt.Fprintf(out, "monitor:  every %ds\n", config.ProvideMonitorConfig(&conf).CheckInterval)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "conf", "c", "conf.d/sniper.toml", "conf file path")
	return cmd
}
