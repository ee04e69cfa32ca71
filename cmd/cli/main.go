package main

import (
	"github.com/go-arcade/sniper/pkg/version"
	"github.com/spf13/cobra"
)

/**
 * @file: main.go
 * @description: 运维命令行，离线调试配置匹配与校验配置文件
 */

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sniper-cli",
		Short: "sniper cli is a command line tool",
		Long:  "sniper cli is a command line tool for the sniper service",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	root.AddCommand(version.VersionCmd)
	root.AddCommand(newStandardizeCmd())
	root.AddCommand(newFingerprintCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		panic(err)
	}
}
