package cmd

import (
	"fmt"
	"os"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/cmd/record"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/cmd/serve"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "medrec",
		Short: "patient record registry",
		Long: fmt.Sprintf(`medrec (v%s)

A patient record registry. Records are stored with a server assigned id
in local, raft replicated or etcd backed shards and are managed over a
small RPC protocol.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of medrec",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "medrec v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(record.RecordCommands)
	RootCmd.AddCommand(versionCmd)

	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary, msgpack)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
