package record

import (
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/cmd/util"
	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcRecords *client.RPCRecordService

	// RecordCommands represents the patient record command group
	RecordCommands = &cobra.Command{
		Use:                "record",
		Short:              "Manage patient records on a medrec server",
		PersistentPreRunE:  setupRecordClient,
		PersistentPostRunE: closeRecordClient,
		SilenceUsage:       true,
	}
)

func init() {
	util.SetupRPCClientFlags(RecordCommands)

	key := "output"
	RecordCommands.PersistentFlags().StringP(key, "o", "text", util.WrapString("Output format (text, json, yaml)"))

	RecordCommands.AddCommand(addCmd)
	RecordCommands.AddCommand(getCmd)
	RecordCommands.AddCommand(updateCmd)
	RecordCommands.AddCommand(deleteCmd)
	RecordCommands.AddCommand(listCmd)
	RecordCommands.AddCommand(perfTestCmd)
}

// setupRecordClient initializes the RPC record client
func setupRecordClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if _, err := parseOutputFormat(viper.GetString("output")); err != nil {
		return err
	}

	config := util.GetClientConfig()
	shardId := util.GetShardID()

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	rpcRecords, err = client.NewRPCRecordService(shardId, *config, t, s)
	return err
}

func closeRecordClient(_ *cobra.Command, _ []string) error {
	if rpcRecords == nil {
		return nil
	}
	return rpcRecords.Close()
}
