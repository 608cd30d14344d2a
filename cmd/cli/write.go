package cli

import (
	"context"

	"github.com/paust-team/zkwatch/config"
	"github.com/paust-team/zkwatch/constants"
	"github.com/paust-team/zkwatch/message"
	"github.com/paust-team/zkwatch/metrics"
	"github.com/paust-team/zkwatch/producer"
	"github.com/spf13/cobra"
)

var (
	data       string
	version    int32
	async      bool
	create     bool
	createMode string
	acl        string
)

func NewWriteCmd() *cobra.Command {

	endpointConfig := config.NewEndpointConfig()
	var writeCmd = &cobra.Command{
		Use:   "write <uri>",
		Short: "set the data of a node, optionally creating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := message.New([]byte(data)).
				SetHeader(message.HeaderOperation, message.OperationWrite).
				SetHeader(message.HeaderVersion, version)
			if acl != "" {
				msg.SetHeader(message.HeaderACL, acl)
			}
			return runProducer(endpointConfig, args[0], msg)
		},
	}

	writeCmd.Flags().StringVarP(&data, "data", "d", "", "data to write")
	writeCmd.Flags().Int32Var(&version, "version", -1, "expected node version, -1 for any")
	writeCmd.Flags().BoolVar(&async, "async", false, "do not wait for the result")
	writeCmd.Flags().BoolVar(&create, "create", false, "create the node when it does not exist")
	writeCmd.Flags().StringVar(&createMode, "create-mode", constants.DefaultCreateMode, "mode of a created node")
	writeCmd.Flags().StringVar(&acl, "acl", "", "acl of a created node as scheme:id:perms, world:anyone:rwcda when empty")
	addCommonFlags(writeCmd.Flags(), endpointConfig)

	endpointConfig.BindPFlag("create", writeCmd.Flags().Lookup("create"))
	endpointConfig.BindPFlag("create-mode", writeCmd.Flags().Lookup("create-mode"))

	return writeCmd
}

func NewDeleteCmd() *cobra.Command {

	endpointConfig := config.NewEndpointConfig()
	var deleteCmd = &cobra.Command{
		Use:   "delete <uri>",
		Short: "delete a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := message.New(nil).
				SetHeader(message.HeaderOperation, message.OperationDelete).
				SetHeader(message.HeaderVersion, version)
			return runProducer(endpointConfig, args[0], msg)
		},
	}

	deleteCmd.Flags().Int32Var(&version, "version", -1, "expected node version, -1 for any")
	deleteCmd.Flags().BoolVar(&async, "async", false, "do not wait for the result")
	addCommonFlags(deleteCmd.Flags(), endpointConfig)

	return deleteCmd
}

func runProducer(endpointConfig config.EndpointConfig, uri string, msg *message.Message) error {
	collector := metrics.NewCollector(constants.DefaultMetricsNamespace)
	e, err := newEndpoint(endpointConfig, uri, collector)
	if err != nil {
		return err
	}
	defer e.Close()

	if !async {
		msg.Pattern = message.InOut
	}
	p := e.Producer(producer.WithCompletion(func(reply *message.Message) {
		printResult(uri, reply.Err)
	}))
	reply, err := p.Process(context.Background(), msg)
	if err != nil {
		return err
	}
	if reply == nil {
		p.Wait()
		return nil
	}
	printResult(uri, reply.Err)
	return nil
}
