package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/paust-team/zkwatch/config"
	"github.com/paust-team/zkwatch/constants"
	"github.com/paust-team/zkwatch/consumer"
	"github.com/paust-team/zkwatch/message"
	"github.com/paust-team/zkwatch/metrics"
	"github.com/spf13/cobra"
)

var (
	listChildren      bool
	repeat            bool
	backoff           uint
	sendEmptyOnDelete bool
)

func NewWatchCmd() *cobra.Command {

	endpointConfig := config.NewEndpointConfig()
	var watchCmd = &cobra.Command{
		Use:   "watch <uri>",
		Short: "print the data or children of a node every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collector := metrics.NewCollector(constants.DefaultMetricsNamespace)
			e, err := newEndpoint(endpointConfig, args[0], collector)
			if err != nil {
				return err
			}
			defer e.Close()
			stopMetrics := serveMetrics(e.Config().MetricsAddr(), collector)
			defer stopMetrics()

			sigCh := make(chan os.Signal, 1)
			defer close(sigCh)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				if sig, ok := <-sigCh; ok {
					fmt.Println("received signal:", sig)
					cancel()
				}
			}()

			c := e.Consumer(consumer.ProcessorFunc(printMessage))
			if err := c.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			if err := c.Stop(); err != nil {
				return err
			}
			fmt.Println("watch finished")
			return nil
		},
	}

	watchCmd.Flags().BoolVar(&listChildren, "list-children", false, "watch the children listing instead of the data")
	watchCmd.Flags().BoolVar(&repeat, "repeat", false, "keep watching after the first change")
	watchCmd.Flags().UintVar(&backoff, "backoff", uint(constants.DefaultBackoff/time.Millisecond), "delay before restarting after an error in ms")
	watchCmd.Flags().BoolVar(&sendEmptyOnDelete, "send-empty-message-on-delete", true, "print an empty message when the node is deleted")
	addCommonFlags(watchCmd.Flags(), endpointConfig)

	endpointConfig.BindPFlag("list-children", watchCmd.Flags().Lookup("list-children"))
	endpointConfig.BindPFlag("repeat", watchCmd.Flags().Lookup("repeat"))
	endpointConfig.BindPFlag("backoff", watchCmd.Flags().Lookup("backoff"))
	endpointConfig.BindPFlag("send-empty-message-on-delete", watchCmd.Flags().Lookup("send-empty-message-on-delete"))

	return watchCmd
}

func printMessage(msg *message.Message) error {
	node, _ := msg.Node()
	switch {
	case msg.Err != nil:
		fmt.Printf("%s: %v\n", node, msg.Err)
	case msg.Children != nil:
		fmt.Printf("%s: [%s]\n", node, strings.Join(msg.Children, ", "))
	case msg.IsEmpty():
		eventType, _ := msg.EventType()
		fmt.Printf("%s: <%s>\n", node, eventType)
	default:
		version, _, _ := msg.Version()
		fmt.Printf("%s (version %d): %s\n", node, version, msg.Data)
	}
	return nil
}
