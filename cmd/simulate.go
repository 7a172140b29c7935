package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/event"
	"github.com/AzielCF/az-estate/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one inbound message through the engine and print the replies",
	Long: `simulate always uses the simulation dispatcher: nothing reaches the provider.
Database writes are real. With VALKEY_ENABLED=true the session state survives
between runs, so a conversation can be driven step by step from the shell.`,
	Example: `  az-estate simulate --from 08011111111 --text "hi"
  az-estate simulate --from 08011111111 --button new_service_request`,
	RunE: simulate,
}

func init() {
	simulateCmd.Flags().String("from", "", "sender phone number")
	simulateCmd.Flags().String("text", "", "text body to send")
	simulateCmd.Flags().String("button", "", "button / option id to tap")
	simulateCmd.Flags().String("title", "", "title of the tapped button")
	_ = simulateCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, _ []string) error {
	from, _ := cmd.Flags().GetString("from")
	text, _ := cmd.Flags().GetString("text")
	button, _ := cmd.Flags().GetString("button")
	title, _ := cmd.Flags().GetString("title")

	request := event.SimulatorRequest{From: from, Text: text, ButtonID: button, ButtonTitle: title}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := validations.ValidateSimulatorRequest(ctx, request); err != nil {
		return err
	}

	simCfg := *cfg
	simCfg.Channel.Simulation = true
	eng, err := newEngine(ctx, &simCfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	outbound, unsubscribe := eng.bus.Subscribe(channel.TopicOutbound)
	defer unsubscribe()

	evt := request.ToEvent("sim-cli-"+uuid.NewString(), time.Now().UTC())
	if err := eng.router.Handle(ctx, evt); err != nil {
		return err
	}

	printed := 0
	for {
		select {
		case env, ok := <-outbound:
			if !ok {
				return nil
			}
			data, err := json.MarshalIndent(env.Payload, "", "  ")
			if err != nil {
				logrus.WithError(err).Warn("[SIMULATE] Failed to render outbound message")
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			printed++
		default:
			if printed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no reply)")
			}
			return nil
		}
	}
}
