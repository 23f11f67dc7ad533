package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/manasbridge/backend/internal/app"
	"github.com/zhouzirui/manasbridge/backend/internal/model/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/model/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/safety"
)

// visible drops the mood-log marker, including a partial marker at the end of a
// still-streaming reply.
func visible(text string) string {
	text = strings.Replace(text, safety.MoodLogSentinel, "", 1)
	for i := len(safety.MoodLogSentinel) - 1; i > 0; i-- {
		if strings.HasSuffix(text, safety.MoodLogSentinel[:i]) {
			return text[:len(text)-i]
		}
	}
	return text
}

func newChatCmd(services func() *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <message...>",
		Short: "Send one message and stream the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			printed := ""

			observe := func(m chat.Message) {
				if m.Sender != chat.SenderAssistant {
					return
				}
				text := visible(m.Text)
				if len(text) > len(printed) && strings.HasPrefix(text, printed) {
					fmt.Fprint(out, text[len(printed):])
					printed = text
				}
			}

			svc := services().Chat
			// Each invocation is one session; the persona is read once up front.
			personaID, err := svc.Persona(cmd.Context())
			if err != nil {
				return err
			}

			reply, err := svc.Send(cmd.Context(), personaID, strings.Join(args, " "), observe)
			if err != nil {
				return err
			}

			switch reply.Outcome {
			case chat.OutcomeCrisis:
				fmt.Fprintln(out, "It sounds like you are going through a lot. Please reach out for support right now:")
				for _, c := range reply.Contacts {
					fmt.Fprintf(out, "  %s  %s  (%s)\n", c.Name, c.Phone, c.Description)
				}
				return nil
			case chat.OutcomeCompleted:
				fmt.Fprintln(out)
			default:
				if printed != "" {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, reply.Assistant.Text)
			}

			if reply.Assistant.OffersMoodLog() {
				hint := "companion chat mood-log <mood>"
				if reply.Assistant.SuggestedMood != "" {
					hint = "companion chat mood-log " + string(reply.Assistant.SuggestedMood)
				}
				fmt.Fprintf(out, "(Log how you feel: %s)\n", hint)
			}
			return nil
		},
	}
	cmd.AddCommand(newChatMoodLogCmd(services))
	return cmd
}

func newChatMoodLogCmd(services func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "mood-log <mood>",
		Short: "Answer the check-in offered in the conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mood.Parse(args[0])
			if err != nil {
				return err
			}
			entry, err := services().Chat.CompleteMoodLog(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s (%s)\n", entry.Mood.Emoji(), entry.Mood, entry.Note)
			return nil
		},
	}
}

func newHistoryCmd(services func() *app.App) *cobra.Command {
	var clearHistory bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the chat transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := services().Chat
			if clearHistory {
				if err := svc.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Chat history cleared.")
				return nil
			}

			history, err := svc.History(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range history {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", m.Timestamp.Local().Format("2006-01-02 15:04"), m.Sender, m.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearHistory, "clear", false, "Delete the transcript instead of printing it")
	return cmd
}
