package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/aretw0/motherlink/internal/presentation/tui"
	"github.com/aretw0/motherlink/pkg/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an interactive USSD session in the terminal",
	Long: `Simulates a handset: every reply is appended to the path and the whole path is
resubmitted, exactly as the USSD gateway does. Type 'exit' to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		phone, _ := cmd.Flags().GetString("phone")
		serviceCode, _ := cmd.Flags().GetString("service-code")
		loop, _ := cmd.Flags().GetBool("loop")

		a, err := buildApp(cmd.Context(), cfg, logger, buildOptions{inMemory: true, logSMS: true})
		if err != nil {
			return err
		}
		defer a.Close()

		screen := tui.NewScreen(os.Stdout)
		tui.PrintBanner(os.Stdout, screen.Profile())

		sim := &simulator{
			handle:      a.service.Handle,
			screen:      screen,
			in:          bufio.NewScanner(cmd.InOrStdin()),
			phone:       phone,
			serviceCode: serviceCode,
		}
		for {
			ended, err := sim.session(cmd.Context())
			if err != nil || !ended || !loop {
				return err
			}
		}
	},
}

// simulator replays a growing path against the service.
type simulator struct {
	handle      func(context.Context, domain.Request) string
	screen      *tui.Screen
	in          *bufio.Scanner
	phone       string
	serviceCode string
}

// session runs one USSD session. It reports whether the service ended it;
// false means the user quit or input ran out.
func (s *simulator) session(ctx context.Context) (bool, error) {
	req := domain.Request{
		SessionID:   uuid.NewString(),
		ServiceCode: s.serviceCode,
		PhoneNumber: s.phone,
	}
	s.screen.Info("session %s from %s", req.SessionID, req.PhoneNumber)

	var tokens []string
	for {
		req.Path = strings.Join(tokens, domain.PathDelimiter)
		if s.screen.Render(s.handle(ctx, req)) {
			return true, nil
		}

		s.screen.Prompt(req.Path)
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil && err != io.EOF {
				return false, err
			}
			s.screen.Info("")
			return false, nil
		}
		input := strings.TrimSpace(s.in.Text())
		if input == "exit" || input == "quit" {
			return false, nil
		}
		tokens = append(tokens, input)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("phone", "+250788000000", "Caller phone number")
	simulateCmd.Flags().String("service-code", "*123#", "Dialed service code")
	simulateCmd.Flags().Bool("loop", false, "Start a new session after each one ends")
}
