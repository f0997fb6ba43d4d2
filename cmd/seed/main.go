package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"predictbattle/internal/app"
	"predictbattle/internal/config"
	"predictbattle/internal/model"
)

var demoQuestions = []string{
	"Who wins the league this season?",
	"Final score of Sunday's derby?",
	"Which team gets relegated first?",
	"Who is top scorer at the break?",
}

var demoPlayers = []string{"ana", "ben", "chloe", "dev", "eli", "fay"}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		username    string
		password    string
		sessions    int
		predictions int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate MongoDB with a demo user, sessions and predictions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessions < 1 || sessions > len(demoQuestions) {
				return fmt.Errorf("--sessions must be between 1 and %d", len(demoQuestions))
			}
			if predictions < 0 || predictions > model.DefaultPlayers {
				return fmt.Errorf("--predictions must be between 0 and %d", model.DefaultPlayers)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			return seed(ctx, a, logger, username, password, sessions, predictions)
		},
	}

	cmd.Flags().StringVar(&username, "user", "demo", "Demo account username")
	cmd.Flags().StringVar(&password, "pass", "demo1234", "Demo account password")
	cmd.Flags().IntVar(&sessions, "sessions", 2, "Number of sessions to create")
	cmd.Flags().IntVar(&predictions, "predictions", 3, "Anonymous predictions per session")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")

	return cmd
}

func seed(ctx context.Context, a *app.App, logger *slog.Logger, username, password string, sessions, predictions int) error {
	account, err := a.AuthService.Register(ctx, username, password)
	if errors.Is(err, model.ErrConflict) {
		account, err = a.AuthService.Login(ctx, username, password)
	}
	if err != nil {
		return fmt.Errorf("failed to prepare demo account: %w", err)
	}
	creator := &model.Identity{UserID: account.ID}
	logger.Info("demo account ready", slog.String("username", account.Username), slog.String("token", account.Token))

	for i := 0; i < sessions; i++ {
		session, err := a.SessionService.CreateSession(ctx, model.CreateSessionInput{
			Question:   demoQuestions[i],
			MaxPlayers: model.DefaultPlayers + i,
		}, creator)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		for _, player := range demoPlayers[:predictions] {
			_, err := a.PredictionService.AddPrediction(ctx, model.AddPredictionInput{
				SessionCode: session.Code,
				PlayerName:  player,
				Content:     fmt.Sprintf("%s thinks: %s", player, demoAnswer(i)),
			}, nil)
			if err != nil {
				return fmt.Errorf("failed to add prediction to %s: %w", session.Code, err)
			}
		}

		logger.Info("session seeded",
			slog.String("code", session.Code),
			slog.String("question", session.Question),
			slog.Int("predictions", predictions),
		)
	}
	return nil
}

func demoAnswer(i int) string {
	answers := []string{"home side by two", "a late equaliser", "the newly promoted club", "the usual striker"}
	return answers[i%len(answers)]
}
