package cli

import (
	"fmt"
	"os"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/config"
	"countdown-quiz/internal/domain"
	pgstore "countdown-quiz/internal/infra/postgres"
	redisinfra "countdown-quiz/internal/infra/redis"
	"countdown-quiz/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewImportKeyCmd stores an answers file in Postgres under a quiz id.
func NewImportKeyCmd(configPath *string) *cobra.Command {
	var quizID string
	cmd := &cobra.Command{
		Use:   "import-key <answers-file>",
		Short: "Validate an answers file and store it in Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := app.ParseAnswerKey(string(data), cfg.Quiz.Questions); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := runMigrationsWithConfig(cmd.Context(), cfg, log); err != nil {
				return err
			}
			writer := pgstore.NewAnswerKeyWriter(db)
			if err := writer.SaveAnswerKey(cmd.Context(), domain.AnswerKey{QuizID: quizID, Body: string(data)}); err != nil {
				return err
			}
			log.Info().Str("quiz", quizID).Msg("answer key imported")

			if cfg.Redis.Addr == "" {
				return nil
			}
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()
			cache := redisinfra.NewAnswerKeyRepository(client, nil, 0)
			if err := cache.Invalidate(cmd.Context(), quizID); err != nil {
				log.Warn().Err(err).Str("quiz", quizID).Msg("cached answer key not cleared")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "default", "quiz id to store the key under")
	return cmd
}
