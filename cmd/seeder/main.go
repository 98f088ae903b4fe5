// Command seeder populates the question catalog from a JSON dataset.
// It is intended to be run offline, not as part of the main server.
//
// Flags:
//
//	--file     path to the question dataset (JSON array)
//	--dry-run  parse the dataset without writing to DB
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres"
	questionrepo "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/question"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/app"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/config"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/domain"
)

type seedQuestion struct {
	ID          string  `json:"id,omitempty"`
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory"`
	Type        string  `json:"type"`
	Difficulty  int     `json:"difficulty"`
	Text        string  `json:"text"`
	ImageRef    *string `json:"imageRef,omitempty"`
	Answers     []struct {
		Text    string `json:"text"`
		Correct bool   `json:"correct"`
	} `json:"answers"`
	Regulation *string `json:"regulation,omitempty"`
	Hint       *string `json:"hint,omitempty"`
}

func main() {
	fileFlag := flag.String("file", "", "path to the question dataset (JSON array)")
	dryRunFlag := flag.Bool("dry-run", false, "parse the dataset without writing to DB")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	if err := run(context.Background(), cfg, logger, *fileFlag, *dryRunFlag); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string, dryRun bool) error {
	if path == "" {
		return errors.New("--file is required")
	}

	questions, err := loadDataset(path)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("dataset parsed",
		slog.String("file", path),
		slog.Int("questions", len(questions)),
	)

	if dryRun {
		logger.Info("dry run, nothing written")
		return nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	repo := questionrepo.New(pool)

	inserted := 0
	for _, q := range questions {
		if _, err := repo.Insert(ctx, q); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				continue
			}
			return fmt.Errorf("insert question %q: %w", q.Text, err)
		}
		inserted++
	}

	logger.Info("seeding complete",
		slog.Int("inserted", inserted),
		slog.Int("skipped", len(questions)-inserted),
	)
	return nil
}

func loadDataset(path string) ([]*domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []seedQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	out := make([]*domain.Question, 0, len(raw))
	for i, sq := range raw {
		q := &domain.Question{
			Category:    domain.Category(sq.Category),
			SubCategory: sq.SubCategory,
			Type:        domain.QuestionType(sq.Type),
			Difficulty:  sq.Difficulty,
			Text:        sq.Text,
			ImageRef:    sq.ImageRef,
			Hint:        sq.Hint,
		}
		if sq.ID != "" {
			id, err := uuid.Parse(sq.ID)
			if err != nil {
				return nil, fmt.Errorf("question %d: invalid id %q", i, sq.ID)
			}
			q.ID = id
		}
		if sq.Regulation != nil {
			reg := domain.Regulation(*sq.Regulation)
			q.Regulation = &reg
		}
		for _, a := range sq.Answers {
			q.Answers = append(q.Answers, domain.Answer{Text: a.Text, Correct: a.Correct})
		}
		if !q.Category.IsValid() {
			return nil, fmt.Errorf("question %d: invalid category %q", i, sq.Category)
		}
		out = append(out, q)
	}
	return out, nil
}
