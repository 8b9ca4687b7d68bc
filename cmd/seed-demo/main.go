package main

import (
	"context"
	"fmt"

	"github.com/openexam/cbe-backend/internal/config"
	"github.com/openexam/cbe-backend/internal/database"
	"github.com/openexam/cbe-backend/internal/logger"
	"github.com/openexam/cbe-backend/internal/model"
	"github.com/openexam/cbe-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo subject with a small question set and one student account
// (demo@example.com / password). Intended for local development only.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	student := &model.Student{
		Name:         "Demo Student",
		Email:        "demo@example.com",
		PasswordHash: string(hash),
	}
	if err := studentRepo.Create(ctx, student); err != nil {
		log.Warn().Err(err).Msg("Student seed skipped (may already exist)")
	} else {
		fmt.Printf("Student created: %s (id %d)\n", student.Email, student.ID)
	}

	subject := &model.Subject{
		Name:            "General Knowledge",
		Description:     "A short demo paper",
		DurationMinutes: 10,
		PassingScore:    60,
	}
	if err := subjectRepo.Create(ctx, subject); err != nil {
		log.Fatal().Err(err).Msg("Failed to create subject")
	}
	fmt.Printf("Subject created: %s (id %d)\n", subject.Name, subject.ID)

	questions := []model.Question{
		{
			QuestionText:  "Which planet is known as the Red Planet?",
			OptionA:       "Venus",
			OptionB:       "Mars",
			OptionC:       "Jupiter",
			OptionD:       "Saturn",
			CorrectOption: "B",
		},
		{
			QuestionText:  "What is the chemical symbol for water?",
			OptionA:       "H2O",
			OptionB:       "CO2",
			OptionC:       "NaCl",
			OptionD:       "O2",
			CorrectOption: "A",
		},
		{
			QuestionText:  "How many continents are there on Earth?",
			OptionA:       "Five",
			OptionB:       "Six",
			OptionC:       "Seven",
			OptionD:       "Eight",
			CorrectOption: "C",
		},
	}

	for i := range questions {
		questions[i].SubjectID = subject.ID
		if err := questionRepo.Create(ctx, &questions[i]); err != nil {
			log.Fatal().Err(err).Int("index", i).Msg("Failed to create question")
		}
	}
	fmt.Printf("Seeded %d questions\n", len(questions))
}
