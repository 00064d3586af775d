package seeders

import (
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/plano-vida/plano_api/model"
	"github.com/plano-vida/plano_api/shared"
)

// DemoSeeder creates a demo account with a sample life plan so a fresh
// install has data to browse.
type DemoSeeder struct {
	db *gorm.DB
}

// NewDemoSeeder creates a new demo seeder
func NewDemoSeeder(db *gorm.DB) *DemoSeeder {
	return &DemoSeeder{db: db}
}

type demoGoal struct {
	yearOffset int
	area       string
	text       string
	completed  bool
}

var demoGoals = []demoGoal{
	{0, shared.AreaSpiritual, "Ler um livro de reflexão por trimestre", true},
	{0, shared.AreaIntellectual, "Concluir um curso de inglês intermediário", false},
	{0, shared.AreaFamily, "Jantar em família toda sexta-feira", true},
	{0, shared.AreaSocial, "Reencontrar três amigos de infância", false},
	{0, shared.AreaFinancial, "Guardar 10% da renda mensal", false},
	{0, shared.AreaProfessional, "Obter uma certificação na minha área", false},
	{0, shared.AreaHealth, "Correr 5km sem parar", true},
	{1, shared.AreaFinancial, "Montar reserva de emergência de 6 meses", false},
	{1, shared.AreaProfessional, "Assumir a liderança de um projeto", false},
	{1, shared.AreaHealth, "Completar uma meia maratona", false},
	{2, shared.AreaFamily, "Planejar uma viagem internacional em família", false},
	{2, shared.AreaIntellectual, "Começar uma pós-graduação", false},
}

// SeedDemoAccount creates the demo user, a three-year plan and its goals.
// It is idempotent: if the demo user already exists nothing is touched.
func (s *DemoSeeder) SeedDemoAccount() error {
	var existing model.User
	if err := s.db.Where("email = ?", "demo@planodevida.app").First(&existing).Error; err == nil {
		log.Println("Demo user already exists, skipping demo seeding")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	startYear := now.Year()

	userID, _ := uuid.NewV7()
	user := model.User{
		ID:            userID.String(),
		Email:         "demo@planodevida.app",
		Username:      "demo",
		Password:      string(hashed),
		Role:          model.RoleUser,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return err
	}

	planID, _ := uuid.NewV7()
	plan := model.LifePlan{
		ID:        planID.String(),
		UserID:    user.ID,
		Title:     "Meu Plano de Vida",
		StartYear: startYear,
		EndYear:   startYear + 4,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.Create(&plan).Error; err != nil {
		return err
	}

	completed := 0
	goals := make([]model.LifeGoal, 0, len(demoGoals))
	for _, dg := range demoGoals {
		id, _ := uuid.NewV7()
		age := 30 + dg.yearOffset
		goal := model.LifeGoal{
			ID:        id.String(),
			PlanID:    plan.ID,
			UserID:    user.ID,
			Year:      startYear + dg.yearOffset,
			Age:       &age,
			Area:      dg.area,
			Text:      dg.text,
			Completed: dg.completed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if dg.completed {
			completedAt := now.AddDate(0, 0, -completed)
			goal.CompletedAt = &completedAt
			completed++
		}
		goals = append(goals, goal)
	}
	if err := s.db.Create(&goals).Error; err != nil {
		return err
	}

	// progress row matching the completed goals above
	streakID, _ := uuid.NewV7()
	lastActivity := now.Truncate(24 * time.Hour)
	streak := model.UserStreak{
		ID:                  streakID.String(),
		UserID:              user.ID,
		CurrentStreak:       1,
		LongestStreak:       3,
		LastActivityDate:    &lastActivity,
		TotalGoalsCompleted: completed,
		TotalPoints:         completed * 10,
		Level:               completed*10/100 + 1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.db.Create(&streak).Error; err != nil {
		return err
	}

	log.Printf("Created demo user: %s (password: demo1234) with %d goals", user.Email, len(goals))
	return nil
}
