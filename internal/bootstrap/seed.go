package bootstrap

import (
	"log"

	"chattr.app/backend/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "password123"

type demoUser struct {
	FirstName string
	LastName  string
	Email     string
	Bio       string
}

var demoUsers = []demoUser{
	{FirstName: "Ada", LastName: "Lovelace", Email: "ada@chattr.dev", Bio: "First programmer."},
	{FirstName: "Alan", LastName: "Turing", Email: "alan@chattr.dev", Bio: "Thinking about machines."},
	{FirstName: "Grace", LastName: "Hopper", Email: "grace@chattr.dev"},
}

// SeedDemoUsers creates the development accounts that do not exist yet and reports how many it added.
func SeedDemoUsers(db *gorm.DB) (int, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, demo := range demoUsers {
		var count int64
		if err := db.Model(&entity.User{}).
			Where("email = ?", demo.Email).
			Count(&count).Error; err != nil {
			return created, err
		}

		if count > 0 {
			continue
		}

		user := entity.User{
			FirstName:    demo.FirstName,
			LastName:     demo.LastName,
			Email:        demo.Email,
			PasswordHash: string(hashedPasswordBytes),
		}
		if demo.Bio != "" {
			user.Bio = stringPtr(demo.Bio)
		}

		if err := db.Create(&user).Error; err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		log.Printf("Seeded %d demo users (password: %s)", created, DemoPassword)
	}
	return created, nil
}

func stringPtr(s string) *string {
	return &s
}
