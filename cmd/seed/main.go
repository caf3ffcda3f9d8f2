package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/greenstay/hotelenergy/internal/config"
	"github.com/greenstay/hotelenergy/internal/db"
	"github.com/greenstay/hotelenergy/internal/models"
	"github.com/greenstay/hotelenergy/internal/rbac"
	"github.com/greenstay/hotelenergy/internal/service"
)

// Seeds the initial admin account and a handful of demo room readings.
func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	database, err := db.Open(ctx, configuration.DSN())
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	users := &service.UserService{DB: database}

	adminUser := envDefault("ADMIN_USERNAME", "admin")
	adminPass := os.Getenv("ADMIN_PASSWORD")
	if adminPass == "" {
		log.Fatal("ADMIN_PASSWORD must be set")
	}

	if _, err := users.GetByUsername(ctx, adminUser); err == nil {
		log.Printf("admin %q already exists, skipping", adminUser)
	} else {
		if _, err := users.Create(ctx, service.CreateUserInput{
			Username: adminUser,
			Password: adminPass,
			Role:     rbac.RoleAdmin,
		}); err != nil {
			log.Fatalf("create admin: %v", err)
		}
		log.Printf("created admin %q", adminUser)
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 1; i <= 5; i++ {
		reading := models.RoomData{
			RoomID:    fmt.Sprintf("room_%d", i),
			Temp:      18 + rnd.Float64()*10,
			Humidity:  30 + rnd.Float64()*40,
			Occupied:  rnd.Intn(2) == 1,
			Timestamp: time.Now().UTC(),
		}
		if err := database.WithContext(ctx).Create(&reading).Error; err != nil {
			log.Fatalf("seed room data: %v", err)
		}
	}
	log.Println("seeded demo room data")
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
