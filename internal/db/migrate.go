package db

import (
	"context"
	"log"
	"structured-docs/internal/document"
	"structured-docs/internal/extraction"
	"structured-docs/internal/schema"
	"structured-docs/internal/settings"
	"structured-docs/internal/template"
	"structured-docs/internal/user"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&user.User{},
		&document.Document{},
		&document.Row{},
		&template.Template{},
		&settings.Setting{},
		&extraction.UploadAudit{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}

// SeedData seeds the database with initial data (for development only)
func SeedData() {
	ctx := context.Background()

	// Create a test user if it doesn't exist
	userRepo := user.NewRepository(AppDb)

	testUser := &user.User{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	}

	// Check if user exists
	_, err := userRepo.FindByEmail(ctx, testUser.Email)
	if err != nil {
		userService := user.NewService(userRepo)
		// User doesn't exist, create it
		if err := userService.Register(ctx, testUser); err != nil {
			log.Printf("Error creating test user: %v", err)
			return
		}
		log.Printf("Created test user: %s", testUser.Email)

		// Give the test user a starter document
		docRepo := document.NewRepository(AppDb)
		doc := &document.Document{
			Name: "Invoices",
			Fields: schema.FieldList{
				{Name: "titulo", Type: schema.TypeText, Required: true},
				{Name: "fecha", Type: schema.TypeDate},
				{Name: "monto", Type: schema.TypeNumber},
			}.Clone(true).Reindex(),
		}
		if err := docRepo.Create(ctx, testUser.ID, doc); err != nil {
			log.Printf("Error creating starter document: %v", err)
		}
	} else {
		log.Printf("Test user already exists: %s", testUser.Email)
	}
}
