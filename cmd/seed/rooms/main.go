package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/domain"
	"github.com/deskhive/deskhive/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB.Database)
	repo := repository.NewMongoRoomRepository(db)

	rooms := []domain.Room{
		{Name: "Focus Pod 1", Capacity: 1, Price: 15, IsActive: true},
		{Name: "Focus Pod 2", Capacity: 1, Price: 15, IsActive: true},
		{Name: "Huddle Room", Capacity: 4, Price: 25, MorningPrice: 20, AfternoonPrice: 22, IsActive: true},
		{Name: "Meeting Room A", Capacity: 8, Price: 40, AllDayPrice: 120, IsActive: true},
		{Name: "Meeting Room B", Capacity: 8, Price: 40, AllDayPrice: 120, IsActive: true},
		{Name: "Boardroom", Capacity: 14, Price: 70, MorningPrice: 55, AfternoonPrice: 60, NightPrice: 50, AllDayPrice: 200, IsActive: true},
		{Name: "Event Space", Capacity: 40, Price: 150, NightPrice: 180, IsActive: true},
	}

	existing, err := repo.ListActive(context.Background())
	if err != nil {
		log.Fatalf("Failed to list rooms: %v", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[r.Name] = true
	}

	for _, room := range rooms {
		if seen[room.Name] {
			fmt.Printf("Skipping duplicate: %s\n", room.Name)
			continue
		}
		if err := repo.Create(context.Background(), &room); err != nil {
			log.Printf("Error creating %s: %v\n", room.Name, err)
		} else {
			fmt.Printf("Created: %s\n", room.Name)
		}
	}
	fmt.Println("Seeding Rooms Complete.")
}
