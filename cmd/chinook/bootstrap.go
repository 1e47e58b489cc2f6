package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"chinook/internal/auth"
	"chinook/internal/models"
)

const demoUserID = "demo"

var demoCatalog = []models.ArtistSeed{
	{
		Name: "AC/DC",
		Albums: []models.AlbumSeed{
			{Title: "For Those About To Rock We Salute You", Tracks: []string{"For Those About To Rock (We Salute You)", "Put The Finger On You", "Let's Get It Up"}},
			{Title: "Let There Be Rock", Tracks: []string{"Go Down", "Dog Eat Dog", "Let There Be Rock"}},
		},
	},
	{
		Name: "Accept",
		Albums: []models.AlbumSeed{
			{Title: "Balls to the Wall", Tracks: []string{"Balls to the Wall"}},
			{Title: "Restless and Wild", Tracks: []string{"Fast As a Shark", "Restless and Wild", "Princess of the Dawn"}},
		},
	},
	{
		Name: "Aerosmith",
		Albums: []models.AlbumSeed{
			{Title: "Big Ones", Tracks: []string{"Walk On Water", "Love In An Elevator", "Rag Doll"}},
		},
	},
	{
		Name: "Alanis Morissette",
		Albums: []models.AlbumSeed{
			{Title: "Jagged Little Pill", Tracks: []string{"All I Really Want", "You Oughta Know", "Ironic"}},
		},
	},
}

// bootstrapDemoData registers the demo user, seeds the catalogue when no
// tracks exist and logs a token for the demo user.
func bootstrapDemoData(ctx context.Context, st dataStore, tokens *auth.Tokens) error {
	if err := st.EnsureUser(ctx, demoUserID, "demo@chinook.local"); err != nil {
		return fmt.Errorf("bootstrap demo user: %w", err)
	}

	empty, err := st.CatalogEmpty(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap catalog: %w", err)
	}
	if empty {
		if err := st.SeedCatalog(ctx, demoCatalog); err != nil {
			return fmt.Errorf("bootstrap catalog: %w", err)
		}
		log.Info().Int("artists", len(demoCatalog)).Msg("seeded demo catalog")
	}

	token, err := tokens.Issue(demoUserID)
	if err != nil {
		return fmt.Errorf("bootstrap demo token: %w", err)
	}
	log.Info().Str("user_id", demoUserID).Str("token", token).Msg("development token for demo user")
	return nil
}
