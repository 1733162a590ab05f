package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gamestore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gamestore-backend/pkg/errors"
)

// SeedBatchSize is the insert chunk used by the generators.
const SeedBatchSize = 50

type sampleGame struct {
	title       string
	description string
	price       string
	genre       string
	platform    string
	imageURL    string
	rating      string
	releaseDate string
	stock       int
}

var sampleCatalog = []sampleGame{
	{
		title:       "Cyber Legends 2077",
		description: "Experience the ultimate cyberpunk adventure in a neon-lit metropolis. Hack, shoot, and drive your way through a dystopian future.",
		price:       "59.99", genre: "Action", platform: "PC, PlayStation, Xbox",
		imageURL: "/games/cyberpunk-game.jpg", rating: "4.8", releaseDate: "2024-01-15", stock: 15,
	},
	{
		title:       "Fantasy Quest XII",
		description: "Embark on an epic journey through magical realms. Battle dragons, cast spells, and save the kingdom from ancient evil.",
		price:       "49.99", genre: "RPG", platform: "PC, Nintendo Switch",
		imageURL: "/games/fantasy-rpg.jpg", rating: "4.6", releaseDate: "2023-11-20", stock: 8,
	},
	{
		title:       "Speed Rush Pro",
		description: "Feel the adrenaline in the fastest racing game ever. Drive supercars through stunning tracks around the world.",
		price:       "39.99", genre: "Racing", platform: "PC, PlayStation, Xbox",
		imageURL: "/games/racing.jpg", rating: "4.7", releaseDate: "2024-02-10", stock: 12,
	},
	{
		title:       "Space Defender",
		description: "Defend Earth from alien invaders in this intense space shooter. Upgrade your ship and save humanity.",
		price:       "29.99", genre: "Shooter", platform: "PC, Xbox",
		imageURL: "/games/space-shooter.jpg", rating: "4.5", releaseDate: "2023-09-05", stock: 20,
	},
	{
		title:       "Mind Bender",
		description: "Challenge your brain with hundreds of colorful puzzles. Perfect for all ages and skill levels.",
		price:       "19.99", genre: "Puzzle", platform: "PC, Mobile, Switch",
		imageURL: "/games/puzzle.jpg", rating: "4.4", releaseDate: "2024-03-01", stock: 25,
	},
}

// SampleGames returns the fixed sample catalog.
func SampleGames() []models.Game {
	games := make([]models.Game, 0, len(sampleCatalog))
	for _, s := range sampleCatalog {
		rating := decimal.RequireFromString(s.rating)
		release, _ := time.Parse(releaseDateLayout, s.releaseDate)
		games = append(games, models.Game{
			Title:       s.title,
			Description: s.description,
			Price:       decimal.RequireFromString(s.price),
			Genre:       s.genre,
			Platform:    s.platform,
			ImageURL:    s.imageURL,
			Rating:      &rating,
			ReleaseDate: &release,
			Stock:       s.stock,
		})
	}
	return games
}

// Seed inserts the sample catalog, skipping titles that already exist so it
// can run repeatedly without touching games referenced by orders.
func (s *service) Seed(ctx context.Context) (*SeedResult, error) {
	samples := SampleGames()
	titles := make([]string, 0, len(samples))
	for _, g := range samples {
		titles = append(titles, g.Title)
	}
	existing, err := s.repo.ExistingTitles(ctx, titles)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing titles")
	}

	toInsert := make([]models.Game, 0, len(samples))
	for _, g := range samples {
		if _, ok := existing[g.Title]; ok {
			continue
		}
		toInsert = append(toInsert, g)
	}
	if err := s.repo.CreateBatch(ctx, toInsert, SeedBatchSize); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sample games")
	}

	result := &SeedResult{Inserted: len(toInsert), Skipped: len(samples) - len(toInsert)}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"inserted": result.Inserted, "skipped": result.Skipped}), "catalog seeded")
	return result, nil
}

var (
	seedGenres     = []string{"Action", "RPG", "Shooter", "Strategy", "Sports", "Racing", "Adventure", "Puzzle", "Simulation", "Horror"}
	seedPlatforms  = []string{"PC", "PlayStation 5", "Xbox Series X", "Nintendo Switch", "Mobile"}
	seedDevelopers = []string{"Naughty Dog", "Rockstar Games", "CD Projekt Red", "Valve", "Ubisoft", "EA Games", "Square Enix", "Capcom", "Bethesda", "FromSoftware"}
	seedPublishers = []string{"Sony Interactive", "Take-Two Interactive", "CD Projekt", "Valve Corporation", "Ubisoft Entertainment", "Electronic Arts", "Square Enix", "Capcom", "Bethesda Softworks", "Bandai Namco"}
	titlePrefixes  = []string{"The", "Call of", "Battle", "Grand", "Need for", "Assassin's", "Final", "Metal", "Super", "Mega"}
	titleMiddles   = []string{"Duty", "Field", "Theft", "Creed", "Fantasy", "Gear", "Mario", "Sonic", "Zelda", "Pokemon"}
	titleSuffixes  = []string{"Modern Warfare", "Black Ops", "Auto", "Odyssey", "VII", "Solid", "World", "Adventure", "Quest", "Chronicles"}
	seedBlurbs     = []string{
		"An epic adventure that takes you on a journey through breathtaking worlds filled with danger and discovery.",
		"Experience intense gameplay with stunning graphics and immersive storytelling that will keep you engaged for hours.",
		"Join the fight in this action-packed game featuring multiplayer modes and challenging single-player campaigns.",
		"Explore vast open worlds, complete quests, and uncover secrets in this role-playing masterpiece.",
		"Race against time in high-speed action with realistic physics and competitive multiplayer modes.",
		"Solve puzzles and overcome obstacles in this mind-bending adventure that challenges your problem-solving skills.",
		"Build, create, and survive in this sandbox world where your imagination is the only limit.",
		"Command armies, conquer territories, and outsmart your opponents in this strategic masterpiece.",
		"Experience heart-pounding horror as you navigate through dark environments filled with terrifying creatures.",
		"Compete with players worldwide in this fast-paced sports game with realistic gameplay and stunning visuals.",
	}
	seedSpecs = []string{
		"Minimum: OS: Windows 10, CPU: Intel Core i5, RAM: 8GB, GPU: GTX 1060",
		"Recommended: OS: Windows 11, CPU: Intel Core i7, RAM: 16GB, GPU: RTX 3070",
		"System Requirements: 4GB RAM, 2GB GPU, DirectX 11 compatible",
		"High-end PC recommended for optimal performance",
		"Compatible with most modern gaming systems",
	}
)

const seedVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// GenerateGames builds n random games: price $10-$70, rating 1.0-5.0,
// stock 10-110, roughly 30% with a video.
func GenerateGames(n int, rng *rand.Rand) []models.Game {
	games := make([]models.Game, 0, n)
	for i := 1; i <= n; i++ {
		title := fmt.Sprintf("%s %s %s %d", pick(rng, titlePrefixes), pick(rng, titleMiddles), pick(rng, titleSuffixes), i)
		if len(title) > 100 {
			title = title[:100]
		}
		price := decimal.NewFromInt(1000 + rng.Int64N(6001)).Shift(-2)
		rating := decimal.NewFromInt(10 + rng.Int64N(41)).Shift(-1)
		release := time.Date(2020+rng.IntN(5), time.Month(1+rng.IntN(12)), 1+rng.IntN(28), 0, 0, 0, 0, time.UTC)
		specs := pick(rng, seedSpecs)
		developer := pick(rng, seedDevelopers)
		publisher := pick(rng, seedPublishers)

		game := models.Game{
			Title:       title,
			Description: pick(rng, seedBlurbs),
			Price:       price,
			Genre:       pick(rng, seedGenres),
			Platform:    pick(rng, seedPlatforms),
			ImageURL:    fmt.Sprintf("https://picsum.photos/400/300?random=%d", i),
			Rating:      &rating,
			ReleaseDate: &release,
			Stock:       10 + rng.IntN(101),
			Specs:       &specs,
			Developer:   &developer,
			Publisher:   &publisher,
		}
		if rng.Float64() > 0.7 {
			video := seedVideoURL
			game.VideoURL = &video
		}
		games = append(games, game)
	}
	return games
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}
