package database

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sushicount-api/logger"
	"sushicount-api/models"
	"sushicount-api/repositories"
	"sushicount-api/security"
	"sushicount-api/storage"
)

// 1x1 transparent PNG attached to the first sample session.
const samplePNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVQYV2NgYGD4DwABBAEAk0nKxQAAAABJRU5ErkJggg=="

type SeedAccount struct {
	Email    string
	Password string
}

var defaultSeedAccounts = []SeedAccount{
	{Email: "alice@example.com", Password: "Password1"},
	{Email: "bob@example.com", Password: "Password2"},
	{Email: "carol@example.com", Password: "Password3"},
}

// ParseSeedAccounts reads "Email:" / "Password:" blocks separated by blank lines.
// Incomplete blocks are skipped.
func ParseSeedAccounts(r io.Reader) ([]SeedAccount, error) {
	var (
		accounts []SeedAccount
		current  SeedAccount
	)
	flush := func() {
		if current.Email != "" && current.Password != "" {
			accounts = append(accounts, current)
		}
		current = SeedAccount{}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if value, ok := cutPrefixFold(line, "Email:"); ok {
			current.Email = value
		} else if value, ok := cutPrefixFold(line, "Password:"); ok {
			current.Password = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed accounts: %w", err)
	}
	flush()

	return accounts, nil
}

func cutPrefixFold(line, prefix string) (string, bool) {
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(prefix):]), true
}

func loadSeedAccounts(path string) []SeedAccount {
	if path == "" {
		return defaultSeedAccounts
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Could not open seed file, using default accounts", "path", path, "error", err)
		return defaultSeedAccounts
	}
	defer f.Close()

	accounts, err := ParseSeedAccounts(f)
	if err != nil || len(accounts) == 0 {
		logger.Warn("Seed file has no usable accounts, using defaults", "path", path, "error", err)
		return defaultSeedAccounts
	}
	return accounts
}

// SeedData fills an empty database with sample users who are all friends, two sessions
// and a sample thumbnail.
func SeedData(ctx context.Context, db *gorm.DB, blobs storage.BlobStore, seedFile string) error {
	users := repositories.NewUserRepository(db)
	sessions := repositories.NewSessionRepository(db, blobs)

	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Database already has data, skipping seed")
		return nil
	}

	seeded := make([]models.User, 0)
	names := make(map[string]bool)
	for i, account := range loadSeedAccounts(seedFile) {
		hash, err := security.HashPassword(account.Password)
		if err != nil {
			logger.Warn("Skipping seed account", "email", account.Email, "error", err)
			continue
		}

		name := models.NameFromEmail(account.Email)
		if name == "" {
			name = "user" + strconv.Itoa(i+1)
		}
		if names[name] {
			name += strconv.Itoa(i + 1)
		}
		names[name] = true

		user := models.User{Name: name, Email: account.Email, Password: hash}
		if err := users.Create(ctx, &user); err != nil {
			logger.Warn("Could not create seed user", "email", account.Email, "error", err)
			continue
		}
		seeded = append(seeded, user)
	}

	if err := seedFriendships(ctx, db, seeded); err != nil {
		return err
	}
	if len(seeded) == 0 {
		return nil
	}

	first, err := seedSessions(ctx, sessions, seeded)
	if err != nil {
		return err
	}

	png, err := base64.StdEncoding.DecodeString(samplePNG)
	if err != nil {
		return fmt.Errorf("failed to decode sample image: %w", err)
	}
	image := models.ImageRef{
		FileName:    "seed-sample.png",
		ContentType: "image/png",
		Size:        int64(len(png)),
		UploadedBy:  "seed",
	}
	if err := sessions.AddImage(ctx, first.ID, &image, bytes.NewReader(png)); err != nil {
		logger.Warn("Failed to attach sample image", "session_id", first.ID, "error", err)
	}

	logger.Info("Database seeded", "users", len(seeded))
	return nil
}

func seedFriendships(ctx context.Context, db *gorm.DB, users []models.User) error {
	var friendships []models.Friendship
	for i := range users {
		for j := i + 1; j < len(users); j++ {
			friendships = append(friendships, models.NewFriendship(users[i].ID, users[j].ID))
		}
	}
	if len(friendships) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&friendships).Error; err != nil {
		return fmt.Errorf("failed to seed friendships: %w", err)
	}
	return nil
}

func seedSessions(ctx context.Context, sessions *repositories.SessionRepository, users []models.User) (*models.Session, error) {
	participantsFrom := func(users []models.User) []models.Participant {
		out := make([]models.Participant, 0, len(users))
		for _, u := range users {
			out = append(out, models.Participant{UserID: u.ID})
		}
		return out
	}

	sushiPlace := "Sushi Place"
	weekly := "Weekly sushi meetup"
	first := models.Session{
		Title:          "Sushi Night",
		RestaurantName: &sushiPlace,
		Description:    &weekly,
		CreatorID:      users[0].ID,
		Participants:   participantsFrom(users[1:]),
	}
	if err := sessions.Create(ctx, &first); err != nil {
		return nil, fmt.Errorf("failed to seed session %q: %w", first.Title, err)
	}

	creator := users[0]
	rest := []models.User{}
	if len(users) > 1 {
		creator = users[1]
	}
	if len(users) > 2 {
		rest = users[2:]
	}

	downtown := "Downtown Sushi"
	casual := "Casual lunch"
	second := models.Session{
		Title:          "Lunch Sushi",
		RestaurantName: &downtown,
		Description:    &casual,
		CreatorID:      creator.ID,
		Participants:   participantsFrom(rest),
	}
	if err := sessions.Create(ctx, &second); err != nil {
		return nil, fmt.Errorf("failed to seed session %q: %w", second.Title, err)
	}

	return &first, nil
}
