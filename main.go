package main

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every knob the crawler reads, populated from environment
// variables (optionally via a .env file).
type Config struct {
	BaseURL  string
	IndexURL string
	SeedURLs []string

	OutputRoot string
	AssetsRoot string
	DBPath     string

	Headless          bool
	SkipExisting      bool
	MaxPages          int
	MaxNewFamilies    int
	FamilySizeLimit   int
	DelayBetweenCards time.Duration

	KeepAssetCategories map[string]bool
	KeepAssetLocales    map[string]bool
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[W] [Scraper/Config] Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[W] [Scraper/Config] Invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func envCSV(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envSet(key string, fallback []string) map[string]bool {
	values := envCSV(key)
	if len(values) == 0 {
		values = fallback
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}

func loadConfig() Config {
	outputRoot := envString("OUTPUT_ROOT", "dokkan_archive")
	return Config{
		BaseURL:  envString("BASE_URL", "https://dokkaninfo.com"),
		IndexURL: envString("INDEX_URL", "https://dokkaninfo.com/cards?sort=open_at"),
		SeedURLs: envCSV("SEED_URLS"),

		OutputRoot: outputRoot,
		AssetsRoot: envString("ASSETS_ROOT", filepath.Join(outputRoot, "assets")),
		DBPath:     envString("DB_PATH", "dokkan_archive.db"),

		Headless:          envBool("HEADLESS", true),
		SkipExisting:      envBool("SKIP_EXISTING", true),
		MaxPages:          envInt("MAX_PAGES", 5),
		MaxNewFamilies:    envInt("MAX_NEW_FAMILIES", 25),
		FamilySizeLimit:   envInt("FAMILY_SIZE_LIMIT", 40),
		DelayBetweenCards: time.Duration(envInt("SLEEP_BETWEEN_CARDS_MS", 1200)) * time.Millisecond,

		KeepAssetCategories: envSet("KEEP_ASSET_CATEGORIES", []string{"card_art", "thumbnail"}),
		KeepAssetLocales:    envSet("KEEP_ASSET_LOCALES", []string{"en"}),
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[I] [Scraper/Config] No .env file found, using environment variables only")
	}
	cfg := loadConfig()

	log.Printf("[I] [Scraper] Starting archive run (output: %s)", cfg.OutputRoot)

	database, err := initDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("[E] [Scraper] Could not open database: %v", err)
	}
	defer database.Close()

	if last, err := lastScrapeTime(database); err == nil && !last.IsZero() {
		log.Printf("[I] [Scraper] Last completed run: %s", last.Format(time.RFC3339))
	}

	store, err := newJSONDirStore(cfg.OutputRoot)
	if err != nil {
		log.Fatalf("[E] [Scraper] Could not open archive store: %v", err)
	}

	bot := startArchiveBot(store)
	defer bot.Close()

	browser := newBrowser(cfg.Headless)
	defer browser.Close()

	crawler := newCrawler(cfg, browser, store, database, bot)
	if err := crawler.Run(); err != nil {
		log.Fatalf("[E] [Scraper] Run failed: %v", err)
	}
}
