package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"

	"musidex/internal/cache"
	"musidex/internal/client"
	"musidex/internal/config"
	"musidex/internal/metadata"
	"musidex/internal/models"
	"musidex/internal/repositories"
	"musidex/internal/search"
	"musidex/internal/tracklist"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var (
		userFlag  = flag.Int64("user", 0, "filter to this user's library (0 = config default)")
		queryFlag = flag.String("query", "", "text or /regex query")
		sortFlag  = flag.String("sort", "similarity", "sort kind: similarity|creation_time|tag|random")
		tagFlag   = flag.String("tag-key", "", "tag key for -sort=tag")
		ascFlag   = flag.Bool("asc", false, "ascending order")
		limitFlag = flag.Int("limit", 20, "number of tracks to print")
		offline   = flag.Bool("offline", false, "use the persisted snapshot instead of the daemon")
		playFlag  = flag.Bool("play", false, "record the top pick as played so later runs rank against it")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	repo := openRepository(ctx, cfg)

	raw, err := fetchSnapshot(ctx, cfg, repo, *offline)
	if err != nil {
		slog.Error("failed to obtain a snapshot", "error", err)
		os.Exit(1)
	}

	meta := metadata.New(*raw, nil)
	slog.Info("snapshot loaded",
		"musics", len(meta.Musics),
		"users", len(meta.Users),
		"embeddings", len(meta.Embeddings))

	if repo != nil && !*offline {
		if err := repo.SaveSnapshot(ctx, raw); err != nil {
			slog.Warn("failed to persist snapshot", "error", err)
		}
	}

	form := buildForm(cfg, meta, *userFlag, *queryFlag, *sortFlag, *tagFlag, *ascFlag)
	list := loadHistory(ctx, repo, meta)

	engine := search.NewEngine(config.GetRankingConfig(), rand.Int63())
	sel := engine.Select(meta, form, list)

	printSelection(meta, sel, *limitFlag)

	if *playFlag {
		id, err := recordPlay(ctx, repo, sel, list)
		if err != nil {
			slog.Error("failed to record play", "error", err)
			os.Exit(1)
		}
		slog.Info("recorded play", "music_id", int64(id))
	}
}

// recordPlay persists the engine's next pick so the play history feeding
// similarity ranking advances with each -play run.
func recordPlay(ctx context.Context, repo repositories.SnapshotRepository, sel search.Selection, list tracklist.Tracklist) (models.MusicID, error) {
	if repo == nil {
		return 0, fmt.Errorf("recording plays requires MONGODB_URL")
	}
	var current *models.MusicID
	if head, ok := list.Head(); ok {
		current = &head
	}
	next, ok := search.NextTrack(sel, current)
	if !ok {
		return 0, fmt.Errorf("selection is empty, nothing to play")
	}
	if err := repo.RecordPlay(ctx, next, time.Now()); err != nil {
		return 0, err
	}
	return next, nil
}

// openRepository wires the configured persistence collaborators; both are
// optional.
func openRepository(ctx context.Context, cfg *config.Config) repositories.SnapshotRepository {
	if !cfg.HasMongo() {
		return nil
	}
	db, err := models.NewDatabase(ctx, cfg.MongodbURL, "musidex")
	if err != nil {
		slog.Warn("failed to connect to mongodb, continuing without persistence", "error", err)
		return nil
	}
	if err := db.CreateIndexes(ctx); err != nil {
		slog.Warn("failed to create indexes", "error", err)
	}
	repo := repositories.NewMongoSnapshotRepository(db)

	var c cache.Cache
	if cfg.HasValkey() {
		c, err = cache.NewValkeyCache(cfg.ValkeyURL)
		if err != nil {
			slog.Warn("failed to connect to valkey, using in-memory cache", "error", err)
			c = cache.NewMemoryCache()
		}
	} else {
		c = cache.NewMemoryCache()
	}
	return repositories.NewCachedSnapshotRepository(repo, c)
}

// fetchSnapshot gets the raw snapshot from the daemon, falling back to the
// persisted one when the daemon is unreachable.
func fetchSnapshot(ctx context.Context, cfg *config.Config, repo repositories.SnapshotRepository, offline bool) (*models.RawMetadata, error) {
	if offline {
		if repo == nil {
			return nil, fmt.Errorf("offline mode requires MONGODB_URL")
		}
		raw, err := repo.LatestSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, fmt.Errorf("no persisted snapshot available")
		}
		return raw, nil
	}

	raw, err := client.New(cfg.MusidexURL).Metadata(ctx)
	if err == nil {
		return raw, nil
	}
	slog.Warn("daemon unreachable, trying persisted snapshot", "error", err)
	if repo != nil {
		if cached, cacheErr := repo.LatestSnapshot(ctx); cacheErr == nil && cached != nil {
			return cached, nil
		}
	}
	return nil, err
}

func buildForm(cfg *config.Config, meta *metadata.Metadata, user int64, query, sortKind, tagKey string, ascending bool) search.SearchForm {
	if user == 0 {
		user = cfg.DefaultUser
	}
	var userPtr *int64
	if user != 0 {
		userPtr = &user
	} else if first, ok := metadata.FirstUser(meta); ok {
		userPtr = &first
	}

	form := search.NewSearchForm(userPtr)
	form.Filters.Query = query
	form.Sort.Descending = !ascending
	switch search.SortKind(sortKind) {
	case search.SortCreationTime:
		form.Sort.Kind = search.SortCreationTime
	case search.SortTag:
		form.Sort.Kind = search.SortTag
		form.Sort.TagKey = tagKey
	case search.SortRandom:
		form.Sort.Kind = search.SortRandom
	default:
		form.Sort.Kind = search.SortSimilarity
	}
	return form
}

// loadHistory seeds the tracklist from persisted plays so similarity ranking
// has a reference track.
func loadHistory(ctx context.Context, repo repositories.SnapshotRepository, meta *metadata.Metadata) tracklist.Tracklist {
	list := tracklist.New()
	if repo == nil {
		return list
	}
	plays, err := repo.RecentPlays(ctx, tracklist.DefaultMaxHistory)
	if err != nil {
		slog.Warn("failed to load play history", "error", err)
		return list
	}
	// RecentPlays is newest first; history is recorded oldest first.
	for i := len(plays) - 1; i >= 0; i-- {
		list = tracklist.Advance(list, plays[i], false)
	}
	return tracklist.Reconcile(list, meta)
}

func printSelection(meta *metadata.Metadata, sel search.Selection, limit int) {
	if limit > len(sel.List) {
		limit = len(sel.List)
	}
	for i := 0; i < limit; i++ {
		id := sel.List[i]
		tags := metadata.GetTags(meta, id)
		line := fmt.Sprintf("%3d. [%d] %s - %s", i+1, id,
			tags[models.KeyTitle].TextValue(), tags[models.KeyArtist].TextValue())
		if score, ok := sel.ScoreMap[id]; ok {
			line += fmt.Sprintf(" (%.4f)", score)
		}
		fmt.Println(line)
	}
}
