package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-rl-coach/internal/ballchasing"
	"github.com/pable/go-rl-coach/internal/collector"
)

// maxRateLimitWaits caps how many 429 backoffs a --wait run sits through
// before giving up.
const maxRateLimitWaits = 3

// fetch command flags.
var (
	// fetchPlaylist restricts ingestion to one provider playlist code.
	fetchPlaylist string
	// fetchMax caps how many replays are examined; 0 walks the full history.
	fetchMax int
	// fetchID pins the search to a platform identity ("steam:<id64>").
	fetchID string
	// fetchWait sleeps through API rate limits instead of stopping.
	fetchWait bool
)

// fetchCmd is the cobra command for pulling a player's replay history.
var fetchCmd = &cobra.Command{
	Use:   "fetch <player>",
	Short: "Pull a player's match history from ballchasing.com",
	Long: `Searches ballchasing.com for replays containing the player, pulls each
replay's stat line, and stores new matches locally. Already-stored replays
are skipped, so re-running the same fetch resumes where the last run stopped.

Examples:
  # Your own recent history
  rlcoach fetch Squishy --max 200

  # Only ranked 2v2s, pinned to a Steam identity
  rlcoach fetch Squishy --id steam:76561198286759507 --playlist ranked-doubles`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchPlaylist, "playlist", "", "only fetch this provider playlist code (e.g. ranked-doubles)")
	fetchCmd.Flags().IntVar(&fetchMax, "max", 0, "stop after examining this many replays (0 = full history)")
	fetchCmd.Flags().StringVar(&fetchID, "id", "", `pin the search to a platform identity ("steam:<id64>")`)
	fetchCmd.Flags().BoolVar(&fetchWait, "wait", false, "sleep through API rate limits instead of stopping")
}

func runFetch(cmd *cobra.Command, args []string) error {
	apiKey, err := cfg.BallchasingKey()
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	col := collector.New(db, ballchasing.NewClient(apiKey, cfg.APITimeout()),
		collector.Config{PageSize: cfg.Fetch.PageSize}, newLogger())

	req := collector.Request{
		Player:   args[0],
		PlayerID: fetchID,
		Playlist: fetchPlaylist,
		Max:      fetchMax,
	}
	if req.Max == 0 {
		req.Max = cfg.Fetch.MaxReplays
	}

	fmt.Printf("Fetching replay history for %s...\n", req.Player)

	// A resumed run re-walks the listing and skips known replays, so only
	// the insert count accumulates across attempts; the other counters come
	// from the final pass over the full listing.
	var res collector.Result
	newTotal := 0
	for attempt := 0; ; attempt++ {
		var ferr error
		res, ferr = col.Fetch(cmd.Context(), req)
		newTotal += res.New
		if ferr == nil {
			break
		}

		var rl *ballchasing.RateLimitError
		if !fetchWait || !errors.As(ferr, &rl) || attempt >= maxRateLimitWaits {
			res.New = newTotal
			printFetchTotals(res)
			return ferr
		}
		wait := rl.RetryAfter
		if wait <= 0 {
			wait = 10 * time.Second
		}
		fmt.Fprintf(os.Stderr, "Rate limited; resuming in %s (wait %d/%d)...\n",
			wait, attempt+1, maxRateLimitWaits)
		select {
		case <-time.After(wait):
		case <-cmd.Context().Done():
			res.New = newTotal
			printFetchTotals(res)
			return cmd.Context().Err()
		}
	}

	res.New = newTotal
	printFetchTotals(res)
	return nil
}

func printFetchTotals(res collector.Result) {
	fmt.Printf("\nDone: %d new matches stored (%d examined, %d already known, %d without the player)\n",
		res.New, res.Fetched, res.Known, res.Skipped)
}
