package cmd

import (
	"fmt"
	"log"
	"time"

	"Vibe/config"
	"Vibe/core/player"

	"github.com/spf13/cobra"
)

var recentClear bool

var recentCmd = &cobra.Command{
	Use:   "recent <user-id>",
	Short: "Show or clear a user's recently played tracks",
	Long:  `Read the recently played history persisted in the state database. Stop the server first; bolt holds an exclusive file lock.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		stateDB, err := player.OpenStateDB(cfg.StateDBPath)
		if err != nil {
			log.Fatalf("open %s: %v", cfg.StateDBPath, err)
		}
		defer stateDB.Close()

		store := player.NewBoltRecentStore(stateDB, args[0])
		if recentClear {
			if err := store.Clear(); err != nil {
				log.Fatalf("clear: %v", err)
			}
			fmt.Printf("Cleared history of %s\n", args[0])
			return
		}

		entries, err := store.Load()
		if err != nil {
			log.Fatalf("load: %v", err)
		}
		if len(entries) == 0 {
			fmt.Println("No recently played tracks.")
			return
		}
		for i, e := range entries {
			fmt.Printf("%2d. %s - %s (%s)\n", i+1, e.ArtistName, e.Name, e.PlayedAt.Format(time.RFC3339))
		}
	},
}

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.Flags().BoolVar(&recentClear, "clear", false, "delete the stored history")
}
