/*
Copyright © 2025 arqlabs
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question from the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		question := strings.Join(args, " ")

		ragService := newRAGService(cfg)
		if err := ragService.LoadKnowledgeBase(context.Background()); err != nil {
			log.Fatalf("Failed to load knowledge base: %v", err)
		}

		k, _ := cmd.Flags().GetInt("k")
		resp, err := ragService.Ask(context.Background(), question, k)
		if err != nil {
			log.Fatalf("Failed to answer question: %v", err)
		}

		fmt.Println(resp.Answer)

		showSources, _ := cmd.Flags().GetBool("sources")
		if showSources {
			fmt.Println()
			for i, s := range resp.Sources {
				fmt.Printf("[%d] %s page %d (score %.4f)\n", i+1, s.Passage.DocumentID, s.Passage.PageIndex+1, s.Score)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntP("k", "k", 0, "number of passages to retrieve (0 = configured default)")
	askCmd.Flags().Bool("sources", false, "print the source passages behind the answer")
}
