/*
Copyright © 2025 arqlabs
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/arqlabs/voice-rag-be/utils"
)

// buildKBCmd represents the build-kb command
var buildKBCmd = &cobra.Command{
	Use:   "build-kb",
	Short: "Build the knowledge base from PDF files",
	Long: `Loads the given PDFs, splits them into passages, embeds them and
writes the vector index. Any previous index is replaced atomically.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		files, _ := cmd.Flags().GetStringSlice("file")
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" && len(files) == 0 {
			dir = cfg.UploadDir
		}
		if len(files) > 0 {
			// Bring one-off files into the upload directory so the server's
			// document endpoint can find them later.
			imported, err := utils.ImportPDFs(files, cfg.UploadDir)
			if err != nil {
				log.Fatalf("Failed to import PDFs: %v", err)
			}
			files = imported
		}
		if dir != "" {
			dirFiles, err := utils.ListPDFs(dir)
			if err != nil {
				log.Fatalf("Failed to list PDFs in %s: %v", dir, err)
			}
			files = append(files, dirFiles...)
		}
		if len(files) == 0 {
			log.Fatal("No PDF files to index, use --file or --dir")
		}

		ragService := newRAGService(cfg)
		stats, err := ragService.BuildKnowledgeBase(context.Background(), files, nil)
		if err != nil {
			log.Fatalf("Failed to build knowledge base: %v", err)
		}
		printBuildStats(stats.Documents, stats.Pages, stats.Passages, stats.ElapsedMs)
	},
}

func init() {
	rootCmd.AddCommand(buildKBCmd)
	buildKBCmd.Flags().StringSliceP("file", "f", nil, "PDF file to copy into the upload directory and index, repeatable")
	buildKBCmd.Flags().StringP("dir", "d", "", "directory of PDF files to index")
}
