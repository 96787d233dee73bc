package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/itiky/blogsync/storage/memory"
)

const (
	FlagFilePath   = "file-path"
	FlagPostsCount = "posts-count"
)

// GetGenerateCmd returns generate mock data command.
func GetGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate mock blog posts for the development server",
		Run: func(cmd *cobra.Command, args []string) {
			// Parse inputs
			filePath, err := cmd.Flags().GetString(FlagFilePath)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagFilePath)
			}
			postsCount, err := cmd.Flags().GetInt(FlagPostsCount)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagPostsCount)
			}

			// Work
			if err := memory.GenAndSavePosts(filePath, postsCount); err != nil {
				log.Fatal().Err(err).Msg("gen failed")
			}
		},
	}
	cmd.Flags().String(FlagFilePath, "./posts.gob", "(optional) output file path")
	cmd.Flags().Int(FlagPostsCount, 1000, "(optional) number of posts")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetGenerateCmd())
}
